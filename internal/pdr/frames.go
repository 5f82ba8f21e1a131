package pdr

import (
	"context"
	"fmt"
	"strings"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"

	"github.com/benbjohnson/immutable"
	log "github.com/sirupsen/logrus"
)

// Lemma is a blocked state together with the highest level at which it is
// known to be unreachable. The frame at level i holds the negation of every
// state blocked at level i or above.
type Lemma struct {
	State expr.Expr
	Level int
}

func (l Lemma) String() string {
	return fmt.Sprintf("[%d] !%s", l.Level, l.State)
}

// blockChecker decides whether a state blocked at level at loc stays
// blocked one level up.
type blockChecker interface {
	Blocked(level int, loc cfa.Location, state expr.Expr) (bool, error)
}

// FrameSet holds the frames of every location. Lemmas are keyed by the
// canonical text of their state.
type FrameSet struct {
	start    cfa.Location
	maxLevel int
	lemmas   map[cfa.Location]*immutable.SortedMap
}

func NewFrameSet(start cfa.Location) *FrameSet {
	return &FrameSet{
		start:  start,
		lemmas: make(map[cfa.Location]*immutable.SortedMap),
	}
}

// OpenNextFrameSet adds an unconstrained frame on top.
func (fs *FrameSet) OpenNextFrameSet() {
	fs.maxLevel++
}

func (fs *FrameSet) MaxLevel() int {
	return fs.maxLevel
}

// BlockStates records that state is unreachable at loc within level steps,
// which blocks it at every lower level too. The start location cannot be
// strengthened. Blocking an already blocked state only raises its level.
func (fs *FrameSet) BlockStates(state expr.Expr, level int, loc cfa.Location) {
	if loc == fs.start || level <= 0 || expr.IsFalse(state) {
		return
	}
	table := fs.table(loc)
	key := state.String()
	if v, ok := table.Get(key); ok && v.(Lemma).Level >= level {
		return
	}
	log.Debugf("block %s at L%d level %d", key, loc, level)
	fs.lemmas[loc] = table.Set(key, Lemma{State: state, Level: level})
}

// Frame returns the over-approximation of the states reachable at loc
// within level steps.
func (fs *FrameSet) Frame(level int, loc cfa.Location) expr.Expr {
	if loc == fs.start {
		return expr.True
	}
	if level <= 0 {
		return expr.False
	}
	var clauses []expr.Expr
	for _, l := range fs.Lemmas(loc) {
		if l.Level >= level {
			clauses = append(clauses, expr.Not(l.State))
		}
	}
	return expr.And(clauses...)
}

// Lemmas returns the lemmas of loc ordered by key.
func (fs *FrameSet) Lemmas(loc cfa.Location) []Lemma {
	table, ok := fs.lemmas[loc]
	if !ok {
		return nil
	}
	result := make([]Lemma, 0, table.Len())
	itr := table.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		result = append(result, v.(Lemma))
	}
	return result
}

// Locations returns the locations that carry lemmas.
func (fs *FrameSet) Locations() []cfa.Location {
	locs := make([]cfa.Location, 0, len(fs.lemmas))
	for loc := range fs.lemmas {
		locs = append(locs, loc)
	}
	cfa.SortLocations(locs)
	return locs
}

// Size returns the number of lemmas over all locations.
func (fs *FrameSet) Size() int {
	n := 0
	for _, table := range fs.lemmas {
		n += table.Len()
	}
	return n
}

// Propagate pushes lemmas one level up while they stay blocked. It reports
// true when two adjacent frames below the top coincide at every location,
// which makes the lower one an inductive invariant.
func (fs *FrameSet) Propagate(ctx context.Context, checker blockChecker) (bool, error) {
	for level := 1; level < fs.maxLevel; level++ {
		for _, loc := range fs.Locations() {
			if err := checkCancelled(ctx); err != nil {
				return false, err
			}
			for _, l := range fs.Lemmas(loc) {
				if l.Level != level {
					continue
				}
				ok, err := checker.Blocked(level, loc, l.State)
				if err != nil {
					return false, err
				}
				if ok {
					fs.BlockStates(l.State, level+1, loc)
				}
			}
		}
	}
	for level := 1; level < fs.maxLevel; level++ {
		if fs.count(level) == 0 {
			log.Debugf("frames %d and %d coincide", level, level+1)
			return true, nil
		}
	}
	return false, nil
}

func (fs *FrameSet) count(level int) int {
	n := 0
	for loc := range fs.lemmas {
		for _, l := range fs.Lemmas(loc) {
			if l.Level == level {
				n++
			}
		}
	}
	return n
}

// String dumps the lemmas per location and level.
func (fs *FrameSet) String() string {
	var b strings.Builder
	for _, loc := range fs.Locations() {
		for _, l := range fs.Lemmas(loc) {
			fmt.Fprintf(&b, "L%d %s\n", loc, l)
		}
	}
	return b.String()
}

func (fs *FrameSet) table(loc cfa.Location) *immutable.SortedMap {
	if table, ok := fs.lemmas[loc]; ok {
		return table
	}
	return immutable.NewSortedMap(&stringComparer{})
}

// stringComparer orders map keys lexically. Implements immutable.Comparer.
type stringComparer struct{}

func (c *stringComparer) Compare(a, b interface{}) int {
	return strings.Compare(a.(string), b.(string))
}
