// Package predicate supplies the abstraction predicates used to generalize
// states before they are blocked.
package predicate

import (
	"pdrcheck/internal/block"
	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
)

// Provider returns the predicates (over index-0 variables) relevant at a
// location.
type Provider interface {
	Predicates(loc cfa.Location) []expr.Expr
}

// Static is a fixed precision: a set of global predicates plus extra
// predicates per location.
type Static struct {
	global []expr.Expr
	local  map[cfa.Location][]expr.Expr
}

func NewStatic() *Static {
	return &Static{
		local: make(map[cfa.Location][]expr.Expr),
	}
}

// FromBlocks collects the atoms of every block formula. Atoms over the
// predecessor state are used as they are, atoms over the successor state
// are moved to index 0 and atoms mixing both states are skipped.
func FromBlocks(a *block.Abstraction) *Static {
	s := NewStatic()
	for _, b := range a.All() {
		for _, atom := range expr.Atoms(b.Formula) {
			indices := expr.Indices(atom)
			_, cur := indices[0]
			_, next := indices[1]
			switch {
			case len(indices) == 0:
			case cur && !next:
				s.AddGlobal(atom)
			case next && !cur:
				s.AddGlobal(expr.Shift(atom, -1))
			}
		}
	}
	return s
}

// FromCFA is FromBlocks plus the predicates attached to the CFA locations.
func FromCFA(c *cfa.CFA, a *block.Abstraction) *Static {
	s := FromBlocks(a)
	for _, loc := range c.Locations() {
		s.Add(loc, c.Predicates(loc)...)
	}
	return s
}

// AddGlobal adds predicates relevant at every location.
func (s *Static) AddGlobal(preds ...expr.Expr) {
	s.global = appendUnique(s.global, preds...)
}

// Add adds predicates relevant at loc only.
func (s *Static) Add(loc cfa.Location, preds ...expr.Expr) {
	if len(preds) == 0 {
		return
	}
	s.local[loc] = appendUnique(s.local[loc], preds...)
}

func (s *Static) Predicates(loc cfa.Location) []expr.Expr {
	return appendUnique(append([]expr.Expr(nil), s.global...), s.local[loc]...)
}

func appendUnique(dst []expr.Expr, preds ...expr.Expr) []expr.Expr {
	seen := make(map[string]struct{}, len(dst))
	for _, p := range dst {
		seen[p.String()] = struct{}{}
	}
	for _, p := range preds {
		key := p.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, p)
	}
	return dst
}
