// Package cfa holds control-flow automata: program locations connected by
// edges labelled with transition formulas.
package cfa

import (
	"fmt"
	"sort"

	"pdrcheck/internal/expr"

	"github.com/pkg/errors"
)

// Location identifies a CFA node.
type Location int

// Kind marks locations that a safety property treats specially.
type Kind int

const (
	KindNormal Kind = iota
	KindError
	KindAssertFailure
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindAssertFailure:
		return "assert-failure"
	}
	return "normal"
}

// Edge is a transition between two locations. Formula relates the
// variables at index 0 (before) to those at index 1 (after).
type Edge struct {
	From    Location
	To      Location
	Label   string
	Formula expr.Expr
}

// CFA is a control-flow automaton.
type CFA struct {
	name       string
	vars       []expr.Var
	names      []string
	kinds      []Kind
	index      map[string]Location
	edges      []Edge
	start      Location
	hasStart   bool
	predicates map[Location][]expr.Expr
}

func New(name string) *CFA {
	return &CFA{
		name:       name,
		index:      make(map[string]Location),
		predicates: make(map[Location][]expr.Expr),
	}
}

func (c *CFA) Name() string {
	return c.name
}

// AddVar declares a program variable.
func (c *CFA) AddVar(v expr.Var) {
	c.vars = append(c.vars, v.At(0))
	expr.SortVars(c.vars)
}

// Vars returns the declared program variables.
func (c *CFA) Vars() []expr.Var {
	return c.vars
}

// Scope returns the variable declarations for the expression parser.
func (c *CFA) Scope() expr.Scope {
	scope := make(expr.Scope, len(c.vars))
	for _, v := range c.vars {
		scope[v.Name] = v.Type
	}
	return scope
}

// AddLocation creates a location with a unique name.
func (c *CFA) AddLocation(name string, kind Kind) (Location, error) {
	if _, ok := c.index[name]; ok {
		return 0, errors.Errorf("duplicate location %q", name)
	}
	loc := Location(len(c.names))
	c.names = append(c.names, name)
	c.kinds = append(c.kinds, kind)
	c.index[name] = loc
	return loc, nil
}

// SetStart sets the function entry location.
func (c *CFA) SetStart(loc Location) error {
	if !c.valid(loc) {
		return errors.Errorf("unknown location %d", loc)
	}
	c.start = loc
	c.hasStart = true
	return nil
}

// AddEdge adds a transition. Both ends must exist and the formula must be
// boolean.
func (c *CFA) AddEdge(e Edge) error {
	if !c.valid(e.From) || !c.valid(e.To) {
		return errors.Errorf("edge %d -> %d: unknown location", e.From, e.To)
	}
	if e.Formula == nil {
		e.Formula = expr.True
	}
	if e.Formula.Sort() != expr.Bool {
		return errors.Errorf("edge %s -> %s: formula has sort %s", c.LocationName(e.From), c.LocationName(e.To), e.Formula.Sort())
	}
	for index := range expr.Indices(e.Formula) {
		if index != 0 && index != 1 {
			return errors.Errorf("edge %s -> %s: variable index %d out of range", c.LocationName(e.From), c.LocationName(e.To), index)
		}
	}
	c.edges = append(c.edges, e)
	return nil
}

// AddPredicate attaches an abstraction predicate to a location.
func (c *CFA) AddPredicate(loc Location, p expr.Expr) {
	c.predicates[loc] = append(c.predicates[loc], p)
}

// Predicates returns the predicates attached to loc.
func (c *CFA) Predicates(loc Location) []expr.Expr {
	return c.predicates[loc]
}

// Start returns the entry location.
func (c *CFA) Start() Location {
	return c.start
}

// Validate checks that the automaton has an entry location.
func (c *CFA) Validate() error {
	if !c.hasStart {
		return errors.Errorf("cfa %s: no start location", c.name)
	}
	return nil
}

// Locations returns all locations in creation order.
func (c *CFA) Locations() []Location {
	locs := make([]Location, len(c.names))
	for i := range locs {
		locs[i] = Location(i)
	}
	return locs
}

// LocationsOfKind returns the locations of the given kind.
func (c *CFA) LocationsOfKind(kind Kind) []Location {
	var locs []Location
	for i, k := range c.kinds {
		if k == kind {
			locs = append(locs, Location(i))
		}
	}
	return locs
}

// Edges returns all edges in insertion order.
func (c *CFA) Edges() []Edge {
	return c.edges
}

// Lookup finds a location by name.
func (c *CFA) Lookup(name string) (Location, bool) {
	loc, ok := c.index[name]
	return loc, ok
}

// LocationName returns the name of loc.
func (c *CFA) LocationName(loc Location) string {
	if !c.valid(loc) {
		return fmt.Sprintf("L%d", loc)
	}
	return c.names[loc]
}

// Kind returns the kind of loc.
func (c *CFA) Kind(loc Location) Kind {
	if !c.valid(loc) {
		return KindNormal
	}
	return c.kinds[loc]
}

func (c *CFA) valid(loc Location) bool {
	return loc >= 0 && int(loc) < len(c.names)
}

// SortLocations orders locs by id.
func SortLocations(locs []Location) {
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
}
