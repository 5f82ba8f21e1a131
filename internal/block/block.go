// Package block provides the transition abstraction the reachability
// engine works on: symbolic transitions ("blocks") between CFA locations.
package block

import (
	"fmt"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
)

// Block is an immutable transition from Pred to Succ. Formula relates the
// predecessor state (index 0) to the successor state (index 1).
type Block struct {
	Pred    cfa.Location
	Succ    cfa.Location
	Formula expr.Expr
	Label   string
}

func (b Block) String() string {
	if b.Label != "" {
		return fmt.Sprintf("L%d -> L%d [%s] %s", b.Pred, b.Succ, b.Label, b.Formula)
	}
	return fmt.Sprintf("L%d -> L%d %s", b.Pred, b.Succ, b.Formula)
}

// Abstraction indexes blocks by their end points.
type Abstraction struct {
	blocks []Block
	ending map[cfa.Location][]int
	from   map[cfa.Location][]int
}

// New returns an abstraction over the given blocks, kept in order.
func New(blocks ...Block) *Abstraction {
	a := &Abstraction{
		blocks: make([]Block, 0, len(blocks)),
		ending: make(map[cfa.Location][]int),
		from:   make(map[cfa.Location][]int),
	}
	for _, b := range blocks {
		a.add(b)
	}
	return a
}

// FromCFA returns one block per CFA edge.
func FromCFA(c *cfa.CFA) *Abstraction {
	edges := c.Edges()
	blocks := make([]Block, len(edges))
	for i, e := range edges {
		blocks[i] = Block{
			Pred:    e.From,
			Succ:    e.To,
			Formula: e.Formula,
			Label:   e.Label,
		}
	}
	return New(blocks...)
}

func (a *Abstraction) add(b Block) {
	if b.Formula == nil {
		b.Formula = expr.True
	}
	i := len(a.blocks)
	a.blocks = append(a.blocks, b)
	a.ending[b.Succ] = append(a.ending[b.Succ], i)
	a.from[b.Pred] = append(a.from[b.Pred], i)
}

// All returns every block.
func (a *Abstraction) All() []Block {
	return a.blocks
}

// BlocksEndingAt returns the blocks whose successor is loc.
func (a *Abstraction) BlocksEndingAt(loc cfa.Location) []Block {
	return a.BlocksEndingAtExcept(loc, nil)
}

// BlocksEndingAtExcept returns the blocks whose successor is loc, leaving
// out those whose predecessor satisfies exclude.
func (a *Abstraction) BlocksEndingAtExcept(loc cfa.Location, exclude func(cfa.Location) bool) []Block {
	return a.collect(a.ending[loc], exclude)
}

// BlocksFrom returns the blocks whose predecessor is loc.
func (a *Abstraction) BlocksFrom(loc cfa.Location) []Block {
	return a.collect(a.from[loc], nil)
}

func (a *Abstraction) collect(indices []int, exclude func(cfa.Location) bool) []Block {
	result := make([]Block, 0, len(indices))
	for _, i := range indices {
		if exclude != nil && exclude(a.blocks[i].Pred) {
			continue
		}
		result = append(result, a.blocks[i])
	}
	return result
}

// Locations returns every location that is an end point of some block.
func (a *Abstraction) Locations() []cfa.Location {
	seen := make(map[cfa.Location]struct{})
	var locs []cfa.Location
	for _, b := range a.blocks {
		for _, loc := range []cfa.Location{b.Pred, b.Succ} {
			if _, ok := seen[loc]; !ok {
				seen[loc] = struct{}{}
				locs = append(locs, loc)
			}
		}
	}
	cfa.SortLocations(locs)
	return locs
}

// Vars returns the program variables (at index 0) mentioned by any block.
func (a *Abstraction) Vars() []expr.Var {
	seen := make(map[expr.Var]struct{})
	var vars []expr.Var
	for _, b := range a.blocks {
		for _, v := range expr.Vars(b.Formula) {
			v = v.At(0)
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				vars = append(vars, v)
			}
		}
	}
	expr.SortVars(vars)
	return vars
}
