package pdr

import (
	"fmt"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
)

// ProofObligation claims that State is unreachable at Location within
// Level steps. Cause is the arena index of the obligation this one was
// derived from, or -1 for a root.
type ProofObligation struct {
	Level    int
	Location cfa.Location
	State    expr.Expr
	Cause    int
}

func (p ProofObligation) String() string {
	return fmt.Sprintf("<L%d level %d: %s>", p.Location, p.Level, p.State)
}

// terminal obligations intersect the initial states: every state at the
// start location is reachable in zero steps.
func (p ProofObligation) terminal(start cfa.Location) bool {
	return p.Level == 0 || p.Location == start
}

// arena owns the obligations of one backward search.
type arena struct {
	items []ProofObligation
}

func (a *arena) add(p ProofObligation) int {
	a.items = append(a.items, p)
	return len(a.items) - 1
}

func (a *arena) get(ref int) ProofObligation {
	return a.items[ref]
}

func (a *arena) size() int {
	return len(a.items)
}

// chain returns the obligation at ref followed by its causes, ending at the
// root.
func (a *arena) chain(ref int) []ProofObligation {
	var result []ProofObligation
	for ref >= 0 {
		p := a.items[ref]
		result = append(result, p)
		ref = p.Cause
	}
	return result
}
