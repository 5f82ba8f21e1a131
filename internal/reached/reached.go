// Package reached is the reached set shared between the property layer and
// the reachability engine. It names the error locations to check and, when
// an error is reachable, records the states along the error trace.
package reached

import (
	"fmt"
	"strings"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
)

// State is one concrete program state on a trace.
type State struct {
	Location cfa.Location
	Values   expr.Assignment
	// Target is set on the state at an error location.
	Target bool
}

func (s State) String() string {
	if s.Target {
		return fmt.Sprintf("L%d %s (target)", s.Location, s.Values)
	}
	return fmt.Sprintf("L%d %s", s.Location, s.Values)
}

// Set holds the error locations of a CFA and the states reached so far.
type Set struct {
	cfa    *cfa.CFA
	errors []cfa.Location
	index  map[cfa.Location]struct{}
	states []State
}

// NewSet returns a set whose targets are errorLocations. Duplicates are
// dropped and the locations are kept ordered by id.
func NewSet(c *cfa.CFA, errorLocations []cfa.Location) *Set {
	s := &Set{
		cfa:   c,
		index: make(map[cfa.Location]struct{}),
	}
	for _, loc := range errorLocations {
		if _, ok := s.index[loc]; ok {
			continue
		}
		s.index[loc] = struct{}{}
		s.errors = append(s.errors, loc)
	}
	cfa.SortLocations(s.errors)
	return s
}

func (s *Set) CFA() *cfa.CFA {
	return s.cfa
}

// ErrorLocations returns the locations that must be unreachable.
func (s *Set) ErrorLocations() []cfa.Location {
	return s.errors
}

func (s *Set) IsError(loc cfa.Location) bool {
	_, ok := s.index[loc]
	return ok
}

// AddTrace replaces the reached states with an error trace. The last state
// is marked as the target if it sits at an error location.
func (s *Set) AddTrace(states []State) {
	s.states = make([]State, len(states))
	copy(s.states, states)
	if n := len(s.states); n > 0 && s.IsError(s.states[n-1].Location) {
		s.states[n-1].Target = true
	}
}

// States returns the recorded states in trace order.
func (s *Set) States() []State {
	return s.states
}

// Target returns the state at the error location, if one was reached.
func (s *Set) Target() (State, bool) {
	for _, st := range s.states {
		if st.Target {
			return st, true
		}
	}
	return State{}, false
}

// Describe renders the recorded trace with location names.
func (s *Set) Describe() string {
	var b strings.Builder
	for i, st := range s.states {
		name := fmt.Sprintf("L%d", st.Location)
		if s.cfa != nil {
			name = s.cfa.LocationName(st.Location)
		}
		fmt.Fprintf(&b, "%d: %s %s", i, name, st.Values)
		if st.Target {
			b.WriteString(" <- error")
		}
		b.WriteString("\n")
	}
	return b.String()
}
