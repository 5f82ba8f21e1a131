// Package report renders verdicts and error traces for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/pdr"
	"pdrcheck/internal/property"

	"golang.org/x/term"
)

const (
	Red    = 31
	Green  = 32
	Yellow = 33
)

// Step is one state of an error trace. Edge names the transition taken
// out of the state and is empty for the last step.
type Step struct {
	Location string
	Values   string
	Edge     string
}

// Violation is a reachable target of a property.
type Violation struct {
	ID          string
	Title       string
	Description string

	Location string
	Trace    []Step
}

// NewViolation describes the counterexample cex against c.
func NewViolation(c *cfa.CFA, info *property.Info, cex *pdr.Counterexample) *Violation {
	v := &Violation{
		ID:          "unknown",
		Title:       "Reachable Target Location",
		Description: "A target location is reachable from the start location.",
	}
	if info != nil {
		v.ID, v.Title, v.Description = info.ID, info.Title, info.Description
	}
	for i, st := range cex.States {
		step := Step{
			Location: c.LocationName(st.Location),
			Values:   st.Values.String(),
		}
		if i < len(cex.Path) {
			b := cex.Path[i]
			step.Edge = fmt.Sprintf("%s -> %s", c.LocationName(b.Pred), c.LocationName(b.Succ))
			if b.Label != "" {
				step.Edge += " [" + b.Label + "]"
			}
		}
		v.Trace = append(v.Trace, step)
	}
	if n := len(cex.States); n > 0 {
		v.Location = c.LocationName(cex.States[n-1].Location)
	}
	return v
}

// Format renders the violation, with ANSI colours if colour is set.
func (v *Violation) Format(colour bool) string {
	header := fmt.Sprintf("ID: %s\nTitle: %s\nDescription: %s\n\n", v.ID, v.Title, v.Description)
	var trace strings.Builder
	fmt.Fprintf(&trace, "Error location: %s\n", v.Location)
	for i, step := range v.Trace {
		fmt.Fprintf(&trace, "%3d: %s %s\n", i, step.Location, step.Values)
		if step.Edge != "" {
			fmt.Fprintf(&trace, "     %s\n", step.Edge)
		}
	}
	if colour {
		return Colour(Red, header) + Colour(Yellow, trace.String())
	}
	return header + trace.String()
}

func (v *Violation) String() string {
	return v.Format(false)
}

func Colour(color int, str string) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, str)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type Printer struct {
	w      io.Writer
	colour bool
}

func NewPrinter(w io.Writer, colour bool) *Printer {
	return &Printer{w: w, colour: colour}
}

// Print writes the verdict for program c, followed by the violation if the
// program is unsafe.
func (p *Printer) Print(c *cfa.CFA, pm *property.Manager, result *pdr.Result) error {
	verdict := fmt.Sprintf("%s: %s\n", result.Verdict, c.Name())
	if p.colour {
		switch result.Verdict {
		case pdr.VerdictSafe:
			verdict = Colour(Green, verdict)
		case pdr.VerdictUnsafe:
			verdict = Colour(Red, verdict)
		}
	}
	if _, err := io.WriteString(p.w, verdict); err != nil {
		return err
	}
	if result.Counterexample != nil {
		var info *property.Info
		if n := len(result.Counterexample.States); n > 0 && pm != nil {
			info, _ = pm.Violated(result.Counterexample.States[n-1].Location)
		}
		v := NewViolation(c, info, result.Counterexample)
		if _, err := io.WriteString(p.w, v.Format(p.colour)); err != nil {
			return err
		}
	}
	s := result.Stats
	_, err := fmt.Fprintf(p.w, "levels: %d, queries: %d, obligations: %d, lemmas: %d, time: %v\n",
		s.Levels, s.Queries, s.Obligations, s.Lemmas, s.Elapsed)
	return err
}
