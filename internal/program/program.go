// Package program loads CFAs from YAML program descriptions.
package program

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AssertSuffix names the location synthesized for a failing assertion.
const AssertSuffix = "__assert"

type File struct {
	Name      string            `yaml:"name"`
	Vars      map[string]string `yaml:"vars"`
	Start     string            `yaml:"start"`
	Locations []Location        `yaml:"locations"`
	Edges     []Edge            `yaml:"edges"`
}

type Location struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Assert     string   `yaml:"assert"`
	Predicates []string `yaml:"predicates"`
}

// Edge is either an explicit transition formula over x and x', or an
// assumption plus assignments. Variables that are not assigned keep their
// value.
type Edge struct {
	From    string            `yaml:"from"`
	To      string            `yaml:"to"`
	Label   string            `yaml:"label"`
	Formula string            `yaml:"formula"`
	Assume  string            `yaml:"assume"`
	Assign  map[string]string `yaml:"assign"`
}

// Load reads the program at path.
func Load(path string) (*cfa.CFA, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return c, nil
}

// Parse decodes a YAML program and builds its CFA.
func Parse(data []byte) (*cfa.CFA, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode program")
	}
	return f.Build()
}

// Build translates the program into a CFA.
func (f *File) Build() (*cfa.CFA, error) {
	name := f.Name
	if name == "" {
		name = "main"
	}
	c := cfa.New(name)
	if err := f.declare(c); err != nil {
		return nil, err
	}
	scope := c.Scope()

	for _, l := range f.Locations {
		kind, err := parseKind(l.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "location %s", l.Name)
		}
		if _, err := c.AddLocation(l.Name, kind); err != nil {
			return nil, err
		}
	}
	start := f.Start
	if start == "" && len(f.Locations) > 0 {
		start = f.Locations[0].Name
	}
	loc, ok := c.Lookup(start)
	if !ok {
		return nil, errors.Errorf("unknown start location %q", start)
	}
	if err := c.SetStart(loc); err != nil {
		return nil, err
	}

	for _, l := range f.Locations {
		loc, _ := c.Lookup(l.Name)
		for _, src := range l.Predicates {
			p, err := expr.ParseFormula(src, scope, false)
			if err != nil {
				return nil, errors.Wrapf(err, "location %s", l.Name)
			}
			c.AddPredicate(loc, p)
		}
		if l.Assert != "" {
			if err := f.addAssert(c, loc, l); err != nil {
				return nil, err
			}
		}
	}

	for i, e := range f.Edges {
		if err := f.addEdge(c, e); err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}
	}
	log.Debugf("program %s: %d locations, %d edges", name, len(c.Locations()), len(c.Edges()))
	return c, nil
}

func (f *File) declare(c *cfa.CFA) error {
	names := make([]string, 0, len(f.Vars))
	for name := range f.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasPrefix(name, "__") {
			return errors.Errorf("variable %s: names starting with __ are reserved", name)
		}
		s, err := parseSort(f.Vars[name])
		if err != nil {
			return errors.Wrapf(err, "variable %s", name)
		}
		c.AddVar(expr.NewVar(name, s))
	}
	return nil
}

// addAssert adds an edge from loc to a fresh assert-failure location taken
// when the assertion does not hold.
func (f *File) addAssert(c *cfa.CFA, loc cfa.Location, l Location) error {
	cond, err := expr.ParseFormula(l.Assert, c.Scope(), false)
	if err != nil {
		return errors.Wrapf(err, "assert at %s", l.Name)
	}
	failure, err := c.AddLocation(l.Name+AssertSuffix, cfa.KindAssertFailure)
	if err != nil {
		return err
	}
	return c.AddEdge(cfa.Edge{
		From:    loc,
		To:      failure,
		Label:   "assert " + l.Assert,
		Formula: expr.And(append([]expr.Expr{expr.Not(cond)}, frame(c, nil)...)...),
	})
}

func (f *File) addEdge(c *cfa.CFA, e Edge) error {
	from, ok := c.Lookup(e.From)
	if !ok {
		return errors.Errorf("unknown location %q", e.From)
	}
	to, ok := c.Lookup(e.To)
	if !ok {
		return errors.Errorf("unknown location %q", e.To)
	}
	formula, err := transition(c, e)
	if err != nil {
		return errors.Wrapf(err, "%s -> %s", e.From, e.To)
	}
	return c.AddEdge(cfa.Edge{From: from, To: to, Label: e.Label, Formula: formula})
}

func transition(c *cfa.CFA, e Edge) (expr.Expr, error) {
	scope := c.Scope()
	if e.Formula != "" {
		if e.Assume != "" || len(e.Assign) > 0 {
			return nil, errors.New("formula cannot be combined with assume or assign")
		}
		return expr.ParseFormula(e.Formula, scope, true)
	}

	var conjuncts []expr.Expr
	if e.Assume != "" {
		assume, err := expr.ParseFormula(e.Assume, scope, false)
		if err != nil {
			return nil, err
		}
		conjuncts = append(conjuncts, assume)
	}
	assigned := make(map[string]struct{}, len(e.Assign))
	names := make([]string, 0, len(e.Assign))
	for name := range e.Assign {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := scope[name]; !ok {
			return nil, errors.Errorf("assignment to undeclared variable %s", name)
		}
		rhs := e.Assign[name]
		if _, err := expr.Parse(rhs, scope, false); err != nil {
			return nil, err
		}
		update, err := expr.ParseFormula(fmt.Sprintf("%s' == (%s)", name, rhs), scope, true)
		if err != nil {
			return nil, errors.Wrapf(err, "assignment to %s", name)
		}
		conjuncts = append(conjuncts, update)
		assigned[name] = struct{}{}
	}
	return expr.And(append(conjuncts, frame(c, assigned)...)...), nil
}

// frame keeps every variable outside assigned unchanged.
func frame(c *cfa.CFA, assigned map[string]struct{}) []expr.Expr {
	var result []expr.Expr
	for _, v := range c.Vars() {
		if _, ok := assigned[v.Name]; ok {
			continue
		}
		result = append(result, expr.Eq(v.At(1), v))
	}
	return result
}

func parseSort(s string) (expr.Sort, error) {
	switch s {
	case "int":
		return expr.Int, nil
	case "bool":
		return expr.Bool, nil
	}
	if strings.HasPrefix(s, "bv") {
		width, err := strconv.ParseUint(s[2:], 10, 32)
		if err == nil && width > 0 && width <= 64 {
			return expr.BitVec(uint32(width)), nil
		}
	}
	return expr.Sort{}, errors.Errorf("unknown sort %q", s)
}

func parseKind(s string) (cfa.Kind, error) {
	switch s {
	case "", "normal":
		return cfa.KindNormal, nil
	case "error":
		return cfa.KindError, nil
	}
	return cfa.KindNormal, errors.Errorf("unknown location kind %q", s)
}
