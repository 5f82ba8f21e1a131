// Package expr implements the formulas the reachability engine reasons about:
// quantifier-free terms over indexed program variables.
package expr

import (
	"fmt"
	"sort"
	"strings"
)

// SortKind classifies the value domain of a term.
type SortKind int

const (
	KindBool SortKind = iota
	KindInt
	KindBitVec
)

// Sort is the type of a term. Width is only meaningful for bit-vectors.
type Sort struct {
	Kind  SortKind
	Width uint32
}

var (
	Bool = Sort{Kind: KindBool}
	Int  = Sort{Kind: KindInt}
)

// BitVec returns the sort of unsigned bit-vectors of the given width.
func BitVec(width uint32) Sort {
	return Sort{Kind: KindBitVec, Width: width}
}

func (s Sort) String() string {
	switch s.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindBitVec:
		return fmt.Sprintf("bv%d", s.Width)
	}
	return "invalid"
}

// Expr represents a formula or term.
type Expr interface {
	expr()
	Sort() Sort
	String() string
}

func (Var) expr()    {}
func (*Const) expr() {}
func (*Unary) expr() {}
func (*Binary) expr() {}
func (*Nary) expr()  {}

// Op identifies the operator of a composite expression.
type Op int

const (
	OpNot Op = iota
	OpNeg
	OpAnd
	OpOr
	OpImplies
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
)

var opNames = [...]string{
	OpNot:     "!",
	OpNeg:     "-",
	OpAnd:     "&&",
	OpOr:      "||",
	OpImplies: "==>",
	OpEq:      "==",
	OpNe:      "!=",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpRem:     "%",
	OpBitAnd:  "&",
	OpBitOr:   "|",
	OpBitXor:  "^",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// IsCompare returns true if op produces a boolean from two non-boolean terms.
func (op Op) IsCompare() bool {
	return op >= OpEq && op <= OpGe
}

// Var is a program variable at a given step index. Index 0 is the current
// state of a transition and index 1 its successor.
type Var struct {
	Name  string
	Type  Sort
	Index int
}

// NewVar returns a variable at index 0.
func NewVar(name string, sort Sort) Var {
	return Var{Name: name, Type: sort}
}

// Sort returns the sort of the variable.
func (v Var) Sort() Sort { return v.Type }

// At returns the same variable at another index.
func (v Var) At(index int) Var {
	v.Index = index
	return v
}

// String returns "x" for index 0, "x'" for index 1 and "x@k" otherwise.
func (v Var) String() string {
	switch v.Index {
	case 0:
		return v.Name
	case 1:
		return v.Name + "'"
	}
	return fmt.Sprintf("%s@%d", v.Name, v.Index)
}

// Const is a constant of any sort. Booleans are stored as 0/1 and
// bit-vectors as their unsigned value truncated to the width.
type Const struct {
	Type  Sort
	Value int64
}

var (
	True  = &Const{Type: Bool, Value: 1}
	False = &Const{Type: Bool, Value: 0}
)

// NewInt returns an integer constant.
func NewInt(v int64) *Const { return &Const{Type: Int, Value: v} }

// NewBool returns a boolean constant.
func NewBool(b bool) *Const {
	if b {
		return True
	}
	return False
}

// NewBitVecConst returns a bit-vector constant, truncating v to width bits.
func NewBitVecConst(v int64, width uint32) *Const {
	return &Const{Type: BitVec(width), Value: truncate(v, width)}
}

func (c *Const) Sort() Sort { return c.Type }

// IsTrue returns true if c is the boolean constant true.
func (c *Const) IsTrue() bool { return c.Type.Kind == KindBool && c.Value != 0 }

// IsFalse returns true if c is the boolean constant false.
func (c *Const) IsFalse() bool { return c.Type.Kind == KindBool && c.Value == 0 }

func (c *Const) String() string {
	switch c.Type.Kind {
	case KindBool:
		if c.Value != 0 {
			return "true"
		}
		return "false"
	case KindBitVec:
		return fmt.Sprintf("%d", uint64(c.Value))
	}
	return fmt.Sprintf("%d", c.Value)
}

// Unary is a negation (boolean or arithmetic).
type Unary struct {
	Op Op
	X  Expr
}

func (e *Unary) Sort() Sort { return e.X.Sort() }

func (e *Unary) String() string {
	return e.Op.String() + e.X.String()
}

// Binary is an operation on two operands.
type Binary struct {
	Op   Op
	X, Y Expr
}

func (e *Binary) Sort() Sort {
	if e.Op.IsCompare() || e.Op == OpImplies {
		return Bool
	}
	return e.X.Sort()
}

func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.X, e.Op, e.Y)
}

// Nary is a flattened conjunction or disjunction.
type Nary struct {
	Op   Op
	Args []Expr
}

func (e *Nary) Sort() Sort { return Bool }

func (e *Nary) String() string {
	parts := make([]string, len(e.Args))
	for i, arg := range e.Args {
		parts[i] = arg.String()
	}
	return "(" + strings.Join(parts, " "+e.Op.String()+" ") + ")"
}

// And returns the conjunction of args. Nested conjunctions are flattened,
// duplicates and true are dropped and any false argument yields false.
func And(args ...Expr) Expr {
	return newNary(OpAnd, args)
}

// Or returns the disjunction of args, simplified like And.
func Or(args ...Expr) Expr {
	return newNary(OpOr, args)
}

func newNary(op Op, args []Expr) Expr {
	var (
		unit, zero = True, False
		flat       = make([]Expr, 0, len(args))
		seen       = make(map[string]struct{}, len(args))
	)
	if op == OpOr {
		unit, zero = False, True
	}
	var add func(e Expr) bool
	add = func(e Expr) bool {
		if c, ok := e.(*Const); ok {
			if c.Value == zero.Value {
				return false
			}
			return true
		}
		if n, ok := e.(*Nary); ok && n.Op == op {
			for _, arg := range n.Args {
				if !add(arg) {
					return false
				}
			}
			return true
		}
		key := e.String()
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		flat = append(flat, e)
		return true
	}
	for _, arg := range args {
		if !add(arg) {
			return zero
		}
	}
	switch len(flat) {
	case 0:
		return unit
	case 1:
		return flat[0]
	}
	return &Nary{Op: op, Args: flat}
}

// Not returns the boolean negation of x.
func Not(x Expr) Expr {
	switch x := x.(type) {
	case *Const:
		return NewBool(x.Value == 0)
	case *Unary:
		if x.Op == OpNot {
			return x.X
		}
	}
	return &Unary{Op: OpNot, X: x}
}

// Neg returns the arithmetic negation of x.
func Neg(x Expr) Expr {
	if c, ok := x.(*Const); ok && c.Type.Kind == KindInt {
		return NewInt(-c.Value)
	}
	return &Unary{Op: OpNeg, X: x}
}

// Implies returns x ==> y.
func Implies(x, y Expr) Expr {
	if c, ok := x.(*Const); ok {
		if c.IsTrue() {
			return y
		}
		return True
	}
	return &Binary{Op: OpImplies, X: x, Y: y}
}

// NewBinary returns the binary operation op on x and y. Comparisons of two
// constants are folded.
func NewBinary(op Op, x, y Expr) Expr {
	switch op {
	case OpAnd:
		return And(x, y)
	case OpOr:
		return Or(x, y)
	case OpImplies:
		return Implies(x, y)
	}
	cx, okx := x.(*Const)
	cy, oky := y.(*Const)
	if okx && oky {
		if v, err := evalBinary(op, cx, cy); err == nil {
			return v
		}
	}
	return &Binary{Op: op, X: x, Y: y}
}

func Eq(x, y Expr) Expr  { return NewBinary(OpEq, x, y) }
func Ne(x, y Expr) Expr  { return NewBinary(OpNe, x, y) }
func Lt(x, y Expr) Expr  { return NewBinary(OpLt, x, y) }
func Le(x, y Expr) Expr  { return NewBinary(OpLe, x, y) }
func Gt(x, y Expr) Expr  { return NewBinary(OpGt, x, y) }
func Ge(x, y Expr) Expr  { return NewBinary(OpGe, x, y) }
func Add(x, y Expr) Expr { return NewBinary(OpAdd, x, y) }
func Sub(x, y Expr) Expr { return NewBinary(OpSub, x, y) }
func Mul(x, y Expr) Expr { return NewBinary(OpMul, x, y) }

// IsTrue returns true if e is the constant true.
func IsTrue(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.IsTrue()
}

// IsFalse returns true if e is the constant false.
func IsFalse(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.IsFalse()
}

// Conjuncts returns the top-level conjuncts of e.
func Conjuncts(e Expr) []Expr {
	if n, ok := e.(*Nary); ok && n.Op == OpAnd {
		return append([]Expr(nil), n.Args...)
	}
	if IsTrue(e) {
		return nil
	}
	return []Expr{e}
}

// Rewrite rebuilds e bottom-up, replacing every variable with fn(v).
func Rewrite(e Expr, fn func(Var) Expr) Expr {
	switch e := e.(type) {
	case Var:
		return fn(e)
	case *Const:
		return e
	case *Unary:
		x := Rewrite(e.X, fn)
		if e.Op == OpNot {
			return Not(x)
		}
		return Neg(x)
	case *Binary:
		return NewBinary(e.Op, Rewrite(e.X, fn), Rewrite(e.Y, fn))
	case *Nary:
		args := make([]Expr, len(e.Args))
		for i, arg := range e.Args {
			args[i] = Rewrite(arg, fn)
		}
		return newNary(e.Op, args)
	}
	panic(fmt.Sprintf("expr: unexpected expression type %T", e))
}

// Shift adds k to the index of every variable in e.
func Shift(e Expr, k int) Expr {
	if k == 0 {
		return e
	}
	return Rewrite(e, func(v Var) Expr { return v.At(v.Index + k) })
}

// Walk calls fn for e and every sub-expression of e in pre-order.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch e := e.(type) {
	case *Unary:
		Walk(e.X, fn)
	case *Binary:
		Walk(e.X, fn)
		Walk(e.Y, fn)
	case *Nary:
		for _, arg := range e.Args {
			Walk(arg, fn)
		}
	}
}

// Vars returns the variables of e ordered by name, then index.
func Vars(e Expr) []Var {
	set := make(map[Var]struct{})
	Walk(e, func(e Expr) {
		if v, ok := e.(Var); ok {
			set[v] = struct{}{}
		}
	})
	vars := make([]Var, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	SortVars(vars)
	return vars
}

// SortVars orders vars by name, then index.
func SortVars(vars []Var) {
	sort.Slice(vars, func(i, j int) bool {
		if vars[i].Name != vars[j].Name {
			return vars[i].Name < vars[j].Name
		}
		return vars[i].Index < vars[j].Index
	})
}

// Indices returns the set of variable indices occurring in e.
func Indices(e Expr) map[int]struct{} {
	indices := make(map[int]struct{})
	for _, v := range Vars(e) {
		indices[v.Index] = struct{}{}
	}
	return indices
}

// Atoms returns the boolean atoms of e: comparisons and boolean variables,
// looking through the boolean connectives. Duplicates are removed.
func Atoms(e Expr) []Expr {
	var (
		atoms []Expr
		seen  = make(map[string]struct{})
	)
	var visit func(e Expr)
	visit = func(e Expr) {
		switch x := e.(type) {
		case *Nary:
			for _, arg := range x.Args {
				visit(arg)
			}
			return
		case *Unary:
			if x.Op == OpNot {
				visit(x.X)
				return
			}
		case *Binary:
			if x.Op == OpImplies {
				visit(x.X)
				visit(x.Y)
				return
			}
			if !x.Op.IsCompare() {
				return
			}
			if (x.Op == OpEq || x.Op == OpNe) && x.X.Sort().Kind == KindBool {
				visit(x.X)
				visit(x.Y)
				return
			}
		case Var:
			if x.Type.Kind != KindBool {
				return
			}
		default:
			return
		}
		key := e.String()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			atoms = append(atoms, e)
		}
	}
	visit(e)
	return atoms
}

func truncate(v int64, width uint32) int64 {
	if width >= 64 {
		return v
	}
	return int64(uint64(v) & (uint64(1)<<width - 1))
}
