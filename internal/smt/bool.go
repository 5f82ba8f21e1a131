package smt

import (
	"fmt"

	"pdrcheck/internal/expr"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
)

func boolean(op expr.Op, x, y yices2.TermT) (yices2.TermT, error) {
	switch op {
	case expr.OpEq:
		return yices2.Iff(x, y), nil
	case expr.OpNe:
		return yices2.Not(yices2.Iff(x, y)), nil
	case expr.OpImplies:
		return yices2.Implies(x, y), nil
	case expr.OpAnd:
		return yices2.And2(x, y), nil
	case expr.OpOr:
		return yices2.Or2(x, y), nil
	}
	return 0, fmt.Errorf("operator %s not defined on bool", op)
}

// boolValue reads a boolean from a model; ok is false if the model does
// not define term.
func boolValue(model *yices2.ModelT, term yices2.TermT) (value bool, ok bool) {
	var val int32
	if errcode := yices2.GetBoolValue(*model, term, &val); errcode != 0 {
		return false, false
	}
	return val != 0, true
}

// intValue reads an integer from a model.
func intValue(model *yices2.ModelT, term yices2.TermT) (int64, bool) {
	var val int64
	if errcode := yices2.GetInt64Value(*model, term, &val); errcode != 0 {
		return 0, false
	}
	return val, true
}
