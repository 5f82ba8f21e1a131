package smt

import (
	"fmt"

	"pdrcheck/internal/expr"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
)

// bitvector lowers an operation on unsigned bit-vectors. Comparisons are
// unsigned.
func bitvector(op expr.Op, x, y yices2.TermT) (yices2.TermT, error) {
	switch op {
	case expr.OpEq:
		return yices2.BveqAtom(x, y), nil
	case expr.OpNe:
		return yices2.BvneqAtom(x, y), nil
	case expr.OpLt:
		return yices2.BvltAtom(x, y), nil
	case expr.OpLe:
		return yices2.BvleAtom(x, y), nil
	case expr.OpGt:
		return yices2.BvgtAtom(x, y), nil
	case expr.OpGe:
		return yices2.BvgeAtom(x, y), nil
	case expr.OpAdd:
		return yices2.Bvadd(x, y), nil
	case expr.OpSub:
		return yices2.Bvsub(x, y), nil
	case expr.OpMul:
		return yices2.Bvmul(x, y), nil
	case expr.OpDiv:
		return yices2.Bvdiv(x, y), nil
	case expr.OpRem:
		return yices2.Bvrem(x, y), nil
	case expr.OpBitAnd:
		return yices2.Bvand2(x, y), nil
	case expr.OpBitOr:
		return yices2.Bvor2(x, y), nil
	case expr.OpBitXor:
		return yices2.Bvxor2(x, y), nil
	}
	return 0, fmt.Errorf("operator %s not defined on bit-vectors", op)
}

// bitVecValue reads a bit-vector of the given width from a model. yices
// returns the bits least significant first.
func bitVecValue(model *yices2.ModelT, term yices2.TermT, width uint32) (int64, bool) {
	bits := make([]int32, width)
	if errcode := yices2.GetBvValue(*model, term, bits); errcode != 0 {
		return 0, false
	}
	return fromBits(bits), true
}

func fromBits(bits []int32) int64 {
	var v uint64
	for i := 0; i < len(bits) && i < 64; i++ {
		if bits[i] == 1 {
			v |= 1 << uint(i)
		}
	}
	return int64(v)
}
