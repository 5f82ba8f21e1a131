package pdr

import (
	"context"

	"pdrcheck/internal/expr"
	"pdrcheck/internal/strategy"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// backwardBlock tries to block root and every predecessor obligation it
// spawns. It returns the arena of the search and the index of a terminal
// obligation, or -1 if root was blocked.
func (a *Algorithm) backwardBlock(ctx context.Context, root ProofObligation) (*arena, int, error) {
	queue, err := strategy.New(a.opts.SearchOrder)
	if err != nil {
		return nil, -1, errors.Wrapf(ErrConfiguration, "%v", err)
	}
	obligations := &arena{}
	root.Cause = -1
	ref := obligations.add(root)
	if err := queue.Push(strategy.Item{Ref: ref, Level: root.Level}); err != nil {
		return nil, -1, err
	}

	for queue.HasNext() {
		if err := checkCancelled(ctx); err != nil {
			return nil, -1, err
		}
		item, err := queue.Pop()
		if err != nil {
			return nil, -1, err
		}
		p := obligations.get(item.Ref)
		a.stats.Obligations++
		if a.onPop != nil {
			a.onPop(obligations, item.Ref)
		}
		if p.terminal(a.cfa.Start()) {
			log.Debugf("obligation %s reaches the start location", p)
			return obligations, item.Ref, nil
		}

		blocked := true
		var generalized []expr.Expr
		for _, b := range a.blocks.BlocksEndingAt(p.Location) {
			res, err := a.oracle.Consecution(p.Level-1, b, p.State)
			if err != nil {
				return nil, -1, err
			}
			if res.Success {
				generalized = append(generalized, res.Formula)
				continue
			}
			child := ProofObligation{
				Level:    p.Level - 1,
				Location: b.Pred,
				State:    res.Formula,
				Cause:    item.Ref,
			}
			log.Debugf("obligation %s has predecessor %s", p, child)
			childRef := obligations.add(child)
			if err := queue.Push(item, strategy.Item{Ref: childRef, Level: child.Level}); err != nil {
				return nil, -1, err
			}
			blocked = false
			break
		}
		if blocked {
			a.frames.BlockStates(expr.And(generalized...), p.Level, p.Location)
		}
	}
	return obligations, -1, nil
}
