// Package property defines the safety properties a program can be checked
// against. Each property names the CFA locations that must be unreachable.
package property

import (
	"pdrcheck/internal/cfa"
)

type Property interface {
	Info() *Info
	// Targets returns the locations of c the property forbids.
	Targets(c *cfa.CFA) ([]cfa.Location, error)
}

// BaseProperty forbids every location of a single kind.
type BaseProperty struct {
	info *Info
	kind cfa.Kind
}

func (bp *BaseProperty) Info() *Info {
	return bp.info
}

func (bp *BaseProperty) Targets(c *cfa.CFA) ([]cfa.Location, error) {
	return c.LocationsOfKind(bp.kind), nil
}

// NewUnreachError forbids the error locations.
func NewUnreachError() *BaseProperty {
	return &BaseProperty{
		info: Catalog["unreach-error"],
		kind: cfa.KindError,
	}
}

// NewAssert forbids the locations reached by failing assertions.
func NewAssert() *BaseProperty {
	return &BaseProperty{
		info: Catalog["assert"],
		kind: cfa.KindAssertFailure,
	}
}
