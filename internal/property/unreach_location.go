package property

import (
	"pdrcheck/internal/cfa"

	"github.com/pkg/errors"
)

// UnreachLocation forbids locations given by name.
type UnreachLocation struct {
	*BaseProperty
	names []string
}

func NewUnreachLocation(names ...string) *UnreachLocation {
	return &UnreachLocation{
		BaseProperty: &BaseProperty{
			info: Catalog["unreach-location"],
		},
		names: names,
	}
}

func (ul *UnreachLocation) Targets(c *cfa.CFA) ([]cfa.Location, error) {
	locs := make([]cfa.Location, 0, len(ul.names))
	for _, name := range ul.names {
		loc, ok := c.Lookup(name)
		if !ok {
			return nil, errors.Errorf("unknown location %q", name)
		}
		locs = append(locs, loc)
	}
	return locs, nil
}
