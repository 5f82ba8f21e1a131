package property

import (
	"pdrcheck/internal/cfa"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Manager collects the properties checked in one run.
type Manager struct {
	Properties []Property
	owners     map[cfa.Location]*Info
}

func NewManager() *Manager {
	return &Manager{
		Properties: make([]Property, 0),
		owners:     make(map[cfa.Location]*Info),
	}
}

// NewDefaultManager checks error locations and assertions.
func NewDefaultManager() *Manager {
	pm := NewManager()
	pm.AddProperty(NewUnreachError())
	pm.AddProperty(NewAssert())
	return pm
}

func (pm *Manager) AddProperty(p Property) {
	pm.Properties = append(pm.Properties, p)
}

// Targets returns the union of the targets of every property, ordered by
// location.
func (pm *Manager) Targets(c *cfa.CFA) ([]cfa.Location, error) {
	pm.owners = make(map[cfa.Location]*Info)
	var locs []cfa.Location
	for _, p := range pm.Properties {
		targets, err := p.Targets(c)
		if err != nil {
			return nil, errors.Wrapf(err, "property %s", p.Info().ID)
		}
		log.Debugf("property %s: %d targets", p.Info().ID, len(targets))
		for _, loc := range targets {
			if _, ok := pm.owners[loc]; ok {
				continue
			}
			pm.owners[loc] = p.Info()
			locs = append(locs, loc)
		}
	}
	cfa.SortLocations(locs)
	return locs, nil
}

// Violated returns the property that forbids loc, after Targets was called.
func (pm *Manager) Violated(loc cfa.Location) (*Info, bool) {
	info, ok := pm.owners[loc]
	return info, ok
}
