package engine

import (
	"github.com/ecomlens/ecomlens/internal/features"
	"github.com/ecomlens/ecomlens/internal/patterns"
)

// ActiveDrivers returns the ids of every driver whose conditions all
// hold for the vector, in definition order. Membership is binary and
// independent of the pattern's confidence tier: a session can carry
// active drivers without ever reaching the lowest detection cutoff.
func ActiveDrivers(v features.Vector, def patterns.Definition) []string {
	var active []string
	for _, d := range def.Drivers {
		if len(d.Conditions) == 0 {
			continue
		}
		if conditionsHold(v, d.Conditions) {
			active = append(active, d.ID)
		}
	}
	return active
}

// DriverLabel resolves a driver id to its human-readable label,
// returning the id itself for unknown drivers.
func DriverLabel(def patterns.Definition, id string) string {
	for _, d := range def.Drivers {
		if d.ID == id {
			return d.Label
		}
	}
	return id
}
