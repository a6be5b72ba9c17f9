// models/unit.go

package models

import "strings"

type Unit string

const (
	UnitKilometre Unit = "Kilometre"
	UnitMile      Unit = "Mile"
	UnitMeter     Unit = "Meter"
	UnitYard      Unit = "Yard"
	UnitHour      Unit = "Hour"
	UnitMinute    Unit = "Minute"
	UnitCalorie   Unit = "Calorie"
	UnitSession   Unit = "Session"
	UnitClass     Unit = "Class"
	UnitRep       Unit = "Rep"
	UnitSet       Unit = "Set"
	UnitStep      Unit = "Step"
	UnitCustom    Unit = "Custom"
)

var knownUnits = map[Unit]struct{}{
	UnitKilometre: {}, UnitMile: {}, UnitMeter: {}, UnitYard: {},
	UnitHour: {}, UnitMinute: {}, UnitCalorie: {}, UnitSession: {},
	UnitClass: {}, UnitRep: {}, UnitSet: {}, UnitStep: {}, UnitCustom: {},
}

// Known reports whether u is one of the predefined units (Custom included).
func (u Unit) Known() bool {
	_, ok := knownUnits[u]
	return ok
}

// Speed-style pace units. Anything else is compared as a time (lower is better).
var speedPaceUnits = map[string]struct{}{
	"km/h":  {},
	"mph":   {},
	"m/min": {},
}

// IsSpeedPaceUnit reports whether a higher pace value is the better one for unit.
func IsSpeedPaceUnit(unit string) bool {
	_, ok := speedPaceUnits[strings.ToLower(strings.TrimSpace(unit))]
	return ok
}
