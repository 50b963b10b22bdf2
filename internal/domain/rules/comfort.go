// Package rules contains the pure calculation logic for game mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "math"

const (
	ZoneCount = 4

	// EdgeDeadBand is the width of the band at each extreme of [0,1] that never counts as comfortable.
	EdgeDeadBand = 0.08

	ComfortStep    = 0.012 // per comfort step (80ms)
	DecayStep      = 0.006 // per decay step (40ms), before the wind multiplier
	TapStep        = 0.05
	TapRotationDeg = 90.0

	ColdWindDecayMultiplier = 3.0
	NormalDecayMultiplier   = 1.0

	BubbleClearReward = 0.05

	// GracePeriod is the play time during which empty comfort is floored instead of failing.
	GracePeriod  = 1.0
	GraceComfort = 0.01
)

// TapDirection is the logical direction of a temperature tap.
type TapDirection int

const (
	TapUp   TapDirection = 1
	TapDown TapDirection = -1
)

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// ClampZone maps any index onto a valid quartile.
func ClampZone(zone int) int {
	if zone < 0 {
		return 0
	}
	if zone >= ZoneCount {
		return ZoneCount - 1
	}
	return zone
}

// ZoneBounds returns the [min,max] quartile of the zone.
func ZoneBounds(zone int) (lo, hi float64) {
	zone = ClampZone(zone)
	width := 1.0 / ZoneCount
	return float64(zone) * width, float64(zone+1) * width
}

// ZoneCenter returns the midpoint of the zone's quartile.
func ZoneCenter(zone int) float64 {
	lo, hi := ZoneBounds(zone)
	return (lo + hi) / 2
}

// NextZone advances cyclically through the quartiles.
func NextZone(zone int) int {
	return (ClampZone(zone) + 1) % ZoneCount
}

// InComfortZone reports whether temp is strictly inside the zone and outside both edge dead bands.
func InComfortZone(temp float64, zone int) bool {
	lo, hi := ZoneBounds(zone)
	if temp <= lo || temp >= hi {
		return false
	}
	return temp > EdgeDeadBand && temp < 1-EdgeDeadBand
}

// ComfortStepDelta is the signed comfort change of one comfort step.
func ComfortStepDelta(inZone bool) float64 {
	if inZone {
		return ComfortStep
	}
	return -ComfortStep
}

// ApplyComfortDelta adds delta to comfort, clamped.
func ApplyComfortDelta(comfort, delta float64) float64 {
	return Clamp01(comfort + delta)
}

// DecayTemperature applies one decay step scaled by multiplier.
func DecayTemperature(temp, multiplier float64) float64 {
	return Clamp01(temp - DecayStep*multiplier)
}

// ApplyTap moves temperature one tap step in the given direction.
func ApplyTap(temp float64, dir TapDirection) float64 {
	return Clamp01(temp + TapStep*float64(dir))
}
