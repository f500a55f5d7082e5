// math/latlong.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

const NMPerLatitude = 60

const NauticalMilesToFeet = 6076.12
const FeetToNauticalMiles = 1 / NauticalMilesToFeet
const MetersToFeet = 3.28084
const MetersToNauticalMiles = 1 / 1852.0

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float32

func (p Point2LL) Longitude() float32 {
	return p[0]
}

func (p Point2LL) Latitude() float32 {
	return p[1]
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

func (p Point2LL) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// Lerp2LL returns the point x of the way between a and b along the
// straight lat-long line connecting them.
func Lerp2LL(x float32, a Point2LL, b Point2LL) Point2LL {
	return Point2LL{(1-x)*a[0] + x*b[0], (1-x)*a[1] + x*b[1]}
}

func Mid2LL(a Point2LL, b Point2LL) Point2LL {
	return Lerp2LL(0.5, a, b)
}

// LL2NM converts a point expressed in latitude-longitude coordinates to
// nautical mile coordinates; this is useful for example for reasoning
// about distances, since both axes then have the same measure.
func LL2NM(p Point2LL, nmPerLongitude float32) [2]float32 {
	return [2]float32{p[0] * nmPerLongitude, p[1] * NMPerLatitude}
}

// ClosestPointOnSegment2LL returns the point on the segment from a to b
// that is closest to p, computed on a locally flat earth.
func ClosestPointOnSegment2LL(p, a, b Point2LL) Point2LL {
	nmPerLongitude := NMPerLatitude * Cos(Radians(p.Latitude()))
	pn, an, bn := LL2NM(p, nmPerLongitude), LL2NM(a, nmPerLongitude), LL2NM(b, nmPerLongitude)

	dx, dy := bn[0]-an[0], bn[1]-an[1]
	l2 := Sqr(dx) + Sqr(dy)
	if l2 == 0 {
		return a
	}
	t := Clamp(((pn[0]-an[0])*dx+(pn[1]-an[1])*dy)/l2, 0, 1)
	return Lerp2LL(t, a, b)
}

// NMDistance2LL returns the distance in nautical miles between two
// provided lat-long coordinates.
func NMDistance2LL(a Point2LL, b Point2LL) float32 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	const R = 6371000 // metres
	rad := func(d float64) float64 { return float64(d) / 180 * gomath.Pi }
	lat1, lon1 := rad(float64(a[1])), rad(float64(a[0]))
	lat2, lon2 := rad(float64(b[1])), rad(float64(b[0]))
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
	dm := R * c // in metres

	return float32(dm * 0.000539957)
}
