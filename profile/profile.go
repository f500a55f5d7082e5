// profile/profile.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package profile computes terrain elevation profiles along a flight
// route: it samples the elevation model leg by leg in a cancellable
// background computation, projects the result into pixel space for
// rendering, and answers inverse pixel-to-route queries for interactive
// probing.
package profile

import (
	"log/slog"

	"github.com/akb/navprof/log"
	"github.com/akb/navprof/math"
	"github.com/akb/navprof/route"
	"github.com/akb/navprof/terrain"
	"github.com/akb/navprof/util"
)

// Samples whose altitude is within this many feet of the previously
// retained sample are dropped during the build.
const thinningToleranceFt = 10

// Altitude thinning only kicks in once this many legs have been
// accumulated, so short routes keep full detail.
const thinningLegThreshold = 2

// Position is a geographic point plus an altitude in feet.
type Position struct {
	math.Point2LL
	Altitude float32
}

// ElevationLeg is the terrain profile between two consecutive route
// waypoints: the retained elevation samples and, parallel to them, the
// cumulative route distance in nautical miles at each sample.
type ElevationLeg struct {
	Elevation    []Position
	Distances    []float32
	MaxElevation float32
}

// ElevationLegList is the full profile for a route, together with the
// waypoint snapshot it was computed from. It is built by a single
// background computation and handed over whole; consumers never see a
// partially built list.
type ElevationLegList struct {
	Legs              []ElevationLeg
	Waypoints         []route.Waypoint
	TotalDistance     float32
	TotalNumPoints    int
	MaxRouteElevation float32
}

func (l ElevationLegList) IsEmpty() bool {
	return len(l.Legs) == 0 || len(l.Waypoints) == 0
}

func (l ElevationLegList) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("legs", len(l.Legs)),
		slog.Int("total_points", l.TotalNumPoints),
		slog.Float64("total_distance", float64(l.TotalDistance)),
		slog.Float64("max_route_elevation", float64(l.MaxRouteElevation)))
}

// SafeAltitudeFt adds a 1000 ft buffer to the given maximum terrain
// elevation and rounds up to the next 500 ft increment.
func SafeAltitudeFt(maxElevationFt float32) float32 {
	return math.Ceil((maxElevationFt+1000)/500) * 500
}

// buildLeg samples the terrain between waypoints a and b and appends one
// leg to the list, thinning samples of similar altitude and advancing
// the list's running totals. It returns false if the computation was
// cancelled, in which case the list contents must be discarded.
func buildLeg(legs *ElevationLegList, a, b route.Waypoint, sampler *terrain.Adapter,
	token *util.AtomicBool) bool {
	samples := sampler.HeightProfile(a.Position, b.Position)

	var leg ElevationLeg
	var last Position
	for j, s := range samples {
		if token.Load() {
			return false
		}

		pos := Position{Point2LL: s.Position, Altitude: float32(s.AltitudeM) * math.MetersToFeet}

		// Drop points with similar altitude except the first and last
		// one on a segment.
		if j != 0 && j != len(samples)-1 && len(legs.Legs) >= thinningLegThreshold &&
			math.AlmostEqual(pos.Altitude, last.Altitude, thinningToleranceFt) {
			continue
		}

		if pos.Altitude > leg.MaxElevation {
			leg.MaxElevation = pos.Altitude
		}
		if pos.Altitude > legs.MaxRouteElevation {
			legs.MaxRouteElevation = pos.Altitude
		}

		leg.Elevation = append(leg.Elevation, pos)
		if j > 0 {
			legs.TotalDistance += math.NMDistance2LL(last.Point2LL, pos.Point2LL)
		}
		leg.Distances = append(leg.Distances, legs.TotalDistance)

		legs.TotalNumPoints++
		last = pos
	}

	legs.Legs = append(legs.Legs, leg)
	return true
}

// BuildLegList computes the elevation profile for the given route
// snapshot. It returns ok=false if cancellation was observed, in which
// case the returned list is empty and must not reach consumers. Routes
// with fewer than two waypoints produce an empty, well-formed list.
func BuildLegList(snapshot []route.Waypoint, sampler *terrain.Adapter,
	token *util.AtomicBool, lg *log.Logger) (ElevationLegList, bool) {
	legs := ElevationLegList{Waypoints: snapshot}

	for i := 1; i < len(snapshot); i++ {
		if token.Load() {
			return ElevationLegList{}, false
		}

		if !buildLeg(&legs, snapshot[i-1], snapshot[i], sampler, token) {
			return ElevationLegList{}, false
		}
	}

	lg.Debug("built elevation legs", slog.Any("legs", legs))
	return legs, true
}
