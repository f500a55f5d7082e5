// profile/query.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"github.com/akb/navprof/math"
	"github.com/akb/navprof/route"
	"github.com/akb/navprof/util"
)

// QueryResult describes the route position under a pixel x coordinate:
// the leg's bounding waypoints, the along-route distance, the
// interpolated ground elevation and clearance below the cruise altitude,
// and the interpolated geographic position for map highlighting.
type QueryResult struct {
	LegIndex int
	From, To route.Waypoint

	DistanceNM        float32
	GroundAltitudeFt  float32
	AboveGroundFt     float32
	LegSafeAltitudeFt float32

	Position math.Point2LL
}

// Query maps a pixel x coordinate back onto the route. It returns
// ok=false when there is no profile to query.
//
// The ground altitude is the average of the two samples bracketing the
// query distance, not a distance-weighted interpolation; this matches
// long-standing behavior that label text depends on.
func Query(legs *ElevationLegList, proj *ProjectionState, x int) (QueryResult, bool) {
	if legs.IsEmpty() || !proj.Valid {
		return QueryResult{}, false
	}

	x = math.Clamp(x, SideMargin, proj.Width-SideMargin)

	// Find the leg containing x: WaypointX is non-decreasing, so the
	// leg is the one before the first waypoint at or beyond x.
	index := 0
	if i := util.LowerBound(proj.WaypointX, x); i < len(proj.WaypointX) {
		index = max(i-1, 0)
	}
	index = min(index, len(legs.Legs)-1)
	leg := &legs.Legs[index]
	if len(leg.Elevation) == 0 {
		return QueryResult{}, false
	}

	distance := float32(x-SideMargin) / proj.HorizScale

	indexLowDist := 0
	if i := util.LowerBound(leg.Distances, distance); i < len(leg.Distances) {
		indexLowDist = i
	}
	indexUpperDist := 0
	if i := util.UpperBound(leg.Distances, distance); i < len(leg.Distances) {
		indexUpperDist = i
	}

	alt1 := leg.Elevation[indexLowDist].Altitude
	alt2 := leg.Elevation[indexUpperDist].Altitude
	alt := math.Abs(alt1+alt2) / 2

	// Interpolate the map position along the straight line between the
	// leg's endpoints.
	first, last := leg.Elevation[0], leg.Elevation[len(leg.Elevation)-1]
	legDistPart := distance - leg.Distances[0]
	legDist := leg.Distances[len(leg.Distances)-1] - leg.Distances[0]
	pos := first.Point2LL
	if legDist > 0 {
		pos = math.Lerp2LL(legDistPart/legDist, first.Point2LL, last.Point2LL)
	}

	return QueryResult{
		LegIndex:          index,
		From:              legs.Waypoints[index],
		To:                legs.Waypoints[index+1],
		DistanceNM:        distance,
		GroundAltitudeFt:  alt,
		AboveGroundFt:     proj.FlightplanAltFt - alt,
		LegSafeAltitudeFt: SafeAltitudeFt(leg.MaxElevation),
		Position:          pos,
	}, true
}
