// profile/screen.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"github.com/akb/navprof/math"
)

// Pixel margins around the drawable profile region: SideMargin on the
// left and right, TopMargin above.
const SideMargin = 65
const TopMargin = 14

// Pixel-space points closer than this Manhattan distance to the
// previously emitted polygon vertex are skipped.
const polygonThinningPx = 2

// ProjectionState is the pixel-space rendering of a profile for a given
// viewport: the terrain silhouette polygon, one x coordinate per
// waypoint plus a right-edge sentinel, and the scales and reference
// altitudes the rendering and query layers need. Valid is false when
// there is nothing to draw and the consumer should render a placeholder.
type ProjectionState struct {
	Valid         bool
	Width, Height int

	VertScale  float32 // pixels per foot
	HorizScale float32 // pixels per nautical mile

	Polygon   [][2]int
	WaypointX []int

	// Highest route terrain elevation plus the safety buffer, rounded
	// up to the next 500 ft.
	MaxRouteElevationFt float32
	FlightplanAltFt     float32
	// Top of the altitude axis: the maximum of the buffered terrain
	// elevation, the cruise altitude, and the aircraft altitude when
	// one is shown.
	MaxAltitudeFt float32
}

// Project maps the profile into pixel space for a width x height
// viewport. aircraftAltFt participates in the vertical scale only when
// aircraftValid is true.
func Project(legs *ElevationLegList, width, height int, cruiseAltFt float32,
	aircraftAltFt float32, aircraftValid bool) ProjectionState {
	w, h := width-2*SideMargin, height-TopMargin

	proj := ProjectionState{
		Width:               width,
		Height:              height,
		MaxRouteElevationFt: SafeAltitudeFt(legs.MaxRouteElevation),
		FlightplanAltFt:     cruiseAltFt,
	}

	proj.MaxAltitudeFt = max(proj.MaxRouteElevationFt, cruiseAltFt)
	if aircraftValid {
		proj.MaxAltitudeFt = max(proj.MaxAltitudeFt, aircraftAltFt)
	}

	if legs.IsEmpty() || legs.TotalDistance <= 0 || w <= 0 || h <= 0 || proj.MaxAltitudeFt <= 0 {
		return proj
	}
	proj.Valid = true

	proj.VertScale = float32(h) / proj.MaxAltitudeFt
	proj.HorizScale = float32(w) / legs.TotalDistance

	// The polygon is anchored at the bottom corners of the drawable
	// region so that the terrain silhouette closes.
	proj.Polygon = append(proj.Polygon, [2]int{SideMargin, h + TopMargin})

	for _, leg := range legs.Legs {
		proj.WaypointX = append(proj.WaypointX, SideMargin+int(leg.Distances[0]*proj.HorizScale))

		var lastPt [2]int
		havePt := false
		for i, pos := range leg.Elevation {
			pt := [2]int{
				SideMargin + int(leg.Distances[i]*proj.HorizScale),
				TopMargin + int(float32(h)-pos.Altitude*proj.VertScale),
			}

			if !havePt || i == len(leg.Elevation)-1 ||
				math.Abs(pt[0]-lastPt[0])+math.Abs(pt[1]-lastPt[1]) > polygonThinningPx {
				proj.Polygon = append(proj.Polygon, pt)
				lastPt, havePt = pt, true
			}
		}
	}

	proj.WaypointX = append(proj.WaypointX, SideMargin+w)
	proj.Polygon = append(proj.Polygon, [2]int{SideMargin + w, h + TopMargin})

	return proj
}
