// route/flightplan.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package route

import (
	"sync"

	"github.com/akb/navprof/math"

	"github.com/brunoga/deep"
)

// WaypointType tags a route waypoint with the kind of map object it
// refers to so that consumers (symbol drawing, label formatting) can
// branch on it without this package knowing anything about rendering.
type WaypointType int

const (
	TypeInvalid WaypointType = iota
	TypeAirport
	TypeVOR
	TypeNDB
	TypeWaypoint
	TypeUser
)

func (t WaypointType) String() string {
	return []string{"Invalid", "Airport", "VOR", "NDB", "Waypoint", "User"}[t]
}

// Waypoint is one entry of a flight plan: an identifier, its kind, its
// position, and the planned altitude at it in feet.
type Waypoint struct {
	Ident    string
	Type     WaypointType
	Position math.Point2LL
	Altitude float32
}

// FlightPlan is the live, mutable route. All accessors are safe to call
// concurrently; background computations must work from Snapshot() rather
// than holding references into the plan.
type FlightPlan struct {
	mu             sync.Mutex
	waypoints      []Waypoint
	cruiseAltitude float32
	events         *EventStream
}

func NewFlightPlan(events *EventStream) *FlightPlan {
	return &FlightPlan{events: events}
}

// SetWaypoints replaces the route geometry and notifies subscribers.
func (fp *FlightPlan) SetWaypoints(wps []Waypoint) {
	fp.mu.Lock()
	fp.waypoints = deep.MustCopy(wps)
	fp.mu.Unlock()

	fp.events.Post(Event{Type: RouteGeometryChangedEvent})
}

// SetCruiseAltitude updates the planned cruise altitude in feet. This is
// a metadata-only change; the terrain profile itself is unaffected.
func (fp *FlightPlan) SetCruiseAltitude(alt float32) {
	fp.mu.Lock()
	fp.cruiseAltitude = alt
	fp.mu.Unlock()

	fp.events.Post(Event{Type: RouteMetadataChangedEvent})
}

func (fp *FlightPlan) CruiseAltitude() float32 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.cruiseAltitude
}

func (fp *FlightPlan) IsEmpty() bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.waypoints) == 0
}

func (fp *FlightPlan) NumWaypoints() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.waypoints)
}

// Snapshot returns a deep copy of the route waypoints; the copy is taken
// so that a background computation never races with concurrent mutation
// of the live plan.
func (fp *FlightPlan) Snapshot() []Waypoint {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return deep.MustCopy(fp.waypoints)
}

// NearestLegIndex returns the index of the waypoint that ends the leg
// closest to the given position, or -1 for an empty plan. Index 0 is
// returned for a single-waypoint plan with no legs.
func (fp *FlightPlan) NearestLegIndex(pos math.Point2LL) int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.nearestLegIndexLocked(pos)
}

func (fp *FlightPlan) nearestLegIndexLocked(pos math.Point2LL) int {
	if len(fp.waypoints) == 0 {
		return -1
	}

	index, nearest := 0, float32(0)
	for i := 1; i < len(fp.waypoints); i++ {
		q := math.ClosestPointOnSegment2LL(pos, fp.waypoints[i-1].Position,
			fp.waypoints[i].Position)
		if d := math.NMDistance2LL(q, pos); i == 1 || d < nearest {
			index, nearest = i, d
		}
	}
	return index
}

// DistanceAlongRoute estimates how far along the route, in nautical
// miles, the given position is: the cumulative distance through the
// waypoint ending the nearest leg, less the direct distance from the
// position forward to that waypoint. It returns false for an empty plan.
func (fp *FlightPlan) DistanceAlongRoute(pos math.Point2LL) (float32, bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	index := fp.nearestLegIndexLocked(pos)
	if index == -1 {
		return 0, false
	}

	var dist float32
	for i := 1; i <= index && i < len(fp.waypoints); i++ {
		dist += math.NMDistance2LL(fp.waypoints[i-1].Position, fp.waypoints[i].Position)
	}
	dist -= math.NMDistance2LL(fp.waypoints[index].Position, pos)
	return dist, true
}
