// profile/profile_test.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"reflect"
	"testing"

	"github.com/akb/navprof/math"
	"github.com/akb/navprof/route"
	"github.com/akb/navprof/terrain"
	"github.com/akb/navprof/util"
)

type samplerFunc func(a, b math.Point2LL) []terrain.Sample

func (f samplerFunc) HeightProfile(a, b math.Point2LL) ([]terrain.Sample, error) {
	return f(a, b), nil
}

// levelSampler returns n samples at a fixed elevation, evenly spaced
// between the endpoints.
func levelSampler(n int, altM float64) samplerFunc {
	return func(a, b math.Point2LL) []terrain.Sample {
		samples := make([]terrain.Sample, n)
		for i := 0; i < n; i++ {
			samples[i] = terrain.Sample{
				Position:  math.Lerp2LL(float32(i)/float32(n-1), a, b),
				AltitudeM: altM,
			}
		}
		return samples
	}
}

// testRoute returns numWaypoints waypoints spaced half a degree of
// longitude apart along the 40N parallel.
func testRoute(numWaypoints int) []route.Waypoint {
	wps := make([]route.Waypoint, numWaypoints)
	for i := range wps {
		wps[i] = route.Waypoint{
			Ident:    string(rune('A' + i)),
			Type:     route.TypeWaypoint,
			Position: math.Point2LL{-75 + float32(i)*0.5, 40},
		}
	}
	return wps
}

func buildList(t *testing.T, wps []route.Waypoint, sampler terrain.Sampler) ElevationLegList {
	t.Helper()
	legs, ok := BuildLegList(wps, terrain.NewAdapter(sampler, nil), &util.AtomicBool{}, nil)
	if !ok {
		t.Fatalf("build unexpectedly cancelled")
	}
	return legs
}

func TestBuildLegListStructure(t *testing.T) {
	wps := testRoute(4)
	legs := buildList(t, wps, levelSampler(10, 100))

	if len(legs.Legs) != len(wps)-1 {
		t.Fatalf("got %d legs for %d waypoints, expected %d", len(legs.Legs), len(wps), len(wps)-1)
	}
	if len(legs.Waypoints) != len(wps) {
		t.Errorf("waypoint snapshot has %d entries, expected %d", len(legs.Waypoints), len(wps))
	}

	points := 0
	for i, leg := range legs.Legs {
		if len(leg.Elevation) != len(leg.Distances) {
			t.Errorf("leg %d: %d elevations but %d distances", i, len(leg.Elevation), len(leg.Distances))
		}
		for j := 1; j < len(leg.Distances); j++ {
			if leg.Distances[j] < leg.Distances[j-1] {
				t.Errorf("leg %d: distance %v decreased from %v", i, leg.Distances[j], leg.Distances[j-1])
			}
		}
		points += len(leg.Elevation)
	}
	if points != legs.TotalNumPoints {
		t.Errorf("TotalNumPoints %d, expected %d", legs.TotalNumPoints, points)
	}

	// The final cumulative distance is the route's total distance.
	last := legs.Legs[len(legs.Legs)-1]
	if d := last.Distances[len(last.Distances)-1]; math.Abs(d-legs.TotalDistance) > 0.001 {
		t.Errorf("final cumulative distance %v, total %v", d, legs.TotalDistance)
	}

	// Leg boundaries are shared: each leg starts at the previous leg's
	// cumulative end distance.
	for i := 1; i < len(legs.Legs); i++ {
		prev := legs.Legs[i-1]
		if legs.Legs[i].Distances[0] != prev.Distances[len(prev.Distances)-1] {
			t.Errorf("leg %d does not start where leg %d ends", i, i-1)
		}
	}
}

func TestThinningPreservesBoundaries(t *testing.T) {
	// Constant elevation: once thinning activates every interior sample
	// is within tolerance of the last retained one.
	legs := buildList(t, testRoute(5), levelSampler(10, 100))

	for i, leg := range legs.Legs {
		if first := leg.Elevation[0].Point2LL; first != legs.Waypoints[i].Position {
			t.Errorf("leg %d first sample at %v, expected waypoint %v", i, first, legs.Waypoints[i].Position)
		}
		n := len(leg.Elevation)
		if last := leg.Elevation[n-1].Point2LL; last != legs.Waypoints[i+1].Position {
			t.Errorf("leg %d last sample at %v, expected waypoint %v", i, last, legs.Waypoints[i+1].Position)
		}

		if i < thinningLegThreshold {
			if n != 10 {
				t.Errorf("leg %d: %d samples retained, expected all 10 before thinning activates", i, n)
			}
		} else if n != 2 {
			t.Errorf("leg %d: %d samples retained, expected only the segment boundaries", i, n)
		}
	}
}

func TestThinningKeepsSignificantAltitudeChanges(t *testing.T) {
	// Elevation alternates by ~33 ft (10 m), well past the 10 ft
	// tolerance, so nothing may be dropped even with thinning active.
	alternating := samplerFunc(func(a, b math.Point2LL) []terrain.Sample {
		samples := make([]terrain.Sample, 8)
		for i := range samples {
			samples[i] = terrain.Sample{
				Position:  math.Lerp2LL(float32(i)/7, a, b),
				AltitudeM: float64(10 * (i % 2)),
			}
		}
		return samples
	})

	legs := buildList(t, testRoute(5), alternating)
	for i, leg := range legs.Legs {
		if len(leg.Elevation) != 8 {
			t.Errorf("leg %d: %d samples retained, expected all 8", i, len(leg.Elevation))
		}
	}
}

func TestMaxElevations(t *testing.T) {
	peakLeg := 1
	call := 0
	sampler := samplerFunc(func(a, b math.Point2LL) []terrain.Sample {
		altM := 100.0
		if call == peakLeg {
			altM = 1000
		}
		call++
		samples := levelSampler(5, altM)(a, b)
		return samples
	})

	legs := buildList(t, testRoute(4), sampler)

	var maxLeg float32
	for _, leg := range legs.Legs {
		if leg.MaxElevation > maxLeg {
			maxLeg = leg.MaxElevation
		}
	}
	if legs.MaxRouteElevation != maxLeg {
		t.Errorf("MaxRouteElevation %v, expected max over legs %v", legs.MaxRouteElevation, maxLeg)
	}
	if expected := float32(1000 * math.MetersToFeet); math.Abs(legs.MaxRouteElevation-expected) > 0.5 {
		t.Errorf("MaxRouteElevation %v, expected about %v", legs.MaxRouteElevation, expected)
	}
}

func TestDegenerateRoutes(t *testing.T) {
	for _, n := range []int{0, 1} {
		legs := buildList(t, testRoute(n), levelSampler(10, 100))
		if len(legs.Legs) != 0 || legs.TotalDistance != 0 || legs.TotalNumPoints != 0 ||
			legs.MaxRouteElevation != 0 {
			t.Errorf("%d waypoints: expected empty list with zero totals, got %+v", n, legs)
		}
		if !legs.IsEmpty() {
			t.Errorf("%d waypoints: list should report empty", n)
		}
	}
}

func TestBuildIdempotence(t *testing.T) {
	wps := testRoute(4)
	sampler := terrain.NewAdapter(levelSampler(10, 100), nil)

	a, okA := BuildLegList(wps, sampler, &util.AtomicBool{}, nil)
	b, okB := BuildLegList(wps, sampler, &util.AtomicBool{}, nil)
	if !okA || !okB {
		t.Fatalf("build unexpectedly cancelled")
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two builds of the same snapshot differ")
	}
}

func TestBuildCancellation(t *testing.T) {
	token := &util.AtomicBool{}
	token.Store(true)

	legs, ok := BuildLegList(testRoute(4), terrain.NewAdapter(levelSampler(10, 100), nil), token, nil)
	if ok {
		t.Errorf("expected cancelled build to report ok=false")
	}
	if len(legs.Legs) != 0 || len(legs.Waypoints) != 0 {
		t.Errorf("cancelled build returned non-empty result: %+v", legs)
	}
}

func TestBuildCancellationMidFlight(t *testing.T) {
	token := &util.AtomicBool{}

	// Cancel from within the sampler, partway through the route.
	calls := 0
	sampler := samplerFunc(func(a, b math.Point2LL) []terrain.Sample {
		calls++
		if calls == 2 {
			token.Store(true)
		}
		return levelSampler(10, 100)(a, b)
	})

	legs, ok := BuildLegList(testRoute(5), terrain.NewAdapter(sampler, nil), token, nil)
	if ok {
		t.Errorf("expected mid-flight cancellation to report ok=false")
	}
	if len(legs.Legs) != 0 {
		t.Errorf("cancelled build leaked %d partial legs", len(legs.Legs))
	}
	if calls > 2 {
		t.Errorf("sampler called %d times after cancellation", calls)
	}
}

func TestSafeAltitudeFt(t *testing.T) {
	tests := []struct {
		maxElevation, expected float32
	}{
		{0, 1000},
		{10500, 11500},
		{1, 1500},
		{499, 1500},
		{500, 1500},
		{501, 2000},
	}
	for _, tc := range tests {
		if got := SafeAltitudeFt(tc.maxElevation); got != tc.expected {
			t.Errorf("SafeAltitudeFt(%v) = %v, expected %v", tc.maxElevation, got, tc.expected)
		}
	}
}
