// terrain/terrain_test.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"bytes"
	"errors"
	"testing"

	"github.com/akb/navprof/math"
)

// rampGrid gives a 3x3 degree grid where elevation in meters equals
// 100 * (latitude - 40).
func rampGrid() *Grid {
	g := &Grid{
		LatMin:  40,
		LonMin:  -76,
		LatStep: 1,
		LonStep: 1,
		NumLat:  4,
		NumLon:  4,
	}
	g.ElevationsM = make([]float32, g.NumLat*g.NumLon)
	for y := 0; y < g.NumLat; y++ {
		for x := 0; x < g.NumLon; x++ {
			g.ElevationsM[y*g.NumLon+x] = 100 * float32(y)
		}
	}
	return g
}

func TestGridElevationAt(t *testing.T) {
	g := rampGrid()

	tests := []struct {
		name     string
		p        math.Point2LL
		expected float64
		inside   bool
	}{
		{"southwest corner", math.Point2LL{-76, 40}, 0, true},
		{"northeast corner", math.Point2LL{-73, 43}, 300, true},
		{"interpolated latitude", math.Point2LL{-75, 41.5}, 150, true},
		{"outside west", math.Point2LL{-80, 41}, 0, false},
		{"outside north", math.Point2LL{-75, 50}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := g.ElevationAt(tc.p)
			if ok != tc.inside {
				t.Fatalf("inside = %v, expected %v", ok, tc.inside)
			}
			if ok && math.Abs(e-tc.expected) > 0.01 {
				t.Errorf("elevation %v, expected %v", e, tc.expected)
			}
		})
	}
}

func TestGridSaveLoad(t *testing.T) {
	g := rampGrid()

	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadGrid(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.NumLat != g.NumLat || loaded.NumLon != g.NumLon ||
		loaded.LatMin != g.LatMin || loaded.LonMin != g.LonMin {
		t.Errorf("loaded grid header %+v differs from saved %+v", loaded, g)
	}
	for i := range g.ElevationsM {
		if loaded.ElevationsM[i] != g.ElevationsM[i] {
			t.Fatalf("elevation %d: %v, expected %v", i, loaded.ElevationsM[i], g.ElevationsM[i])
		}
	}
}

func TestGridLoadRejectsMismatchedDimensions(t *testing.T) {
	g := rampGrid()
	g.ElevationsM = g.ElevationsM[:len(g.ElevationsM)-1]

	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadGrid(&buf); err == nil {
		t.Errorf("expected error loading grid with mismatched dimensions")
	}
}

func TestGridModelHeightProfile(t *testing.T) {
	m := NewGridModel([]*Grid{rampGrid()}, nil)

	a, b := math.Point2LL{-75, 40.5}, math.Point2LL{-75, 42.5}
	samples, err := m.HeightProfile(a, b)
	if err != nil {
		t.Fatalf("height profile: %v", err)
	}
	if len(samples) < 2 {
		t.Fatalf("got %d samples, expected at least 2", len(samples))
	}
	if samples[0].Position != a || samples[len(samples)-1].Position != b {
		t.Errorf("endpoints not preserved: %v ... %v", samples[0].Position, samples[len(samples)-1].Position)
	}
	// Elevation rises monotonically northbound on the ramp.
	for i := 1; i < len(samples); i++ {
		if samples[i].AltitudeM < samples[i-1].AltitudeM {
			t.Errorf("sample %d: elevation %v dropped below %v", i, samples[i].AltitudeM, samples[i-1].AltitudeM)
		}
	}

	// No coverage at all: empty profile, no error.
	samples, err = m.HeightProfile(math.Point2LL{0, 0}, math.Point2LL{1, 1})
	if err != nil || len(samples) != 0 {
		t.Errorf("expected empty profile outside coverage, got %d samples, err %v", len(samples), err)
	}
}

type emptySampler struct{}

func (emptySampler) HeightProfile(a, b math.Point2LL) ([]Sample, error) {
	return nil, nil
}

type failingSampler struct{}

func (failingSampler) HeightProfile(a, b math.Point2LL) ([]Sample, error) {
	return nil, errors.New("no data")
}

type countingSampler struct {
	calls int
}

func (c *countingSampler) HeightProfile(a, b math.Point2LL) ([]Sample, error) {
	c.calls++
	return []Sample{{Position: a, AltitudeM: 10}, {Position: b, AltitudeM: 20}}, nil
}

func TestAdapterFlatFallback(t *testing.T) {
	a, b := math.Point2LL{-75, 40}, math.Point2LL{-74, 41}

	for _, sampler := range []Sampler{emptySampler{}, failingSampler{}} {
		ad := NewAdapter(sampler, nil)
		s := ad.HeightProfile(a, b)
		if len(s) != 2 {
			t.Fatalf("got %d samples, expected flat 2-point fallback", len(s))
		}
		if s[0].Position != a || s[1].Position != b {
			t.Errorf("fallback endpoints %v/%v, expected %v/%v", s[0].Position, s[1].Position, a, b)
		}
		if s[0].AltitudeM != 0 || s[1].AltitudeM != 0 {
			t.Errorf("fallback altitudes should be sea level, got %v/%v", s[0].AltitudeM, s[1].AltitudeM)
		}
	}
}

func TestAdapterCaching(t *testing.T) {
	sampler := &countingSampler{}
	ad := NewAdapter(sampler, nil)

	a, b := math.Point2LL{-75, 40}, math.Point2LL{-74, 41}
	ad.HeightProfile(a, b)
	ad.HeightProfile(a, b)
	if sampler.calls != 1 {
		t.Errorf("sampler called %d times, expected 1 (cached)", sampler.calls)
	}

	ad.Invalidate()
	ad.HeightProfile(a, b)
	if sampler.calls != 2 {
		t.Errorf("sampler called %d times after invalidation, expected 2", sampler.calls)
	}
}
