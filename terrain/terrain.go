// terrain/terrain.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"time"

	"github.com/akb/navprof/log"
	"github.com/akb/navprof/math"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Sample is a single elevation measurement along a sampled line.
// Altitude is in meters, matching what elevation models generally
// provide; the profile engine converts to feet.
type Sample struct {
	Position  math.Point2LL
	AltitudeM float64
}

// Sampler is the interface to an elevation data source: given two
// points, it returns an ordered sequence of elevation samples between
// them. A Sampler may legitimately return an empty slice when it has no
// coverage for the segment. Implementations must be safe for concurrent
// use; the profile engine calls them from a background goroutine while
// the foreground mutates the route.
type Sampler interface {
	HeightProfile(a, b math.Point2LL) ([]Sample, error)
}

// Adapter wraps a Sampler with the contract the profile engine needs:
// it never fails and never returns fewer than two samples, substituting
// a flat sea-level profile when the underlying source has nothing, and
// it caches recently sampled segments.
type Adapter struct {
	sampler Sampler
	cache   *expirable.LRU[segmentKey, []Sample]
	lg      *log.Logger
}

type segmentKey struct {
	a, b math.Point2LL
}

func NewAdapter(sampler Sampler, lg *log.Logger) *Adapter {
	return &Adapter{
		sampler: sampler,
		cache:   expirable.NewLRU[segmentKey, []Sample](256, nil, 15*time.Minute),
		lg:      lg,
	}
}

// HeightProfile returns the elevation samples between a and b, always at
// least the two endpoints.
func (ad *Adapter) HeightProfile(a, b math.Point2LL) []Sample {
	key := segmentKey{a, b}
	if s, ok := ad.cache.Get(key); ok {
		return s
	}

	s, err := ad.sampler.HeightProfile(a, b)
	if err != nil {
		ad.lg.Warnf("height profile %s - %s: %v", a.DDString(), b.DDString(), err)
		s = nil
	}
	if len(s) == 0 {
		// Workaround for missing elevation coverage: substitute a flat
		// two-point segment at sea level.
		s = []Sample{{Position: a}, {Position: b}}
	}

	ad.cache.Add(key, s)
	return s
}

// Invalidate drops all cached segments; call when the underlying model
// has new data.
func (ad *Adapter) Invalidate() {
	ad.cache.Purge()
}
