// terrain/grid.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"fmt"
	"io"
	"os"

	"github.com/akb/navprof/log"
	"github.com/akb/navprof/math"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// GridFileExtension is the suffix for stored elevation grids
// (msgpack-encoded Grid, compressed with zstd).
const GridFileExtension = ".msgpack.zst"

// Grid is a regularly spaced elevation raster covering a lat-long
// rectangle. Elevations are stored row-major, south to north, west to
// east, in meters.
type Grid struct {
	LatMin      float32   `msgpack:"lat_min"`
	LonMin      float32   `msgpack:"lon_min"`
	LatStep     float32   `msgpack:"lat_step"`
	LonStep     float32   `msgpack:"lon_step"`
	NumLat      int       `msgpack:"num_lat"`
	NumLon      int       `msgpack:"num_lon"`
	ElevationsM []float32 `msgpack:"elevations_m"`
}

func (g *Grid) validate() error {
	if g.NumLat < 2 || g.NumLon < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", g.NumLat, g.NumLon)
	}
	if g.LatStep <= 0 || g.LonStep <= 0 {
		return fmt.Errorf("grid steps must be positive, got %v/%v", g.LatStep, g.LonStep)
	}
	if n := g.NumLat * g.NumLon; n != len(g.ElevationsM) {
		return fmt.Errorf("grid dimensions %dx%d don't match %d elevations",
			g.NumLat, g.NumLon, len(g.ElevationsM))
	}
	return nil
}

func (g *Grid) Contains(p math.Point2LL) bool {
	return p.Latitude() >= g.LatMin && p.Latitude() <= g.LatMin+float32(g.NumLat-1)*g.LatStep &&
		p.Longitude() >= g.LonMin && p.Longitude() <= g.LonMin+float32(g.NumLon-1)*g.LonStep
}

// ElevationAt returns the bilinearly interpolated elevation in meters at
// p and whether p is inside the grid's coverage.
func (g *Grid) ElevationAt(p math.Point2LL) (float64, bool) {
	if !g.Contains(p) {
		return 0, false
	}

	fy := (p.Latitude() - g.LatMin) / g.LatStep
	fx := (p.Longitude() - g.LonMin) / g.LonStep
	iy := math.Clamp(int(fy), 0, g.NumLat-2)
	ix := math.Clamp(int(fx), 0, g.NumLon-2)
	dy, dx := fy-float32(iy), fx-float32(ix)

	e := func(y, x int) float32 { return g.ElevationsM[y*g.NumLon+x] }
	south := math.Lerp(dx, e(iy, ix), e(iy, ix+1))
	north := math.Lerp(dx, e(iy+1, ix), e(iy+1, ix+1))
	return float64(math.Lerp(dy, south, north)), true
}

// spacingNM returns the finer of the grid's two axis spacings, expressed
// in nautical miles; it bounds how densely the grid is worth sampling.
func (g *Grid) spacingNM() float32 {
	latNM := g.LatStep * math.NMPerLatitude
	lonNM := g.LonStep * math.NMPerLatitude * math.Cos(math.Radians(g.LatMin))
	return min(latNM, math.Abs(lonNM))
}

// LoadGrid reads a zstd-compressed msgpack Grid.
func LoadGrid(r io.Reader) (*Grid, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var g Grid
	if err := msgpack.NewDecoder(zr).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode grid: %w", err)
	}
	if err := g.validate(); err != nil {
		return nil, err
	}

	return &g, nil
}

// Save writes the grid in the standard format (msgpack + zstd
// compression).
func (g *Grid) Save(w io.Writer) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := msgpack.NewEncoder(zw).Encode(g); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode grid: %w", err)
	}

	return zw.Close()
}

///////////////////////////////////////////////////////////////////////////
// GridModel

// GridModel implements Sampler over a set of elevation grids, stepping
// along each requested segment at roughly the resolution of the
// underlying rasters.
type GridModel struct {
	grids []*Grid
	lg    *log.Logger
}

// Bounds on how many samples a single segment yields, regardless of grid
// resolution or segment length.
const minSegmentSamples = 2
const maxSegmentSamples = 4096

func NewGridModel(grids []*Grid, lg *log.Logger) *GridModel {
	return &GridModel{grids: grids, lg: lg}
}

// LoadGridModel reads all of the given grid files concurrently.
func LoadGridModel(paths []string, lg *log.Logger) (*GridModel, error) {
	grids := make([]*Grid, len(paths))

	var eg errgroup.Group
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			g, err := LoadGrid(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			grids[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return NewGridModel(grids, lg), nil
}

func (m *GridModel) elevationAt(p math.Point2LL) (float64, bool) {
	for _, g := range m.grids {
		if e, ok := g.ElevationAt(p); ok {
			return e, true
		}
	}
	return 0, false
}

// HeightProfile samples the straight lat-long segment from a to b.
// Returns an empty profile when no grid covers any of the segment, which
// the Adapter then turns into the flat fallback.
func (m *GridModel) HeightProfile(a, b math.Point2LL) ([]Sample, error) {
	// Coverage check at the endpoints and midpoint; a segment entirely
	// outside the loaded rasters has no profile.
	covered := false
	for _, p := range []math.Point2LL{a, math.Mid2LL(a, b), b} {
		if _, ok := m.elevationAt(p); ok {
			covered = true
			break
		}
	}
	if !covered {
		return nil, nil
	}

	step := float32(1) // nm, for the degenerate no-grid case
	for i, g := range m.grids {
		if s := g.spacingNM(); i == 0 || s < step {
			step = s
		}
	}

	dist := math.NMDistance2LL(a, b)
	n := math.Clamp(int(dist/step)+1, minSegmentSamples, maxSegmentSamples)

	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		p := math.Lerp2LL(float32(i)/float32(n-1), a, b)
		alt, _ := m.elevationAt(p) // uncovered points sample as sea level
		samples[i] = Sample{Position: p, AltitudeM: alt}
	}
	return samples, nil
}
