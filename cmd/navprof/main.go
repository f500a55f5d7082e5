// cmd/navprof/main.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// navprof computes the terrain elevation profile along a flight plan
// and prints the per-leg and route-wide results, plus the projected
// screen-space geometry for the given viewport.
//
// Usage: navprof -plan plan.json [-grid dem.msgpack.zst]...

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/akb/navprof/log"
	"github.com/akb/navprof/math"
	"github.com/akb/navprof/profile"
	"github.com/akb/navprof/route"
	"github.com/akb/navprof/terrain"
	"github.com/akb/navprof/util"
)

var (
	planFilename = flag.String("plan", "", "filename of JSON file with the flight plan")
	width        = flag.Int("width", 800, "viewport width in pixels")
	height       = flag.Int("height", 300, "viewport height in pixels")
	queryX       = flag.Int("query", -1, "pixel x coordinate to query in the projected profile")
	logLevel     = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "log file directory")
)

// gridFlags collects repeated -grid arguments.
type gridFlags []string

func (g *gridFlags) String() string { return strings.Join(*g, ",") }
func (g *gridFlags) Set(s string) error {
	*g = append(*g, s)
	return nil
}

// planFile is the on-disk flight plan representation.
type planFile struct {
	CruiseAltitudeFt float32        `json:"cruise_altitude_ft"`
	Waypoints        []planWaypoint `json:"waypoints"`
}

type planWaypoint struct {
	Ident      string  `json:"ident"`
	Type       string  `json:"type"`
	Latitude   float32 `json:"lat"`
	Longitude  float32 `json:"lon"`
	AltitudeFt float32 `json:"altitude_ft"`
}

var waypointTypes = map[string]route.WaypointType{
	"AIRPORT": route.TypeAirport,
	"VOR":     route.TypeVOR,
	"NDB":     route.TypeNDB,
	"USER":    route.TypeUser,
}

func (w planWaypoint) toWaypoint() route.Waypoint {
	ty, ok := waypointTypes[strings.ToUpper(w.Type)]
	return route.Waypoint{
		Ident:    w.Ident,
		Type:     util.Select(ok, ty, route.TypeWaypoint),
		Position: math.Point2LL{w.Longitude, w.Latitude},
		Altitude: w.AltitudeFt,
	}
}

func loadPlan(path string) (*planFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf planFile
	if err := json.Unmarshal(b, &pf); err != nil {
		return nil, err
	}
	if len(pf.Waypoints) < 2 {
		return nil, fmt.Errorf("%s: flight plan needs at least two waypoints", path)
	}
	return &pf, nil
}

func main() {
	var gridFilenames gridFlags
	flag.Var(&gridFilenames, "grid", "filename of a compressed elevation grid (repeatable); none for flat terrain")
	flag.Parse()

	if *planFilename == "" {
		fmt.Fprintf(os.Stderr, "usage: navprof -plan plan.json [flags]\nwhere [flags] may be:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	lg := log.New(*logLevel, *logDir)

	pf, err := loadPlan(*planFilename)
	if err != nil {
		lg.Errorf("%s: %v", *planFilename, err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", *planFilename, err)
		os.Exit(1)
	}

	model, err := terrain.LoadGridModel(gridFilenames, lg)
	if err != nil {
		lg.Errorf("loading elevation grids: %v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	events := route.NewEventStream(lg)
	defer events.Destroy()

	plan := route.NewFlightPlan(events)
	plan.SetWaypoints(util.MapSlice(pf.Waypoints, planWaypoint.toWaypoint))
	plan.SetCruiseAltitude(pf.CruiseAltitudeFt)

	engine := profile.NewEngine(plan, terrain.NewAdapter(model, lg), events, nil, lg)
	defer engine.Destroy()

	engine.Resize(*width, *height)
	engine.SetVisible(true)
	engine.Refresh()

	legs := engine.LegList()
	if legs.IsEmpty() {
		fmt.Fprintf(os.Stderr, "no elevation profile could be computed\n")
		os.Exit(1)
	}

	fmt.Printf("route: %d waypoints, %.1f nm, max elevation %.0f ft, safe altitude %.0f ft\n",
		len(legs.Waypoints), legs.TotalDistance, legs.MaxRouteElevation,
		profile.SafeAltitudeFt(legs.MaxRouteElevation))
	for i, leg := range legs.Legs {
		from, to := legs.Waypoints[i], legs.Waypoints[i+1]
		d0, d1 := leg.Distances[0], leg.Distances[len(leg.Distances)-1]
		fmt.Printf("  %-5s -> %-5s  %6.1f nm  %4d points  max %6.0f ft  safe %6.0f ft\n",
			from.Ident, to.Ident, d1-d0, len(leg.Elevation), leg.MaxElevation,
			profile.SafeAltitudeFt(leg.MaxElevation))
	}

	proj := engine.Projection()
	if proj.Valid {
		fmt.Printf("projection: %dx%d px, axis top %.0f ft, %.2f px/nm, %.4f px/ft, %d polygon points\n",
			proj.Width, proj.Height, proj.MaxAltitudeFt, proj.HorizScale, proj.VertScale,
			len(proj.Polygon))
	}

	if *queryX >= 0 {
		if r, ok := engine.QueryAt(*queryX); ok {
			fmt.Printf("query x=%d: leg %s -> %s, %.1f nm, ground %.0f ft, %.0f ft AGL, leg safe %.0f ft, at %s\n",
				*queryX, r.From.Ident, r.To.Ident, r.DistanceNM, r.GroundAltitudeFt,
				r.AboveGroundFt, r.LegSafeAltitudeFt, r.Position.DDString())
		}
	}
}
