// profile/engine.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"sync"
	"time"

	"github.com/akb/navprof/log"
	"github.com/akb/navprof/math"
	"github.com/akb/navprof/route"
	"github.com/akb/navprof/terrain"
	"github.com/akb/navprof/util"
)

// Route changes are coalesced for this long before a recomputation
// starts, so that bursts of edits trigger a single build.
const updateTimeout = time.Second

// Engine owns the route's elevation profile: it debounces change
// notifications, runs at most one background computation at a time, and
// exposes the resulting leg list, its pixel-space projection, and the
// inverse pixel query. All methods are safe to call concurrently.
type Engine struct {
	lg      *log.Logger
	plan    *route.FlightPlan
	sampler *terrain.Adapter
	sub     *route.EventsSubscription

	// Called (from the background goroutine on completion, otherwise
	// from the calling goroutine) whenever visible state changed and
	// the rendering collaborator should redraw. Invoked only after the
	// computation has settled, so the callback may reenter the engine.
	onUpdate func()

	mu      util.LoggingMutex
	legs    ElevationLegList
	proj    ProjectionState
	width   int
	height  int
	visible bool

	showAircraft       bool
	aircraftValid      bool
	aircraftAltFt      float32
	aircraftDistanceNM float32

	highlight      math.Point2LL
	highlightValid bool

	debounce *time.Timer

	// startMu serializes computation starts and teardown so that the
	// single-flight discipline holds: a new computation begins only
	// after the previous one has acknowledged cancellation.
	startMu  sync.Mutex
	runToken *util.AtomicBool
	runDone  chan struct{}
}

// NewEngine creates an engine for the given plan and terrain adapter.
// events may be nil if the host drives the engine directly instead of
// through an event stream; onUpdate may be nil.
func NewEngine(plan *route.FlightPlan, sampler *terrain.Adapter, events *route.EventStream,
	onUpdate func(), lg *log.Logger) *Engine {
	e := &Engine{
		lg:       lg,
		plan:     plan,
		sampler:  sampler,
		onUpdate: onUpdate,
		width:    800,
		height:   300,
	}
	if events != nil {
		e.sub = events.Subscribe()
	}
	return e
}

// ProcessEvents drains the engine's event subscription and reacts to
// route, terrain, and aircraft changes. The host calls this from its
// update loop.
func (e *Engine) ProcessEvents() {
	if e.sub == nil {
		return
	}
	for _, ev := range e.sub.Get() {
		switch ev.Type {
		case route.RouteGeometryChangedEvent:
			e.RouteChanged(true)
		case route.RouteMetadataChangedEvent:
			e.RouteChanged(false)
		case route.TerrainUpdatedEvent:
			e.TerrainUpdated()
		case route.AircraftPositionEvent:
			e.SetAircraft(ev.Position, ev.AltitudeFt)
		}
	}
}

// RouteChanged notifies the engine that the flight plan changed. A
// geometry change schedules a debounced recomputation; a metadata-only
// change just re-projects the existing profile.
func (e *Engine) RouteChanged(geometryChanged bool) {
	e.mu.Lock(e.lg)
	if !e.visible {
		e.mu.Unlock(e.lg)
		return
	}

	if geometryChanged {
		e.lg.Debug("profile route geometry changed")
		e.scheduleLocked(updateTimeout)
		e.mu.Unlock(e.lg)
		return
	}

	e.updateScreenCoordsLocked()
	e.mu.Unlock(e.lg)
	e.notify()
}

// TerrainUpdated notifies the engine that the elevation model has new
// data; cached terrain segments are stale.
func (e *Engine) TerrainUpdated() {
	e.sampler.Invalidate()

	e.mu.Lock(e.lg)
	if !e.visible {
		e.mu.Unlock(e.lg)
		return
	}
	e.lg.Debug("profile terrain updated")
	e.scheduleLocked(updateTimeout)
	e.mu.Unlock(e.lg)
}

// SetVisible reports whether the profile is shown. While hidden, no
// computations are scheduled; on becoming visible a computation starts
// immediately to refresh stale state.
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock(e.lg)
	e.visible = visible
	if visible {
		e.scheduleLocked(0)
	}
	e.mu.Unlock(e.lg)
}

// Resize updates the viewport dimensions and re-projects.
func (e *Engine) Resize(width, height int) {
	e.mu.Lock(e.lg)
	e.width, e.height = width, height
	e.updateScreenCoordsLocked()
	e.mu.Unlock(e.lg)
	e.notify()
}

// SetShowAircraft controls whether the live aircraft participates in
// the projection's vertical scale.
func (e *Engine) SetShowAircraft(show bool) {
	e.mu.Lock(e.lg)
	e.showAircraft = show
	e.updateScreenCoordsLocked()
	e.mu.Unlock(e.lg)
	e.notify()
}

// SetAircraft reports a live aircraft position and altitude in feet.
func (e *Engine) SetAircraft(pos math.Point2LL, altFt float32) {
	if !e.showAircraft || e.plan.IsEmpty() {
		e.ClearAircraft()
		return
	}

	dist, ok := e.plan.DistanceAlongRoute(pos)
	if !ok {
		e.ClearAircraft()
		return
	}

	e.mu.Lock(e.lg)
	e.aircraftValid = true
	e.aircraftAltFt = altFt
	e.aircraftDistanceNM = dist
	// An aircraft above the current axis top forces a rescale.
	if altFt > e.proj.MaxAltitudeFt {
		e.updateScreenCoordsLocked()
	}
	e.mu.Unlock(e.lg)
	e.notify()
}

// ClearAircraft drops the live aircraft state, e.g. after the simulator
// disconnects.
func (e *Engine) ClearAircraft() {
	e.mu.Lock(e.lg)
	wasValid := e.aircraftValid
	e.aircraftValid = false
	e.updateScreenCoordsLocked()
	e.mu.Unlock(e.lg)
	if wasValid {
		e.notify()
	}
}

// Aircraft returns the aircraft's along-route distance and altitude, if
// a valid position has been reported.
func (e *Engine) Aircraft() (distanceNM, altFt float32, ok bool) {
	e.mu.Lock(e.lg)
	defer e.mu.Unlock(e.lg)
	return e.aircraftDistanceNM, e.aircraftAltFt, e.aircraftValid
}

// LegList returns the current profile.
func (e *Engine) LegList() ElevationLegList {
	e.mu.Lock(e.lg)
	defer e.mu.Unlock(e.lg)
	return e.legs
}

// Projection returns the current pixel-space projection.
func (e *Engine) Projection() ProjectionState {
	e.mu.Lock(e.lg)
	defer e.mu.Unlock(e.lg)
	return e.proj
}

// QueryAt answers a hover query at pixel x and records the interpolated
// position as the current map highlight.
func (e *Engine) QueryAt(x int) (QueryResult, bool) {
	e.mu.Lock(e.lg)
	result, ok := Query(&e.legs, &e.proj, x)
	if ok {
		e.highlight, e.highlightValid = result.Position, true
	}
	e.mu.Unlock(e.lg)

	if ok {
		e.notify()
	}
	return result, ok
}

// ClearHighlight resets the hover highlight to the invalid sentinel,
// e.g. when the pointer leaves the profile.
func (e *Engine) ClearHighlight() {
	e.mu.Lock(e.lg)
	wasValid := e.highlightValid
	e.highlight, e.highlightValid = math.Point2LL{}, false
	e.mu.Unlock(e.lg)
	if wasValid {
		e.notify()
	}
}

// Highlight returns the currently highlighted map position, if any.
func (e *Engine) Highlight() (math.Point2LL, bool) {
	e.mu.Lock(e.lg)
	defer e.mu.Unlock(e.lg)
	return e.highlight, e.highlightValid
}

// Refresh runs a computation immediately, superseding any in-flight
// one, and waits for it to settle. It is used at startup and by hosts
// that want synchronous results.
func (e *Engine) Refresh() {
	e.update()

	e.startMu.Lock()
	done := e.runDone
	e.startMu.Unlock()
	if done != nil {
		<-done
	}
}

// Destroy cancels any running computation and waits for it
// synchronously; no background work survives teardown.
func (e *Engine) Destroy() {
	e.mu.Lock(e.lg)
	e.visible = false
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.mu.Unlock(e.lg)

	e.startMu.Lock()
	if e.runDone != nil {
		e.runToken.Store(true)
		<-e.runDone
		e.runDone = nil
	}
	e.startMu.Unlock()

	if e.sub != nil {
		e.sub.Unsubscribe()
		e.sub = nil
	}
}

// scheduleLocked (re)arms the debounce timer; e.mu must be held.
// Repeated triggers while scheduled restart the delay so that bursts
// coalesce into a single computation.
func (e *Engine) scheduleLocked(delay time.Duration) {
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.debounce = time.AfterFunc(delay, e.update)
}

// update supersedes any in-flight computation and starts a new one for
// the current route snapshot.
func (e *Engine) update() {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	// Single-flight: request cancellation and wait for the previous
	// computation to observably stop before starting the next.
	if e.runDone != nil {
		e.runToken.Store(true)
		<-e.runDone
		e.runDone = nil
	}

	e.mu.Lock(e.lg)
	visible := e.visible
	e.mu.Unlock(e.lg)
	if !visible {
		return
	}

	token := &util.AtomicBool{}
	done := make(chan struct{})
	e.runToken, e.runDone = token, done

	snapshot := e.plan.Snapshot()

	go func() {
		legs, ok := BuildLegList(snapshot, e.sampler, token, e.lg)
		if !ok || token.Load() {
			// Superseded or shutting down; the result must not reach
			// consumers.
			e.lg.Debug("profile computation cancelled")
			close(done)
			return
		}

		e.mu.Lock(e.lg)
		if !e.visible {
			// Hidden since the computation started; discard the result.
			// Becoming visible again schedules a fresh one.
			e.mu.Unlock(e.lg)
			close(done)
			return
		}
		e.legs = legs
		e.updateScreenCoordsLocked()
		e.mu.Unlock(e.lg)

		// Close before notifying so that the callback may safely reenter
		// the engine, including Refresh.
		close(done)
		e.notify()
	}()
}

// updateScreenCoordsLocked recomputes the projection from the current
// profile and viewport; e.mu must be held.
func (e *Engine) updateScreenCoordsLocked() {
	aircraftValid := e.aircraftValid && e.showAircraft && !e.plan.IsEmpty()
	e.proj = Project(&e.legs, e.width, e.height, e.plan.CruiseAltitude(),
		e.aircraftAltFt, aircraftValid)
}

func (e *Engine) notify() {
	if e.onUpdate != nil {
		e.onUpdate()
	}
}
