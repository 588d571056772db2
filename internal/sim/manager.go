package sim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatch-sim/internal/checkpoint"
	"dispatch-sim/internal/geo"
	mmetrics "dispatch-sim/internal/metrics"
	"dispatch-sim/internal/model"
	"dispatch-sim/internal/proximity"
)

// PositionPublisher receives the ambulance position on every step.
type PositionPublisher interface {
	PublishPosition(routeID string, idx, total int, p geo.Point) error
}

// ManagerConfig bundles the manager's collaborators and tunables. Publisher,
// Sink, Metrics and the callbacks may be nil.
type ManagerConfig struct {
	// BaseContext bounds the lifetime of every driver the manager starts.
	// Dispatch is fire-and-forget: drivers must outlive the caller, so they
	// are parented here, never to a request context. Nil means Background.
	BaseContext     context.Context
	Generator       *checkpoint.Generator
	Clock           Clock
	MinStep         time.Duration
	MaxStep         time.Duration
	RefreshInterval time.Duration
	PrepSteps       int
	Publisher       PositionPublisher
	Sink            proximity.Sink
	Metrics         *mmetrics.Collector
	Signals         []model.TrafficSignal
	OnPosition      func(p geo.Point)
	OnStatus        func(id string, status model.Status)
}

// Manager owns at most one in-flight dispatch. Selecting a new hospital fully
// cancels the previous drivers before the next route starts, so only one
// driver ever mutates the position and notification stream.
type Manager struct {
	cfg ManagerConfig

	// dispatchMu serializes whole Dispatch calls: stop the old drivers,
	// swap the fields, start the new ones. Without it two concurrent
	// dispatches can leave both simulations running.
	dispatchMu sync.Mutex

	lifeCtx  context.Context
	lifeStop context.CancelFunc

	mu     sync.Mutex
	driver *Driver
	prep   *PrepDriver
	route  *checkpoint.Route // latest refreshed snapshot

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Generator == nil {
		cfg.Generator = checkpoint.NewGenerator(0, nil, nil, nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	base := cfg.BaseContext
	if base == nil {
		base = context.Background()
	}
	m := &Manager{cfg: cfg}
	m.lifeCtx, m.lifeStop = context.WithCancel(base)
	return m
}

// Dispatch cancels any in-flight simulation, builds the checkpoint route for
// the selected hospital and starts the route and preparation drivers. The
// drivers run under the manager's lifetime context and keep stepping after
// Dispatch returns.
func (m *Manager) Dispatch(patient geo.Point, hosp model.Hospital) (*checkpoint.Route, error) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	if err := m.lifeCtx.Err(); err != nil {
		return nil, fmt.Errorf("manager stopped: %w", err)
	}

	// The generator's random source is not safe for concurrent use; all
	// Generate/Refresh calls go through m.mu.
	m.mu.Lock()
	route, err := m.cfg.Generator.Generate(patient, hosp)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("generate checkpoint route: %w", err)
	}

	m.stopCurrent()

	engine := proximity.NewEngine(m.cfg.Sink,
		proximity.WithClock(m.cfg.Clock.Now),
		proximity.WithStatusCallback(m.statusChanged),
		proximity.WithCompletionCallback(func() {
			log.Printf("route %s complete, all points of interest passed", route.ID)
		}),
	)
	for _, s := range m.cfg.Signals {
		engine.Track(s.ID, s.Label, model.TargetSignal, s.Location)
	}
	engine.Track(hosp.ID, hosp.Name, model.TargetHospital, hosp.Location)

	waypoints := route.Waypoints()
	driver := NewDriver(DriverConfig{
		Clock:   m.cfg.Clock,
		MinStep: m.cfg.MinStep,
		MaxStep: m.cfg.MaxStep,
		Engine:  engine,
		Publish: func(idx int, p geo.Point) {
			m.publishPosition(route.ID, idx, len(waypoints), p)
		},
		OnDone: func() {
			if m.cfg.Metrics != nil {
				m.cfg.Metrics.DispatchesFinished.Inc()
				m.cfg.Metrics.ActiveDispatches.Set(0)
			}
		},
	})

	prep := NewPrepDriver(m.cfg.Clock, func(percent int, msg string) {
		m.emitPrep(hosp, percent, msg)
	})

	m.mu.Lock()
	m.driver = driver
	m.prep = prep
	m.route = route
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.DispatchesStarted.Inc()
		m.cfg.Metrics.ActiveDispatches.Set(1)
	}
	log.Printf("dispatching route %s to %s: %.1f km, %d checkpoints",
		route.ID, hosp.Name, route.TotalKm, len(route.Checkpoints))

	driver.Start(m.lifeCtx, waypoints)
	prep.Start(m.lifeCtx, time.Duration(route.EmergencyMinutes*float64(time.Minute)), m.cfg.PrepSteps)
	return route, nil
}

func (m *Manager) publishPosition(routeID string, idx, total int, p geo.Point) {
	if m.cfg.OnPosition != nil {
		m.cfg.OnPosition(p)
	}
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.StepsTotal.Inc()
	}
	if m.cfg.Publisher == nil {
		return
	}
	start := time.Now()
	err := m.cfg.Publisher.PublishPosition(routeID, idx, total, p)
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.StepDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		log.Printf("position publish for %s failed: %v", routeID, err)
	}
}

func (m *Manager) statusChanged(id string, status model.Status) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	}
	if m.cfg.OnStatus != nil {
		m.cfg.OnStatus(id, status)
	}
}

func (m *Manager) emitPrep(hosp model.Hospital, percent int, msg string) {
	if m.cfg.Sink == nil {
		return
	}
	n := model.Notification{
		ID:         uuid.NewString(),
		TargetType: model.TargetHospital,
		TargetID:   hosp.ID,
		Message:    fmt.Sprintf("%s (%d%%)", msg, percent),
		CreatedAt:  m.cfg.Clock.Now(),
	}
	if err := m.cfg.Sink.Emit(n); err != nil {
		log.Printf("preparation notification for %s failed: %v", hosp.ID, err)
	}
}

// CurrentRoute returns the latest route snapshot, or nil when nothing is
// dispatched.
func (m *Manager) CurrentRoute() *checkpoint.Route {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.route
}

func (m *Manager) stopCurrent() {
	m.mu.Lock()
	driver, prep := m.driver, m.prep
	m.driver, m.prep = nil, nil
	m.mu.Unlock()
	if driver != nil {
		driver.Stop()
	}
	if prep != nil {
		prep.Stop()
	}
}

// StartRefresher launches the periodic checkpoint refresh. Each cycle swaps
// in a new immutable route snapshot in which only statuses and inspection
// dates may differ.
func (m *Manager) StartRefresher(parent context.Context) {
	if m.cfg.RefreshInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		ticker := time.NewTicker(m.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh()
			}
		}
	}()
}

func (m *Manager) refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.route == nil {
		return
	}
	m.route = m.cfg.Generator.Refresh(m.route)
	log.Printf("refreshed checkpoint data for route %s", m.route.ID)
}

// Stop cancels the refresher and any in-flight dispatch. Idempotent; the
// manager accepts no new dispatches once its lifetime context is cancelled.
func (m *Manager) Stop() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
	m.lifeStop()
	m.stopCurrent()
}
