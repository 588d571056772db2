package sim

import (
	"context"
	"sync"
	"time"

	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/proximity"
)

// Per-segment delay bounds. The wait between steps scales with the distance
// to the next waypoint but stays inside these so the simulation keeps moving.
const (
	DefaultMinStep = 800 * time.Millisecond
	DefaultMaxStep = 2500 * time.Millisecond

	// msPerKm converts segment length into simulated travel time.
	msPerKm = 500
)

// Driver walks an ordered waypoint list one step at a time, publishing each
// position and re-evaluating the proximity engine. It owns a single goroutine;
// all mutation happens between scheduled delays, never concurrently.
type Driver struct {
	clock   Clock
	minStep time.Duration
	maxStep time.Duration
	engine  *proximity.Engine
	publish func(idx int, p geo.Point)
	onDone  func()

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// DriverConfig bundles the driver's collaborators. Engine and publish may be
// nil; the driver then only advances position.
type DriverConfig struct {
	Clock   Clock
	MinStep time.Duration
	MaxStep time.Duration
	Engine  *proximity.Engine
	Publish func(idx int, p geo.Point)
	OnDone  func()
}

func NewDriver(cfg DriverConfig) *Driver {
	d := &Driver{
		clock:   cfg.Clock,
		minStep: cfg.MinStep,
		maxStep: cfg.MaxStep,
		engine:  cfg.Engine,
		publish: cfg.Publish,
		onDone:  cfg.OnDone,
		done:    make(chan struct{}),
	}
	if d.clock == nil {
		d.clock = SystemClock()
	}
	if d.minStep <= 0 {
		d.minStep = DefaultMinStep
	}
	if d.maxStep < d.minStep {
		d.maxStep = DefaultMaxStep
	}
	return d
}

// Start begins stepping through waypoints. It returns immediately; results
// arrive through the configured callbacks. An empty waypoint list completes
// at once.
func (d *Driver) Start(parent context.Context, waypoints []geo.Point) {
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	go d.run(ctx, waypoints)
}

func (d *Driver) run(ctx context.Context, waypoints []geo.Point) {
	defer close(d.done)
	for i, wp := range waypoints {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.step(i, wp)
		if i == len(waypoints)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(d.stepDelay(wp, waypoints[i+1])):
		}
	}
	if d.engine != nil {
		d.engine.Complete()
	}
	if d.onDone != nil {
		d.onDone()
	}
}

func (d *Driver) step(idx int, p geo.Point) {
	if d.publish != nil {
		d.publish(idx, p)
	}
	if d.engine != nil {
		d.engine.Evaluate(p)
	}
}

func (d *Driver) stepDelay(from, to geo.Point) time.Duration {
	delay := time.Duration(geo.Distance(from, to)*msPerKm) * time.Millisecond
	if delay < d.minStep {
		return d.minStep
	}
	if delay > d.maxStep {
		return d.maxStep
	}
	return delay
}

// Stop cancels the driver and waits for its goroutine to exit, so no
// callback fires after Stop returns. Safe to call twice, or on a driver
// that already finished.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel == nil {
			return // never started
		}
		d.cancel()
		<-d.done
	})
}

// Wait blocks until the driver finishes or is cancelled.
func (d *Driver) Wait() { <-d.done }
