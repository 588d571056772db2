// Package proximity drives the inactive → approaching → active → passed state
// machine for fixed points of interest as the ambulance moves.
package proximity

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
)

// Distance bands in km.
const (
	activeKm    = 0.1 // the vehicle is at the point
	approachKm  = 0.5
	earlyWarnKm = 2.0
)

// defaultSpeedKmh backs the ETA-in-seconds estimate carried on notifications.
const defaultSpeedKmh = 40.0

// Sink receives notification events. Failures are logged and swallowed; the
// engine keeps running even if every emit fails.
type Sink interface {
	Emit(n model.Notification) error
}

// Engine tracks a set of points of interest and re-evaluates their status
// against each new ambulance position. It is not safe for concurrent use;
// the simulation driver is the only caller.
type Engine struct {
	sink       Sink
	onStatus   func(id string, status model.Status)
	onComplete func()
	now        func() time.Time

	points    []*tracked
	completed bool
}

type tracked struct {
	id         string
	label      string
	targetType model.TargetType
	loc        geo.Point
	status     model.Status
	lastKm     float64
	hasLast    bool
}

// Option configures an Engine.
type Option func(*Engine)

func WithStatusCallback(fn func(id string, status model.Status)) Option {
	return func(e *Engine) { e.onStatus = fn }
}

func WithCompletionCallback(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(sink Sink, opts ...Option) *Engine {
	e := &Engine{sink: sink, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Track registers a point of interest. Unknown prior statuses reset to
// inactive so the transition function never sees an unhandled state.
func (e *Engine) Track(id, label string, targetType model.TargetType, loc geo.Point) {
	e.points = append(e.points, &tracked{
		id:         id,
		label:      label,
		targetType: targetType,
		loc:        loc,
		status:     model.StatusInactive,
	})
}

// Statuses returns a snapshot of every tracked point's status.
func (e *Engine) Statuses() map[string]model.Status {
	out := make(map[string]model.Status, len(e.points))
	for _, p := range e.points {
		out[p.id] = p.status
	}
	return out
}

func (e *Engine) Completed() bool { return e.completed }

// Evaluate samples the distance from cur to every tracked point and applies
// the status transition rules. Exactly one notification is emitted per
// changed point; none when a status is unchanged.
func (e *Engine) Evaluate(cur geo.Point) {
	if e.completed {
		return
	}
	for _, p := range e.points {
		km := geo.Distance(cur, p.loc)
		if !p.status.Valid() {
			p.status = model.StatusInactive
		}
		was := p.status
		p.status = next(was, km, p.lastKm, p.hasLast)
		p.lastKm = km
		p.hasLast = true
		if p.status != was {
			e.announce(p, km)
		}
	}
}

// next applies the distance/trend rules. The rules closer to the point win;
// trend rules need a previous sample.
func next(prior model.Status, km, lastKm float64, hasLast bool) model.Status {
	decreasing := hasLast && km < lastKm
	increasing := hasLast && km > lastKm
	switch {
	case km <= activeKm:
		return model.StatusActive
	case km <= approachKm && decreasing:
		return model.StatusApproaching
	case km <= earlyWarnKm && decreasing && prior == model.StatusInactive:
		return model.StatusApproaching
	case km > approachKm && increasing && prior != model.StatusInactive:
		return model.StatusPassed
	}
	return prior
}

// Complete forces every tracked point to passed and fires the completion
// callback. Calling it again is a no-op.
func (e *Engine) Complete() {
	if e.completed {
		return
	}
	e.completed = true
	for _, p := range e.points {
		if p.status == model.StatusPassed {
			continue
		}
		p.status = model.StatusPassed
		e.announce(p, p.lastKm)
	}
	if e.onComplete != nil {
		e.onComplete()
	}
}

func (e *Engine) announce(p *tracked, km float64) {
	if e.onStatus != nil {
		e.onStatus(p.id, p.status)
	}
	if e.sink == nil {
		return
	}
	n := model.Notification{
		ID:         uuid.NewString(),
		TargetType: p.targetType,
		TargetID:   p.id,
		Message:    fmt.Sprintf("%s: ambulance %s, ETA %ds", p.label, p.status, EtaSeconds(km)),
		CreatedAt:  e.now(),
	}
	if err := e.sink.Emit(n); err != nil {
		log.Printf("notification emit for %s failed: %v", p.id, err)
	}
}

// EtaSeconds converts a remaining distance into a rough arrival estimate,
// assuming emergency traffic flow.
func EtaSeconds(km float64) int {
	if km <= 0 {
		return 0
	}
	return int(math.Ceil(km / defaultSpeedKmh * 3600))
}
