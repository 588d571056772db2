package sim

import (
	"context"
	"sync"
	"time"
)

// prepMessages is the ordered hospital-preparation narrative. The final
// message always lands at 100%.
var prepMessages = []string{
	"Emergency team notified",
	"Trauma bay being prepared",
	"Medical staff briefed on incoming patient",
	"Equipment and blood supply checked",
	"Trauma bay ready",
	"Hospital ready to receive patient",
}

// DefaultPrepSteps matches the message table.
var DefaultPrepSteps = len(prepMessages)

// PrepDriver emits hospital-preparation progress at evenly spaced intervals
// across a total ETA. It is independent of the route driver and cancellable
// on its own.
type PrepDriver struct {
	clock    Clock
	emit     func(percent int, message string)
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewPrepDriver(clock Clock, emit func(percent int, message string)) *PrepDriver {
	if clock == nil {
		clock = SystemClock()
	}
	return &PrepDriver{clock: clock, emit: emit, done: make(chan struct{})}
}

// Start schedules steps evenly spaced progress updates over total, reaching
// 100% at the final step.
func (p *PrepDriver) Start(parent context.Context, total time.Duration, steps int) {
	if steps <= 0 {
		steps = DefaultPrepSteps
	}
	interval := total / time.Duration(steps)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	go func() {
		defer close(p.done)
		for i := 1; i <= steps; i++ {
			select {
			case <-ctx.Done():
				return
			case <-p.clock.After(interval):
			}
			if p.emit != nil {
				p.emit(i*100/steps, prepMessage(i, steps))
			}
		}
	}()
}

func prepMessage(step, steps int) string {
	idx := (step - 1) * len(prepMessages) / steps
	if idx >= len(prepMessages) {
		idx = len(prepMessages) - 1
	}
	if step == steps {
		idx = len(prepMessages) - 1
	}
	return prepMessages[idx]
}

// Stop cancels the driver; idempotent, safe before Start.
func (p *PrepDriver) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel == nil {
			return
		}
		p.cancel()
		<-p.done
	})
}

// Wait blocks until the driver finishes or is cancelled.
func (p *PrepDriver) Wait() { <-p.done }
