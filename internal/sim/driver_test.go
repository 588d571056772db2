package sim

import (
	"context"
	"testing"
	"time"

	"dispatch-sim/internal/geo"
	"dispatch-sim/internal/model"
	"dispatch-sim/internal/proximity"
)

// readyClock fires every After immediately so drivers run to completion
// without real waiting.
type readyClock struct{}

func (readyClock) Now() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

func (readyClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// stuckClock never fires, pinning the driver between steps so cancellation
// paths can be exercised deterministically.
type stuckClock struct{ asked chan time.Duration }

func (stuckClock) Now() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

func (c stuckClock) After(d time.Duration) <-chan time.Time {
	if c.asked != nil {
		c.asked <- d
	}
	return make(chan time.Time)
}

func equatorWaypoints(kms ...float64) []geo.Point {
	out := make([]geo.Point, len(kms))
	for i, km := range kms {
		out[i] = geo.Point{Lat: 0, Lon: km / 111.19492664455873}
	}
	return out
}

func TestDriverVisitsEveryWaypointInOrder(t *testing.T) {
	var idxs []int
	doneCh := make(chan struct{})
	d := NewDriver(DriverConfig{
		Clock:   readyClock{},
		Publish: func(idx int, p geo.Point) { idxs = append(idxs, idx) },
		OnDone:  func() { close(doneCh) },
	})
	d.Start(context.Background(), equatorWaypoints(0, 1, 2, 3))

	select {
	case <-doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not finish")
	}
	d.Wait()

	if len(idxs) != 4 {
		t.Fatalf("published %d steps, want 4", len(idxs))
	}
	for i, idx := range idxs {
		if idx != i {
			t.Fatalf("step order %v", idxs)
		}
	}
}

func TestDriverCompletesEngineAtEnd(t *testing.T) {
	completed := false
	engine := proximity.NewEngine(nil, proximity.WithCompletionCallback(func() { completed = true }))
	engine.Track("hosp-1", "City General", model.TargetHospital, equatorWaypoints(3)[0])

	d := NewDriver(DriverConfig{Clock: readyClock{}, Engine: engine})
	d.Start(context.Background(), equatorWaypoints(0, 1, 2, 3))
	d.Wait()

	if !completed {
		t.Fatal("engine not completed after final waypoint")
	}
	if s := engine.Statuses()["hosp-1"]; s != model.StatusPassed {
		t.Fatalf("hospital status = %v after arrival, want passed", s)
	}
}

func TestDriverStepDelayIsClamped(t *testing.T) {
	asked := make(chan time.Duration, 8)
	d := NewDriver(DriverConfig{Clock: stuckClock{asked: asked}})
	d.Start(context.Background(), equatorWaypoints(0, 0.1)) // 0.1 km: 50ms raw, clamps up

	select {
	case got := <-asked:
		if got != DefaultMinStep {
			t.Fatalf("short segment delay = %v, want %v", got, DefaultMinStep)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver never scheduled a step")
	}
	d.Stop()

	d2 := NewDriver(DriverConfig{Clock: stuckClock{asked: asked}})
	d2.Start(context.Background(), equatorWaypoints(0, 50)) // 50 km: 25s raw, clamps down
	select {
	case got := <-asked:
		if got != DefaultMaxStep {
			t.Fatalf("long segment delay = %v, want %v", got, DefaultMaxStep)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver never scheduled a step")
	}
	d2.Stop()

	// a mid-length segment keeps its proportional delay
	asked3 := make(chan time.Duration, 8)
	d3 := NewDriver(DriverConfig{Clock: stuckClock{asked: asked3}})
	d3.Start(context.Background(), equatorWaypoints(0, 3)) // 3 km: 1500ms raw
	select {
	case got := <-asked3:
		if got < 1400*time.Millisecond || got > 1600*time.Millisecond {
			t.Fatalf("3 km segment delay = %v, want ~1.5s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver never scheduled a step")
	}
	d3.Stop()
}

func TestDriverStopIsIdempotentAndSilencesCallbacks(t *testing.T) {
	steps := 0
	done := 0
	d := NewDriver(DriverConfig{
		Clock:   stuckClock{},
		Publish: func(idx int, p geo.Point) { steps++ },
		OnDone:  func() { done++ },
	})
	d.Start(context.Background(), equatorWaypoints(0, 1, 2))

	d.Stop()
	d.Stop()

	if done != 0 {
		t.Fatalf("cancelled driver fired OnDone %d times", done)
	}
	got := steps
	time.Sleep(20 * time.Millisecond)
	if steps != got {
		t.Fatal("driver kept stepping after Stop returned")
	}
}

func TestDriverStopBeforeStart(t *testing.T) {
	d := NewDriver(DriverConfig{Clock: stuckClock{}})
	d.Stop() // must not block or panic
}

func TestDriverEmptyWaypointsCompletesImmediately(t *testing.T) {
	done := make(chan struct{})
	d := NewDriver(DriverConfig{Clock: readyClock{}, OnDone: func() { close(done) }})
	d.Start(context.Background(), nil)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("empty route did not complete")
	}
}
