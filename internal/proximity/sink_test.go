package proximity

import (
	"errors"
	"testing"

	"dispatch-sim/internal/model"
)

func TestMultiSinkFansOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	sink := MultiSink(a, nil, b)

	n := model.Notification{ID: "n-1", TargetID: "sig-1"}
	if err := sink.Emit(n); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("fan-out reached %d/%d sinks, want 1/1", len(a.got), len(b.got))
	}
}

func TestMultiSinkKeepsGoingPastFailures(t *testing.T) {
	bad := &captureSink{err: errors.New("disk full")}
	good := &captureSink{}
	sink := MultiSink(bad, good)

	err := sink.Emit(model.Notification{ID: "n-1"})
	if err == nil {
		t.Fatal("expected the failing sink's error")
	}
	if len(good.got) != 1 {
		t.Fatalf("later sink skipped after failure")
	}
}
