package freshness

import (
	"testing"
	"time"

	"portolan/internal/adapter/fake"
)

func TestReportBeforeFirstCycle(t *testing.T) {
	clock := fake.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(clock)

	got := tr.Report()
	if got.Phase != Unknown {
		t.Fatalf("phase = %s, want %s", got.Phase, Unknown)
	}
	if got.Cycles != 0 {
		t.Errorf("cycles = %d, want 0", got.Cycles)
	}
	if !got.LastAt.IsZero() {
		t.Errorf("last at = %v, want zero", got.LastAt)
	}
}

func TestReportFreshAfterCycle(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := fake.NewClock(start)
	tr := NewTracker(clock)

	tr.RecordCycle(120 * time.Millisecond)
	clock.Advance(4 * time.Second)

	got := tr.Report()
	if got.Phase != Fresh {
		t.Fatalf("phase = %s, want %s", got.Phase, Fresh)
	}
	if !got.LastAt.Equal(start) {
		t.Errorf("last at = %v, want %v", got.LastAt, start)
	}
	if got.Age != 4*time.Second {
		t.Errorf("age = %s, want 4s", got.Age)
	}
	if got.Duration != 120*time.Millisecond {
		t.Errorf("duration = %s, want 120ms", got.Duration)
	}
	if got.Cycles != 1 {
		t.Errorf("cycles = %d, want 1", got.Cycles)
	}
}

func TestReportStaleAfterMissedCycles(t *testing.T) {
	clock := fake.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(clock)

	tr.RecordCycle(50 * time.Millisecond)
	clock.Advance(DefaultStaleAfter + time.Second)

	if got := tr.Report(); got.Phase != Stale {
		t.Fatalf("phase = %s, want %s", got.Phase, Stale)
	}
}

func TestReportRecoversAfterNewCycle(t *testing.T) {
	clock := fake.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(clock, WithStaleAfter(5*time.Second))

	tr.RecordCycle(50 * time.Millisecond)
	clock.Advance(10 * time.Second)
	if got := tr.Report(); got.Phase != Stale {
		t.Fatalf("phase = %s, want %s", got.Phase, Stale)
	}

	tr.RecordCycle(80 * time.Millisecond)
	got := tr.Report()
	if got.Phase != Fresh {
		t.Fatalf("phase after recovery = %s, want %s", got.Phase, Fresh)
	}
	if got.Cycles != 2 {
		t.Errorf("cycles = %d, want 2", got.Cycles)
	}
}
