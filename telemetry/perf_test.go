package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseContagion)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseMovement)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseContagion]; !ok {
		t.Error("expected contagion phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseMovement]; !ok {
		t.Error("expected movement phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseContagion)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		PhasePct: map[string]float64{
			PhaseMovement: 60,
			PhaseCombat:   25,
		},
	}

	row := stats.ToCSV(600)

	if row.WindowEnd != 600 {
		t.Errorf("window_end = %d, want 600", row.WindowEnd)
	}
	if row.AvgTickUS != 1500 {
		t.Errorf("avg_tick_us = %d, want 1500", row.AvgTickUS)
	}
	if row.MovementPct != 60 || row.CombatPct != 25 {
		t.Errorf("phase pct = %v/%v, want 60/25", row.MovementPct, row.CombatPct)
	}
	if row.FeedingPct != 0 {
		t.Errorf("untimed phase should be 0, got %v", row.FeedingPct)
	}
}

func TestPerfCollector_TickWithoutPhases(t *testing.T) {
	pc := NewPerfCollector(3)

	pc.StartTick()
	pc.EndTick()

	stats := pc.Stats()
	if len(stats.PhaseAvg) != 0 {
		t.Errorf("expected no phases, got %v", stats.PhaseAvg)
	}
	if stats.MinTickDuration > stats.MaxTickDuration {
		t.Errorf("min %v > max %v", stats.MinTickDuration, stats.MaxTickDuration)
	}
}
