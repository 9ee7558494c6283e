package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for the simulation step.
const (
	PhaseClimate      = "climate"
	PhaseFood         = "food"
	PhaseContagion    = "contagion"
	PhaseMovement     = "movement"
	PhaseFeeding      = "feeding"
	PhaseCombat       = "combat"
	PhasePrune        = "prune"
	PhaseReproduction = "reproduction"
	PhaseRecovery     = "recovery"
	PhaseTelemetry    = "telemetry"
)

// Phases lists every phase in tick order.
var Phases = []string{
	PhaseClimate, PhaseFood, PhaseContagion, PhaseMovement, PhaseFeeding,
	PhaseCombat, PhasePrune, PhaseReproduction, PhaseRecovery, PhaseTelemetry,
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector times tick phases and keeps the most recent ticks in a ring.
type PerfCollector struct {
	ring []PerfSample
	next int
	full bool

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      string
}

// NewPerfCollector creates a collector averaging over the last n ticks.
func NewPerfCollector(n int) *PerfCollector {
	if n < 1 {
		n = 60
	}
	return &PerfCollector{ring: make([]PerfSample, n)}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.phaseStart = p.tickStart
	p.phase = ""
	p.current = PerfSample{Phases: make(map[string]time.Duration, len(Phases))}
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	p.phase, p.phaseStart = phase, p.lap(time.Now())
}

// EndTick closes the last phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := p.lap(time.Now())
	p.current.TickDuration = now.Sub(p.tickStart)

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	if p.next == 0 {
		p.full = true
	}
}

// lap charges the time since phaseStart to the running phase.
func (p *PerfCollector) lap(now time.Time) time.Time {
	if p.phase != "" {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
	return now
}

// samples returns the recorded ticks in no particular order.
func (p *PerfCollector) samples() []PerfSample {
	if p.full {
		return p.ring
	}
	return p.ring[:p.next]
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of tick time (percent) per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64
}

// Stats summarizes the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	window := p.samples()
	if len(window) == 0 {
		return stats
	}

	ticks := make([]float64, len(window))
	phaseSum := make(map[string]time.Duration)
	for i, s := range window {
		ticks[i] = float64(s.TickDuration)
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	avg := stat.Mean(ticks, nil)
	stats.AvgTickDuration = time.Duration(avg)
	stats.MinTickDuration = time.Duration(floats.Min(ticks))
	stats.MaxTickDuration = time.Duration(floats.Max(ticks))

	n := time.Duration(len(window))
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / n
		if avg > 0 {
			stats.PhasePct[phase] = float64(sum/n) / avg * 100
		}
	}
	if avg > 0 {
		stats.TicksPerSecond = float64(time.Second) / avg
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	// Add phase breakdowns
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}

	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int     `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	ClimatePct      float64 `csv:"climate_pct"`
	FoodPct         float64 `csv:"food_pct"`
	ContagionPct    float64 `csv:"contagion_pct"`
	MovementPct     float64 `csv:"movement_pct"`
	FeedingPct      float64 `csv:"feeding_pct"`
	CombatPct       float64 `csv:"combat_pct"`
	PrunePct        float64 `csv:"prune_pct"`
	ReproductionPct float64 `csv:"reproduction_pct"`
	RecoveryPct     float64 `csv:"recovery_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		ClimatePct:      s.PhasePct[PhaseClimate],
		FoodPct:         s.PhasePct[PhaseFood],
		ContagionPct:    s.PhasePct[PhaseContagion],
		MovementPct:     s.PhasePct[PhaseMovement],
		FeedingPct:      s.PhasePct[PhaseFeeding],
		CombatPct:       s.PhasePct[PhaseCombat],
		PrunePct:        s.PhasePct[PhasePrune],
		ReproductionPct: s.PhasePct[PhaseReproduction],
		RecoveryPct:     s.PhasePct[PhaseRecovery],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
