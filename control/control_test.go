package control

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/environment"
	"github.com/pthm-cable/biosphere/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, mix map[string]int) *environment.Environment {
	t.Helper()
	cfg := config.Default().Clone()
	cfg.Population.InitialMix = mix
	env, err := environment.New(cfg, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	return env
}

func newTestLoop(env *environment.Environment, commands <-chan Command, opts Options) (*Loop, *telemetry.Reporter) {
	opts.Logger = discardLogger()
	reporter := telemetry.NewReporter(telemetry.ReporterOptions{Logger: opts.Logger})
	return NewLoop(env, reporter, commands, opts), reporter
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"pause", Pause},
		{"  Resume\n", Resume},
		{"p", TogglePause},
		{"+", SpeedUp},
		{"-", SlowDown},
		{"m", ToggleMetrics},
		{"save", Save},
		{"Q", Quit},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCommand("dance")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestLoopStopsAtMaxTicks(t *testing.T) {
	env := newTestEnv(t, map[string]int{config.VariantPhototroph: 5})
	loop, reporter := newTestLoop(env, nil, Options{MaxTicks: 7, Speed: 3, FrameBuffer: 2})

	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, 7, env.TickCount())
	require.Equal(t, 7, reporter.Frames())
}

func TestLoopStopsOnExtinction(t *testing.T) {
	env := newTestEnv(t, map[string]int{})
	loop, reporter := newTestLoop(env, nil, Options{MaxTicks: 100})

	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, 1, env.TickCount())
	require.Equal(t, 1, reporter.Frames())
}

func TestLoopHandlesCommands(t *testing.T) {
	env := newTestEnv(t, map[string]int{config.VariantPhototroph: 5})
	commands := make(chan Command, 8)
	commands <- Pause
	commands <- SpeedUp
	commands <- SpeedUp
	commands <- ToggleMetrics
	commands <- Quit

	loop, _ := newTestLoop(env, commands, Options{})
	require.NoError(t, loop.Run(context.Background()))

	require.Zero(t, env.TickCount(), "paused before the first tick")
	require.True(t, loop.Paused())
	require.Equal(t, 3, loop.Speed())
	require.True(t, loop.ShowMetrics())
}

func TestLoopSpeedIsBounded(t *testing.T) {
	env := newTestEnv(t, map[string]int{config.VariantPhototroph: 1})
	commands := make(chan Command, 16)
	for range 15 {
		commands <- SpeedUp
	}
	commands <- Quit

	loop, _ := newTestLoop(env, commands, Options{Speed: 1})
	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, MaxSpeed, loop.Speed())
}

func TestLoopResumesWhileRunning(t *testing.T) {
	env := newTestEnv(t, map[string]int{config.VariantPhototroph: 5})
	commands := make(chan Command)
	loop, _ := newTestLoop(env, commands, Options{Interval: time.Millisecond})

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(context.Background()) }()

	commands <- Pause
	commands <- Resume
	commands <- Quit

	require.NoError(t, <-errc)
	require.False(t, loop.Paused())
}

func TestLoopCancellation(t *testing.T) {
	env := newTestEnv(t, map[string]int{config.VariantPhototroph: 5})
	loop, _ := newTestLoop(env, nil, Options{Interval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, loop.Run(ctx), context.DeadlineExceeded)
}

func TestLoopSaveCommand(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, map[string]int{config.VariantPhototroph: 2})
	commands := make(chan Command, 2)
	commands <- Save
	commands <- Quit

	loop, _ := newTestLoop(env, commands, Options{SnapshotDir: dir, RunID: "test-run"})
	require.NoError(t, loop.Run(context.Background()))

	path := filepath.Join(dir, "snapshot_0.json")
	_, err := os.Stat(path)
	require.NoError(t, err)

	snap, err := telemetry.LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, "test-run", snap.RunID)
	require.Len(t, snap.Organisms, 2)
}
