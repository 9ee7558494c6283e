package telemetry

import (
	"context"
	"log/slog"
)

// ReporterOptions configures a Reporter.
type ReporterOptions struct {
	Logger *slog.Logger
	// Output may be nil, which disables CSV output.
	Output *OutputManager
	// LogStats logs every closed window and its perf stats.
	LogStats bool
	// MetricsEvery is the tick interval between metrics lines while the
	// metrics display is on. Zero logs every frame.
	MetricsEvery int
	// BookmarkHistory is the number of windows the bookmark detector keeps.
	BookmarkHistory int
}

// Reporter consumes frames on its own goroutine. It owns the bookmark
// detector and the output files; nothing else touches them while Run is
// active.
type Reporter struct {
	logger       *slog.Logger
	output       *OutputManager
	bookmarks    *BookmarkDetector
	logStats     bool
	metricsEvery int

	frames     int
	bookmarked []Bookmark
}

// NewReporter creates a reporter.
func NewReporter(opts ReporterOptions) *Reporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:       logger,
		output:       opts.Output,
		bookmarks:    NewBookmarkDetector(opts.BookmarkHistory),
		logStats:     opts.LogStats,
		metricsEvery: opts.MetricsEvery,
	}
}

// Run handles frames until the channel is closed or ctx is done. Frames
// already buffered when the channel closes are still handled.
func (r *Reporter) Run(ctx context.Context, frames <-chan Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			r.handle(f)
		}
	}
}

func (r *Reporter) handle(f Frame) {
	r.frames++

	if err := r.output.WriteSample(f.Sample()); err != nil {
		r.logger.Error("failed to write series", "error", err)
	}

	if f.ShowMetrics && (r.metricsEvery <= 1 || f.Tick%r.metricsEvery == 0) {
		r.logger.Info("metrics",
			"tick", f.Tick,
			"population", f.Population,
			"food", f.Food,
			"temperature", f.Temperature,
			"co2", f.CO2,
			"pollution", f.Pollution,
		)
	}

	if f.Window == nil {
		return
	}
	stats := *f.Window

	if r.logStats {
		stats.LogStats(r.logger)
		if f.Perf != nil {
			f.Perf.LogStats(r.logger)
		}
	}

	if err := r.output.WriteTelemetry(stats); err != nil {
		r.logger.Error("failed to write telemetry", "error", err)
	}
	if f.Perf != nil {
		if err := r.output.WritePerf(*f.Perf, stats.WindowEndTick); err != nil {
			r.logger.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range r.bookmarks.Check(stats) {
		bm.LogBookmark(r.logger)
		if err := r.output.WriteBookmark(bm); err != nil {
			r.logger.Error("failed to write bookmark", "error", err)
		}
		r.bookmarked = append(r.bookmarked, bm)
	}
}

// Frames returns the number of frames handled. Only valid after Run returns.
func (r *Reporter) Frames() int {
	return r.frames
}

// Bookmarks returns the bookmarks raised so far. Only valid after Run returns.
func (r *Reporter) Bookmarks() []Bookmark {
	return r.bookmarked
}
