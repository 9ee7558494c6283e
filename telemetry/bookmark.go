package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkPopulationBoom     BookmarkType = "population_boom"
	BookmarkPredatorRecovery   BookmarkType = "predator_recovery"
	BookmarkStableEcosystem    BookmarkType = "stable_ecosystem"
	BookmarkPollutionMilestone BookmarkType = "pollution_milestone"
)

// pollutionStep is the pollution interval that triggers a milestone.
const pollutionStep = 10

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int          `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPredMin      int // minimum predator count in recent history
	recentPopPeak      int // peak population in recent history
	stableWindowsCount int // consecutive windows with stable populations
	pollutionMark      int // highest pollution milestone reported
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationBoom(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPredatorRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStableEcosystem(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkPollution(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.Predators() < bd.recentPredMin || bd.recentPredMin == 0 {
		bd.recentPredMin = stats.Predators()
	}
	if stats.Population > bd.recentPopPeak {
		bd.recentPopPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPopPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPopPeak)
	if dropPercent > 0.30 && stats.Population < bd.recentPopPeak-10 {
		// Reset peak after crash
		oldPeak := bd.recentPopPeak
		bd.recentPopPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationBoom(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += float64(h.Population)
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Population) > avg*2.0 && stats.Population >= 20 {
		return &Bookmark{
			Type:        BookmarkPopulationBoom,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population %d is %.1fx average (%.0f)", stats.Population, float64(stats.Population)/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	if bd.recentPredMin == 0 || bd.recentPredMin > 3 {
		return nil
	}

	threshold := bd.recentPredMin * 3
	if stats.Predators() >= threshold && stats.Predators() >= 6 {
		// Reset the minimum after triggering
		oldMin := bd.recentPredMin
		bd.recentPredMin = stats.Predators()

		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Predator population recovered from %d to %d", oldMin, stats.Predators()),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	// Need both grazers and hunters present
	if stats.Herbivores < 10 || stats.Predators() < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	herbCV2 := cv2(recent, func(s WindowStats) float64 { return float64(s.Herbivores) })
	predCV2 := cv2(recent, func(s WindowStats) float64 { return float64(s.Predators()) })

	if herbCV2 < 0.04 && predCV2 < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d herbivores, %d predators over 5+ windows", stats.Herbivores, stats.Predators()),
		}
	}

	return nil
}

// cv2 returns the squared coefficient of variation of f over windows.
func cv2(windows []WindowStats, f func(WindowStats) float64) float64 {
	var sum float64
	for _, w := range windows {
		sum += f(w)
	}
	mean := sum / float64(len(windows))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, w := range windows {
		d := f(w) - mean
		variance += d * d
	}
	variance /= float64(len(windows))
	return variance / (mean * mean)
}

func (bd *BookmarkDetector) checkPollution(stats WindowStats) *Bookmark {
	mark := int(math.Floor(stats.Pollution/pollutionStep)) * pollutionStep
	if mark <= bd.pollutionMark {
		return nil
	}
	bd.pollutionMark = mark
	return &Bookmark{
		Type:        BookmarkPollutionMilestone,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Pollution reached %d", mark),
	}
}
