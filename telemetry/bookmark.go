package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntBreakthrough BookmarkType = "hunt_breakthrough"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkForagerCrash     BookmarkType = "forager_crash"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments across stats windows.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPredMin      int
	recentForagerPeak  int
	stableWindowsCount int
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

	// A reset inside the window refills both species; population-shape
	// checks against the previous generation would be meaningless.
	if stats.Resets > 0 {
		bd.recentPredMin = stats.Predators
		bd.recentForagerPeak = stats.Foragers
		bd.stableWindowsCount = 0
		bd.addToHistory(stats)
		return nil
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkHuntBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPredatorRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkForagerCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStableEcosystem(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Predators < bd.recentPredMin || bd.recentPredMin == 0 {
		bd.recentPredMin = stats.Predators
	}
	if stats.Foragers > bd.recentForagerPeak {
		bd.recentForagerPeak = stats.Foragers
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

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkHuntBreakthrough fires when predator meals exceed twice the rolling average.
func (bd *BookmarkDetector) checkHuntBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.PredatorMeals
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.PredatorMeals) > avg*2.0 && stats.PredatorMeals >= 3 {
		return &Bookmark{
			Type:        BookmarkHuntBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Predator meals %d are %.1fx average (%.1f)", stats.PredatorMeals, float64(stats.PredatorMeals)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	if bd.recentPredMin == 0 || bd.recentPredMin > 3 {
		return nil
	}

	threshold := bd.recentPredMin * 3
	if stats.Predators >= threshold && stats.Predators >= 6 {
		oldMin := bd.recentPredMin
		bd.recentPredMin = stats.Predators

		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Predator population recovered from %d to %d", oldMin, stats.Predators),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkForagerCrash(stats WindowStats) *Bookmark {
	if bd.recentForagerPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Foragers)/float64(bd.recentForagerPeak)
	if drop > 0.30 && stats.Foragers < bd.recentForagerPeak-10 {
		oldPeak := bd.recentForagerPeak
		bd.recentForagerPeak = stats.Foragers

		return &Bookmark{
			Type:        BookmarkForagerCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Foragers crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Foragers),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if stats.Foragers < 10 || stats.Predators < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	foragers := make([]float64, len(recent))
	predators := make([]float64, len(recent))
	for i, h := range recent {
		foragers[i] = float64(h.Foragers)
		predators[i] = float64(h.Predators)
	}
	fs, ps := Summarize(foragers), Summarize(predators)

	// Coefficient of variation below 20% for both species
	if fs.Mean > 0 && ps.Mean > 0 && fs.Std/fs.Mean < 0.2 && ps.Std/ps.Mean < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d foragers, %d predators over 5+ windows", stats.Foragers, stats.Predators),
		}
	}
	return nil
}
