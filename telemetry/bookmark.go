package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSaturated   BookmarkType = "capacity_saturated"
	BookmarkNonFinite   BookmarkType = "non_finite_burst"
	BookmarkFinished    BookmarkType = "system_finished"
	BookmarkCollapse    BookmarkType = "population_collapse"
	BookmarkSteadyState BookmarkType = "steady_state"
)

const (
	saturationReleaseFill = 0.9
	steadyWindows         = 5
)

// Bookmark is an automatically detected moment worth inspecting.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int64        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector watches window stats for notable transitions.
type BookmarkDetector struct {
	history []WindowStats
	idx     int
	full    bool

	saturated   bool
	lastClamps  uint64
	alivePeak   int
	steadyCount int
}

// NewBookmarkDetector creates a detector keeping historySize windows.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < steadyWindows {
		historySize = steadyWindows
	}
	return &BookmarkDetector{history: make([]WindowStats, historySize)}
}

// Check analyses the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var out []Bookmark
	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkSaturated,
		bd.checkNonFinite,
		bd.checkFinished,
		bd.checkCollapse,
		bd.checkSteady,
	} {
		if b := check(stats); b != nil {
			out = append(out, *b)
		}
	}

	bd.history[bd.idx] = stats
	bd.idx = (bd.idx + 1) % len(bd.history)
	if bd.idx == 0 {
		bd.full = true
	}
	bd.alivePeak = max(bd.alivePeak, stats.Alive)
	bd.lastClamps = stats.NonFiniteClamps
	return out
}

// recent returns the history oldest first.
func (bd *BookmarkDetector) recent() []WindowStats {
	if !bd.full {
		return bd.history[:bd.idx]
	}
	out := make([]WindowStats, 0, len(bd.history))
	out = append(out, bd.history[bd.idx:]...)
	return append(out, bd.history[:bd.idx]...)
}

// checkSaturated fires once when capacity refuses spawns, and re-arms
// after the fill drops back below 90%.
func (bd *BookmarkDetector) checkSaturated(s WindowStats) *Bookmark {
	if bd.saturated {
		if s.Fill < saturationReleaseFill {
			bd.saturated = false
		}
		return nil
	}
	if s.Dropped == 0 {
		return nil
	}
	bd.saturated = true
	return &Bookmark{
		Type:        BookmarkSaturated,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("%d spawns dropped at %d/%d particles", s.Dropped, s.Alive, s.Capacity),
	}
}

func (bd *BookmarkDetector) checkNonFinite(s WindowStats) *Bookmark {
	if s.NonFiniteClamps == 0 || bd.lastClamps > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNonFinite,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("%d non-finite velocity components clamped", s.NonFiniteClamps),
	}
}

func (bd *BookmarkDetector) checkFinished(s WindowStats) *Bookmark {
	if s.FinishedEvents == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFinished,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("%d system(s) finished, %d of %d still running", s.FinishedEvents, s.Running, s.Systems),
	}
}

// checkCollapse fires when the live population halves from its peak
// while systems are still emitting.
func (bd *BookmarkDetector) checkCollapse(s WindowStats) *Bookmark {
	if bd.alivePeak < 20 || s.Running == s.Draining {
		return nil
	}
	if s.Alive*2 >= bd.alivePeak {
		return nil
	}
	peak := bd.alivePeak
	bd.alivePeak = s.Alive
	return &Bookmark{
		Type:        BookmarkCollapse,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("live particles fell from %d to %d", peak, s.Alive),
	}
}

// checkSteady fires once after the population holds within a 20%
// coefficient of variation for several consecutive windows.
func (bd *BookmarkDetector) checkSteady(s WindowStats) *Bookmark {
	if s.Alive == 0 {
		bd.steadyCount = 0
		return nil
	}
	h := bd.recent()
	if len(h) < steadyWindows-1 {
		return nil
	}
	window := append(h[len(h)-(steadyWindows-1):len(h):len(h)], s)

	var sum float64
	for _, w := range window {
		sum += float64(w.Alive)
	}
	mean := sum / float64(len(window))
	var v float64
	for _, w := range window {
		d := float64(w.Alive) - mean
		v += d * d
	}
	v /= float64(len(window))

	if mean > 0 && v/(mean*mean) < 0.04 {
		bd.steadyCount++
	} else {
		bd.steadyCount = 0
	}
	if bd.steadyCount != steadyWindows {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSteadyState,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("steady population near %.0f particles", mean),
	}
}
