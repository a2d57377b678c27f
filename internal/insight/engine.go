// Package insight evaluates snapshots against configurable thresholds
// and diagnostic heuristics. The engine owns the live and historical
// insight sets exclusively; consumers always receive copies.
package insight

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"sysinsight/internal/metrics"
)

// =============================================================================
// STATE TYPES
// =============================================================================

// StatusChange is broadcast to subscribers whenever the active set or
// the overall status changes.
type StatusChange struct {
	Status      metrics.SystemStatus
	Summary     string
	ActiveCount int
	At          time.Time
}

// EngineState is one consistent, caller-owned view of the engine.
type EngineState struct {
	Active  []metrics.Insight
	Status  metrics.SystemStatus
	Summary string
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine tracks each condition through absent -> active -> history.
// Evaluation ticks are serialized by the engine's lock, so two ticks
// never interleave their active-set mutations.
type Engine struct {
	mu      sync.Mutex
	config  EngineConfig
	active  map[string]*metrics.Insight
	history []metrics.Insight
	status  metrics.SystemStatus
	subs    []chan StatusChange
	closed  bool

	now func() time.Time
}

// NewEngine validates the configuration and returns an empty engine.
func NewEngine(config EngineConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		config: config,
		active: make(map[string]*metrics.Insight),
		status: metrics.StatusNormal,
		now:    time.Now,
	}, nil
}

// SetConfig swaps the thresholds. New values apply from the next
// evaluation tick, never retroactively to already-active insights.
func (e *Engine) SetConfig(config EngineConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.config = config
	e.mu.Unlock()
	return nil
}

// Config returns the current configuration.
func (e *Engine) Config() EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Evaluate runs one tick: threshold rules against the snapshot, merged
// with extra insights from heuristics or trend analysis. A triggered
// condition with an already-active id is refreshed in place; an active
// insight whose condition stopped holding moves to history.
func (e *Engine) Evaluate(snap metrics.Snapshot, extras ...metrics.Insight) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	triggered := evaluateRules(snap, e.config)
	for _, extra := range extras {
		if extra.ID == "" {
			continue
		}
		triggered = append(triggered, extra)
	}

	changed := false
	seen := make(map[string]bool, len(triggered))
	for i := range triggered {
		ins := triggered[i]
		seen[ins.ID] = true
		if _, ok := e.active[ins.ID]; !ok {
			changed = true
		}
		ins.Timestamp = now
		e.active[ins.ID] = &ins
	}

	for id, cur := range e.active {
		if seen[id] {
			continue
		}
		delete(e.active, id)
		e.pushHistoryLocked(*cur)
		changed = true
	}

	if status := e.statusLocked(); status != e.status {
		e.status = status
		changed = true
	}
	if changed {
		e.notifyLocked(now)
	}
}

// =============================================================================
// READ APIS
// =============================================================================

// CurrentInsights returns copies of the active set, highest severity
// first, id-ordered within a severity.
func (e *Engine) CurrentInsights() []metrics.Insight {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeCopiesLocked()
}

// InsightHistory returns copies of resolved insights, oldest first.
func (e *Engine) InsightHistory() []metrics.Insight {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]metrics.Insight, 0, len(e.history))
	for _, ins := range e.history {
		out = append(out, ins.Clone())
	}
	return out
}

// CurrentStatus reports the maximum severity among active insights,
// normal when none are active.
func (e *Engine) CurrentStatus() metrics.SystemStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// StatusSummary is the one-line active-set digest, e.g. "2 warnings, 0 critical".
func (e *Engine) StatusSummary() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summaryLocked()
}

// State returns active insights, status, and summary from a single
// consistent point in time.
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineState{
		Active:  e.activeCopiesLocked(),
		Status:  e.status,
		Summary: e.summaryLocked(),
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel receiving a StatusChange whenever the
// active set or overall status changes. The channel is buffered; a
// consumer that stops draining loses updates rather than stalling
// evaluation.
func (e *Engine) Subscribe() <-chan StatusChange {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan StatusChange, 8)
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Close closes all subscriber channels. The engine remains usable for
// evaluation afterwards; only notifications stop.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (e *Engine) activeCopiesLocked() []metrics.Insight {
	out := make([]metrics.Insight, 0, len(e.active))
	for _, ins := range e.active {
		out = append(out, ins.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (e *Engine) pushHistoryLocked(ins metrics.Insight) {
	e.history = append(e.history, ins)
	if over := len(e.history) - e.config.HistoryLimit; over > 0 {
		e.history = append([]metrics.Insight(nil), e.history[over:]...)
	}
}

func (e *Engine) statusLocked() metrics.SystemStatus {
	status := metrics.StatusNormal
	for _, ins := range e.active {
		if s := metrics.StatusForSeverity(ins.Severity); s > status {
			status = s
		}
	}
	return status
}

func (e *Engine) summaryLocked() string {
	var warnings, critical int
	for _, ins := range e.active {
		switch ins.Severity {
		case metrics.SeverityWarning:
			warnings++
		case metrics.SeverityCritical:
			critical++
		}
	}
	return fmt.Sprintf("%d warnings, %d critical", warnings, critical)
}

func (e *Engine) notifyLocked(at time.Time) {
	change := StatusChange{
		Status:      e.status,
		Summary:     e.summaryLocked(),
		ActiveCount: len(e.active),
		At:          at,
	}
	for _, ch := range e.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
