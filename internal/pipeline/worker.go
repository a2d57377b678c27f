// Package pipeline runs the monitoring loop. One worker owns three
// cadences: the per-tick cycle (collect, record, diagnose, evaluate),
// a coarse trend-analysis refresh, and a retention trim. Consumers poll
// LatestTick and Analysis instead of blocking on the worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sysinsight/internal/collector"
	"sysinsight/internal/graph"
	"sysinsight/internal/history"
	"sysinsight/internal/insight"
	"sysinsight/internal/metrics"
	"sysinsight/internal/output"
	"sysinsight/internal/trend"
)

// tempHistoryLimit bounds the trailing temperature series kept for the
// throttle forecast.
const tempHistoryLimit = 16

// Worker orchestrates the monitoring pipeline: Provider -> Store -> Engine.
type Worker struct {
	provider    collector.SnapshotProvider
	store       *history.Store
	engine      *insight.Engine
	analyzer    *trend.Analyzer
	graphClient graph.Client
	config      WorkerConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	stateMu      sync.RWMutex
	host         *collector.HostInfo
	lastTick     *output.TickPayload
	lastAnalysis *trend.AnalysisResult
	tempHistory  []float64
}

// NewWorker creates a new worker instance. The graph client may be nil;
// everything else is required.
func NewWorker(
	provider collector.SnapshotProvider,
	store *history.Store,
	engine *insight.Engine,
	analyzer *trend.Analyzer,
	graphClient graph.Client,
	config WorkerConfig,
) (*Worker, error) {
	if provider == nil || store == nil || engine == nil || analyzer == nil {
		return nil, errors.New("provider, store, engine, and analyzer are required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Worker{
		provider:    provider,
		store:       store,
		engine:      engine,
		analyzer:    analyzer,
		graphClient: graphClient,
		config:      config,
	}, nil
}

// Start begins the periodic monitoring loops.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(3)
	w.mu.Unlock()

	w.resolveHost(ctx)

	go w.tickLoop(ctx)
	go w.analysisLoop(ctx)
	go w.trimLoop(ctx)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()

	// Reset graph data on stop (ephemeral session)
	if w.graphClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		w.graphClient.Reset(ctx)
		w.graphClient.Close(ctx)
	}
}

// PullOnce executes a single collection cycle immediately.
func (w *Worker) PullOnce(ctx context.Context) error {
	return w.execute(ctx)
}

// Running reports whether the loops are active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// LatestTick returns the most recent tick payload, or nil before the
// first cycle completes. Callers must treat it as read-only.
func (w *Worker) LatestTick() *output.TickPayload {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.lastTick
}

// Analysis returns the most recent trend analysis, or nil before the
// first refresh completes. Callers must treat it as read-only.
func (w *Worker) Analysis() *trend.AnalysisResult {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.lastAnalysis
}

// RefreshAnalysis re-runs trend analysis immediately and caches the
// result, ahead of the scheduled cadence. The TUI calls this when the
// trends page opens.
func (w *Worker) RefreshAnalysis(ctx context.Context) (*trend.AnalysisResult, error) {
	result, err := w.analyzer.Analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("trend analysis failed: %w", err)
	}
	w.stateMu.Lock()
	w.lastAnalysis = result
	w.stateMu.Unlock()
	return result, nil
}

// Diagnose runs the per-tick heuristics against the fresh reading and
// folds in the leak suspects cached by the last analysis pass.
func (w *Worker) Diagnose(reading *collector.Reading) []metrics.Insight {
	snap := reading.Snapshot

	w.stateMu.Lock()
	// The forecast wants the series before this tick; copy first, then
	// push the new temperature for the next one.
	tempHistory := append([]float64{}, w.tempHistory...)
	if snap.CPUTemperatureC > 0 {
		w.tempHistory = append(w.tempHistory, snap.CPUTemperatureC)
		if len(w.tempHistory) > tempHistoryLimit {
			w.tempHistory = w.tempHistory[1:]
		}
	}
	var leaks []trend.MemoryLeakSuspect
	if w.lastAnalysis != nil {
		leaks = w.lastAnalysis.LeakSuspects
	}
	w.stateMu.Unlock()

	extras := []metrics.Insight{}
	if ins := insight.DetectSilentThrottling(reading.CPUFrequencyMHz, reading.CPUBaseFrequencyMHz, snap.CPUTemperatureC); ins != nil {
		extras = append(extras, *ins)
	}
	// Runnable-thread counts have no portable source, so the imbalance
	// heuristic gets 0 and words its root cause generically.
	if ins := insight.DetectCoreImbalance(reading.PCorePercent, reading.ECorePercent, 0); ins != nil {
		extras = append(extras, *ins)
	}
	if ins := insight.ForecastThrottle(snap.CPUTemperatureC, tempHistory); ins != nil {
		extras = append(extras, *ins)
	}
	extras = append(extras, insight.LeakInsights(leaks)...)
	return extras
}

// resolveHost looks up host identity once per session. Failure leaves it
// nil and the graph mirror falls back to an "unknown" host node.
func (w *Worker) resolveHost(ctx context.Context) {
	host, err := w.provider.HostInfo(ctx)
	if err != nil {
		fmt.Printf("Host identity lookup failed: %v\n", err)
		return
	}
	w.stateMu.Lock()
	w.host = host
	w.stateMu.Unlock()
}

func (w *Worker) tickLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.execute(ctx); err != nil {
				// In a real app, use a logger
				fmt.Printf("Worker tick failed: %v\n", err)
			}
		}
	}
}

func (w *Worker) analysisLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.config.AnalysisInterval)
	defer ticker.Stop()

	// Prime the cache so the trends view has data before the first
	// interval elapses.
	if _, err := w.RefreshAnalysis(ctx); err != nil {
		fmt.Printf("Analysis refresh failed: %v\n", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RefreshAnalysis(ctx); err != nil {
				fmt.Printf("Analysis refresh failed: %v\n", err)
			}
		}
	}
}

func (w *Worker) trimLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.config.TrimInterval)
	defer ticker.Stop()

	// Catch up on history accumulated while the app was not running.
	w.trim(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.trim(ctx)
		}
	}
}

func (w *Worker) trim(ctx context.Context) {
	cutoff := w.store.RetentionCutoff(time.Now())
	removed, err := w.store.TrimOlderThan(ctx, cutoff)
	if err != nil {
		fmt.Printf("Retention trim failed: %v\n", err)
		return
	}
	if removed > 0 {
		fmt.Printf("Retention trim removed %d snapshots\n", removed)
	}
}

func (w *Worker) execute(ctx context.Context) error {
	// Run the cycle via the Output layer (the "lever")
	payload, err := output.RunTick(ctx, w.provider, w.store, w, w.engine)
	if err != nil {
		return fmt.Errorf("tick execution failed: %w", err)
	}
	if payload.RecordErr != nil {
		// The snapshot still reached the engine; only history is behind.
		fmt.Printf("History write failed: %v\n", payload.RecordErr)
	}

	w.stateMu.Lock()
	w.lastTick = payload
	host := w.host
	w.stateMu.Unlock()

	// Push to Graph DB asynchronously
	if w.graphClient != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			// Detached context with timeout: an in-flight push finishes
			// or times out even when the worker context is canceled.
			pushCtx, cancel := context.WithTimeout(context.Background(), w.config.GraphPushTimeout)
			defer cancel()

			if err := w.graphClient.IngestTick(pushCtx, host, payload); err != nil {
				fmt.Printf("Graph ingest failed: %v\n", err)
			}
		}()
	}

	return nil
}
