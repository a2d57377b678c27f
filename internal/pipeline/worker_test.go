package pipeline_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"sysinsight/internal/collector"
	"sysinsight/internal/graph"
	"sysinsight/internal/history"
	"sysinsight/internal/insight"
	"sysinsight/internal/metrics"
	"sysinsight/internal/output"
	"sysinsight/internal/pipeline"
	"sysinsight/internal/trend"
)

// TestWorkerPullAndPersist tests end-to-end: provider -> Worker -> DuckDB -> engine.
func TestWorkerPullAndPersist(t *testing.T) {
	ctx := context.Background()

	// 1. Create in-memory DuckDB
	client, err := history.NewInMemoryDB()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	defer client.Close()

	store := history.NewStore(client.DB())

	// 2. Run migrations to create schema
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Log("✓ Schema migrated successfully")

	// 3. Create components around a deterministic provider
	provider := &stubProvider{reading: hotReading()}
	engine, err := insight.NewEngine(insight.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	analyzer, err := trend.NewAnalyzer(store, trend.DefaultAnalysisConfig())
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}

	// 4. Create Worker
	mockGraph := &RecordingGraphClient{}
	worker, err := pipeline.NewWorker(provider, store, engine, analyzer, mockGraph, pipeline.DefaultWorkerConfig())
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	// 5. Execute two cycles
	t.Log("Pulling readings...")
	if err := worker.PullOnce(ctx); err != nil {
		t.Fatalf("PullOnce failed: %v", err)
	}
	if err := worker.PullOnce(ctx); err != nil {
		t.Fatalf("second PullOnce failed: %v", err)
	}

	// Stop without Start still drains the async graph pushes and closes
	// the client, so the mock's counters are final afterwards.
	worker.Stop()

	// 6. Verify data was inserted
	count, err := store.TotalSnapshotCount(ctx)
	if err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 snapshot rows, got %d", count)
	} else {
		t.Log("✓ Snapshot rows exist")
	}

	var cpuPct sql.NullFloat64
	var memUsed sql.NullInt64
	err = client.DB().QueryRowContext(ctx, `
		SELECT cpu_usage_pct, mem_used_bytes
		FROM snapshots LIMIT 1
	`).Scan(&cpuPct, &memUsed)
	if err != nil {
		t.Errorf("failed to read snapshot scalars: %v", err)
	} else {
		t.Logf("✓ Snapshot scalars - CPU: %.2f%%, Mem used: %d bytes", cpuPct.Float64, memUsed.Int64)
	}
	if cpuPct.Float64 != 95 {
		t.Errorf("expected persisted cpu 95, got %.2f", cpuPct.Float64)
	}

	// 7. Verify the engine saw the reading
	state := engine.State()
	if len(state.Active) == 0 {
		t.Fatal("expected active insights after a 95%% cpu reading")
	}
	wantID := metrics.InsightID(metrics.CategoryCPU, "cpu-saturation")
	found := false
	for _, ins := range state.Active {
		if ins.ID == wantID {
			found = true
			if ins.Severity != metrics.SeverityCritical {
				t.Errorf("expected critical severity for %s, got %v", wantID, ins.Severity)
			}
		}
	}
	if !found {
		t.Errorf("expected %s among active insights", wantID)
	}
	t.Logf("✓ Engine state: %s", state.Summary)

	// 8. Verify the latest payload is cached for pollers
	payload := worker.LatestTick()
	if payload == nil {
		t.Fatal("expected a cached tick payload")
	}
	if payload.View.Status != "CRIT" {
		t.Errorf("expected CRIT dashboard status, got %q", payload.View.Status)
	}
	if payload.RecordErr != nil {
		t.Errorf("unexpected record error: %v", payload.RecordErr)
	}
	t.Log("✓ Latest tick payload cached")

	// 9. Verify the graph mirror received both ticks and a final reset
	if got := mockGraph.Ingests(); got != 2 {
		t.Errorf("expected 2 graph ingests, got %d", got)
	}
	if mockGraph.resets != 1 || mockGraph.closes != 1 {
		t.Errorf("expected 1 reset and 1 close, got %d/%d", mockGraph.resets, mockGraph.closes)
	}
	// PullOnce without Start never resolves host identity.
	if host := mockGraph.LastHost(); host != nil {
		t.Errorf("expected nil host before Start, got %+v", host)
	}
	t.Log("✓ Graph mirror ingested both ticks")
}

func TestWorkerStartStop(t *testing.T) {
	ctx := context.Background()

	client, err := history.NewInMemoryDB()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	defer client.Close()

	store := history.NewStore(client.DB())
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	provider := &stubProvider{reading: hotReading()}
	engine, err := insight.NewEngine(insight.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	analyzer, err := trend.NewAnalyzer(store, trend.DefaultAnalysisConfig())
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	mockGraph := &RecordingGraphClient{}

	cfg := pipeline.DefaultWorkerConfig().
		WithTickInterval(10 * time.Millisecond).
		WithAnalysisInterval(25 * time.Millisecond).
		WithTrimInterval(time.Hour)
	worker, err := pipeline.NewWorker(provider, store, engine, analyzer, mockGraph, cfg)
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !worker.Running() {
		t.Error("expected Running() after Start")
	}
	if err := worker.Start(ctx); err == nil {
		t.Error("expected second Start to fail")
	}

	// Wait for a full cycle and the analysis prime to land.
	deadline := time.Now().Add(2 * time.Second)
	for (worker.LatestTick() == nil || worker.Analysis() == nil) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if worker.LatestTick() == nil {
		t.Fatal("no tick completed within deadline")
	}
	t.Log("✓ Background tick landed")
	if worker.Analysis() == nil {
		t.Error("expected a primed analysis result")
	} else {
		t.Log("✓ Analysis cache primed")
	}

	worker.Stop()
	if worker.Running() {
		t.Error("expected Running() false after Stop")
	}

	// Stop drained the async pushes, so the recorded host is final.
	if host := mockGraph.LastHost(); host == nil || host.Hostname != "test-host" {
		t.Errorf("expected resolved host identity on graph pushes, got %+v", host)
	}
	if mockGraph.resets != 1 || mockGraph.closes != 1 {
		t.Errorf("expected graph reset+close on Stop, got %d/%d", mockGraph.resets, mockGraph.closes)
	}

	count, err := store.TotalSnapshotCount(ctx)
	if err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if count < 1 {
		t.Error("expected at least one persisted snapshot")
	}
	t.Logf("✓ Worker loop persisted %d snapshots", count)
}

func TestNewWorkerValidation(t *testing.T) {
	client, err := history.NewInMemoryDB()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	defer client.Close()
	store := history.NewStore(client.DB())
	engine, err := insight.NewEngine(insight.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	analyzer, err := trend.NewAnalyzer(store, trend.DefaultAnalysisConfig())
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}

	if _, err := pipeline.NewWorker(nil, store, engine, analyzer, nil, pipeline.DefaultWorkerConfig()); err == nil {
		t.Error("expected error for nil provider")
	}

	provider := &stubProvider{reading: hotReading()}
	if _, err := pipeline.NewWorker(provider, store, engine, analyzer, nil, pipeline.WorkerConfig{}); err == nil {
		t.Error("expected error for zero config")
	}

	// Graph client is optional.
	if _, err := pipeline.NewWorker(provider, store, engine, analyzer, nil, pipeline.DefaultWorkerConfig()); err != nil {
		t.Errorf("expected nil graph client to be accepted, got %v", err)
	}
}

// hotReading returns a reading hot enough to raise the cpu saturation
// insight at critical severity.
func hotReading() *collector.Reading {
	return &collector.Reading{
		Snapshot: metrics.Snapshot{
			Timestamp:        time.Now(),
			CPUUsagePercent:  95,
			CPUTemperatureC:  65,
			MemoryTotalBytes: 16 << 30,
			MemoryUsedBytes:  8 << 30,
		},
		PerCorePercent:      []float64{96, 94},
		PCorePercent:        []float64{96, 94},
		CPUFrequencyMHz:     3200,
		CPUBaseFrequencyMHz: 3200,
		TopProcesses: []collector.ProcessStat{
			{PID: 101, Name: "compiler", CPU: 88.5, Memory: 4.2},
		},
	}
}

// stubProvider satisfies collector.SnapshotProvider with fixed data.
type stubProvider struct {
	reading *collector.Reading
}

func (p *stubProvider) Collect(ctx context.Context) (*collector.Reading, error) {
	r := *p.reading
	r.Snapshot.Timestamp = time.Now()
	return &r, nil
}

func (p *stubProvider) HostInfo(ctx context.Context) (*collector.HostInfo, error) {
	return &collector.HostInfo{Hostname: "test-host", OS: "darwin", Platform: "darwin"}, nil
}

// RecordingGraphClient counts graph operations.
type RecordingGraphClient struct {
	mu       sync.Mutex
	ingests  int
	lastHost *collector.HostInfo
	resets   int
	closes   int
}

func (m *RecordingGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *RecordingGraphClient) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return nil
}

func (m *RecordingGraphClient) IngestTick(ctx context.Context, host *collector.HostInfo, payload *output.TickPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingests++
	m.lastHost = host
	return nil
}

func (m *RecordingGraphClient) ExecuteCypher(ctx context.Context, query string) ([]map[string]any, error) {
	return nil, nil
}

func (m *RecordingGraphClient) Ingests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingests
}

func (m *RecordingGraphClient) LastHost() *collector.HostInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHost
}

var _ graph.Client = (*RecordingGraphClient)(nil)
