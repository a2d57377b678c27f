package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"sysinsight/internal/collector"
	"sysinsight/internal/history"
	"sysinsight/internal/insight"
	"sysinsight/internal/metrics"
	"sysinsight/internal/output"
	"sysinsight/internal/pipeline"
	"sysinsight/internal/trend"
)

// stubProvider implements collector.SnapshotProvider for testing
type stubProvider struct {
	reading *collector.Reading
	err     error
}

func (m *stubProvider) Collect(ctx context.Context) (*collector.Reading, error) {
	if m.err != nil {
		return nil, m.err
	}
	r := *m.reading
	r.Snapshot.Timestamp = time.Now()
	return &r, nil
}

func (m *stubProvider) HostInfo(ctx context.Context) (*collector.HostInfo, error) {
	return &collector.HostInfo{Hostname: "test-host"}, nil
}

// MockGraphClient implements graph.Client for testing
type MockGraphClient struct {
	CypherResult []map[string]any
	CypherErr    error
	Closed       bool
}

func (m *MockGraphClient) IngestTick(ctx context.Context, host *collector.HostInfo, payload *output.TickPayload) error {
	return nil
}

func (m *MockGraphClient) Reset(ctx context.Context) error {
	return nil
}

func (m *MockGraphClient) ExecuteCypher(ctx context.Context, query string) ([]map[string]any, error) {
	if m.CypherErr != nil {
		return nil, m.CypherErr
	}
	return m.CypherResult, nil
}

func (m *MockGraphClient) Close(ctx context.Context) error {
	m.Closed = true
	return nil
}

func hotReading() *collector.Reading {
	return &collector.Reading{
		Snapshot: metrics.Snapshot{
			CPUUsagePercent:  95,
			CPUTemperatureC:  60,
			MemoryTotalBytes: 16 << 30,
			MemoryUsedBytes:  6 << 30,
		},
	}
}

// newTestServer wires a server around an in-memory store and a stub
// provider, with no Gemini or Neo4j attached.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	client, err := history.NewInMemoryDB()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	store := history.NewStore(client.DB())
	if err := store.Migrate(context.Background()); err != nil {
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
	worker, err := pipeline.NewWorker(provider, store, engine, analyzer, nil, pipeline.DefaultWorkerConfig())
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	s := &Server{
		provider: provider,
		store:    store,
		engine:   engine,
		analyzer: analyzer,
		worker:   worker,
	}
	t.Cleanup(func() {
		worker.Stop()
		engine.Close()
	})
	return s
}

func TestHandleGetCurrentStatus_PullsWhenEmpty(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, result, err := s.handleGetCurrentStatus(ctx, nil, StatusArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Status != "critical" {
		t.Errorf("Expected critical status for a 95%% cpu reading, got %q", result.Status)
	}
	if len(result.Active) == 0 {
		t.Error("Expected active insights")
	}
	if result.Summary == "" {
		t.Error("Expected a non-empty summary line")
	}
}

func TestHandleRunDiagnostics(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, result, err := s.handleRunDiagnostics(ctx, nil, DiagnosticsArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	wantID := metrics.InsightID(metrics.CategoryCPU, "cpu-saturation")
	found := false
	for _, ins := range result.Active {
		if ins.ID == wantID {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s among diagnostics results", wantID)
	}

	// The forced cycle must have persisted a snapshot.
	count, err := s.store.TotalSnapshotCount(ctx)
	if err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if count < 1 {
		t.Error("Expected run_diagnostics to persist a snapshot")
	}
}

func TestHandleGetRealtimeMetrics(t *testing.T) {
	mockProvider := &stubProvider{
		reading: &collector.Reading{
			Snapshot: metrics.Snapshot{
				CPUUsagePercent:  45.5,
				MemoryTotalBytes: 8 << 30,
				MemoryUsedBytes:  4 << 30,
			},
		},
	}

	s := &Server{
		provider: mockProvider,
	}

	ctx := context.Background()

	_, result, err := s.handleGetRealtimeMetrics(ctx, nil, RealtimeArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result == nil {
		t.Fatal("Expected non-nil result")
	}

	if result.Snapshot.CPUUsagePercent != 45.5 {
		t.Errorf("Expected CPU usage 45.5, got %f", result.Snapshot.CPUUsagePercent)
	}
}

func TestHandleGetRealtimeMetrics_ProviderError(t *testing.T) {
	mockProvider := &stubProvider{
		err: errors.New("sensor failure"),
	}

	s := &Server{
		provider: mockProvider,
	}

	ctx := context.Background()

	_, _, err := s.handleGetRealtimeMetrics(ctx, nil, RealtimeArgs{})
	if err == nil {
		t.Error("Expected error when provider fails")
	}
}

func TestHandleGetInsights(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	// Put the engine into a known state first.
	if err := s.worker.PullOnce(ctx); err != nil {
		t.Fatalf("PullOnce failed: %v", err)
	}

	_, result, err := s.handleGetInsights(ctx, nil, InsightsArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Active) == 0 {
		t.Error("Expected active insights")
	}
	if result.History != nil {
		t.Error("Expected no history without include_history")
	}

	_, result, err = s.handleGetInsights(ctx, nil, InsightsArgs{IncludeHistory: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// Nothing has resolved yet, so history is present but empty.
	if result.History == nil {
		t.Error("Expected history slice with include_history")
	}
}

func TestHandleGetUsageSummary(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if err := s.worker.PullOnce(ctx); err != nil {
		t.Fatalf("PullOnce failed: %v", err)
	}

	_, result, err := s.handleGetUsageSummary(ctx, nil, UsageSummaryArgs{Period: "hour"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Summary.SampleCount != 1 {
		t.Errorf("Expected 1 sample in the trailing hour, got %d", result.Summary.SampleCount)
	}
	if result.Summary.AvgCPU != 95 {
		t.Errorf("Expected avg cpu 95, got %f", result.Summary.AvgCPU)
	}

	// Unknown period strings fall back to day.
	_, result, err = s.handleGetUsageSummary(ctx, nil, UsageSummaryArgs{Period: "fortnight"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Summary.Period != trend.PeriodDay {
		t.Errorf("Expected day fallback, got %v", result.Summary.Period)
	}
}

func TestHandleGetHourlyAverages_EmptyStore(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, result, err := s.handleGetHourlyAverages(ctx, nil, HourlyAveragesArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Buckets) != 0 {
		t.Errorf("Expected no buckets on an empty store, got %d", len(result.Buckets))
	}
}

func TestHandleGetHistory_LimitLogic(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"default limit", 0, 10},
		{"custom limit", 50, 50},
		{"max limit cap", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := tt.input
			if limit == 0 {
				limit = 10
			}
			if limit > 100 {
				limit = 100
			}

			if limit != tt.expected {
				t.Errorf("Expected limit %d, got %d", tt.expected, limit)
			}
		})
	}
}

func TestHandleGetHistory(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if err := s.worker.PullOnce(ctx); err != nil {
		t.Fatalf("PullOnce failed: %v", err)
	}
	if err := s.worker.PullOnce(ctx); err != nil {
		t.Fatalf("PullOnce failed: %v", err)
	}

	_, result, err := s.handleGetHistory(ctx, nil, HistoryArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Snapshots) != 2 {
		t.Errorf("Expected 2 snapshots, got %d", len(result.Snapshots))
	}
}

func TestHandleQueryGraph_Success(t *testing.T) {
	mockGraph := &MockGraphClient{
		CypherResult: []map[string]any{
			{"hostname": "test-host", "cpu": 50.0},
		},
	}

	s := &Server{
		graphClient: mockGraph,
	}

	ctx := context.Background()
	args := QueryGraphArgs{Cypher: "MATCH (h:Host) RETURN h.hostname"}

	_, result, err := s.handleQueryGraph(ctx, nil, args)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Data == nil {
		t.Error("Expected non-nil data")
	}
}

func TestHandleQueryGraph_Error(t *testing.T) {
	mockGraph := &MockGraphClient{
		CypherErr: errors.New("cypher syntax error"),
	}

	s := &Server{
		graphClient: mockGraph,
	}

	ctx := context.Background()
	args := QueryGraphArgs{Cypher: "INVALID CYPHER"}

	_, _, err := s.handleQueryGraph(ctx, nil, args)
	if err == nil {
		t.Error("Expected error for invalid cypher")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{
		ServerName:    "test-server",
		ServerVersion: "1.0.0",
	}

	if cfg.ServerName != "test-server" {
		t.Errorf("Expected ServerName 'test-server', got '%s'", cfg.ServerName)
	}

	if cfg.GeminiModel != "" {
		t.Errorf("Expected empty GeminiModel by default, got '%s'", cfg.GeminiModel)
	}
}
