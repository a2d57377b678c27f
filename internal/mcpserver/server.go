// Package mcpserver exposes the monitoring subsystem over the Model
// Context Protocol. Local tools (status, history, trends, diagnostics)
// always work; the graph and RAG tools register only when Neo4j and
// Gemini are configured.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/option"

	"sysinsight/internal/collector"
	"sysinsight/internal/graph"
	"sysinsight/internal/history"
	"sysinsight/internal/insight"
	"sysinsight/internal/metrics"
	"sysinsight/internal/pipeline"
	"sysinsight/internal/rag"
	"sysinsight/internal/trend"
)

// ingestInterval is the background collection cadence while the server
// is serving. Coarser than the TUI tick; MCP clients ask sporadically.
const ingestInterval = 30 * time.Second

// Server wraps the MCP server with monitoring capabilities.
type Server struct {
	mcpServer    *mcp.Server
	provider     collector.SnapshotProvider
	store        *history.Store
	engine       *insight.Engine
	analyzer     *trend.Analyzer
	worker       *pipeline.Worker
	graphClient  graph.Client
	geminiClient *genai.Client
	ragEngine    *rag.Engine
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
	GeminiAPIKey  string
	GeminiModel   string // Model key: flash, pro, flash-2, experimental
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
}

// NewServer creates a new MCP server instance. Missing Gemini or Neo4j
// credentials disable the dependent tools instead of failing startup.
func NewServer(cfg Config, store *history.Store, provider collector.SnapshotProvider) (*Server, error) {
	ctx := context.Background()

	engine, err := insight.NewEngine(insight.DefaultEngineConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create insight engine: %w", err)
	}
	analyzer, err := trend.NewAnalyzer(store, trend.DefaultAnalysisConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	// Initialize Gemini client when a key is configured
	var geminiClient *genai.Client
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "No Gemini API key configured; ask_insight disabled\n")
	}

	// Initialize Neo4j client when a URI is configured. An unreachable
	// instance downgrades to local-only tools rather than failing.
	var graphClient graph.Client
	if cfg.Neo4jURI != "" {
		neo4jClient, gerr := graph.NewNeo4jClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if gerr != nil {
			fmt.Fprintf(os.Stderr, "Neo4j unavailable (%v); graph tools disabled\n", gerr)
		} else {
			graphClient = neo4jClient
		}
	} else {
		fmt.Fprintf(os.Stderr, "No Neo4j URI configured; graph tools disabled\n")
	}

	// RAG needs both halves: the graph for retrieval, Gemini for language
	var ragEngine *rag.Engine
	if geminiClient != nil && graphClient != nil {
		modelKey := cfg.GeminiModel
		if modelKey == "" {
			modelKey = "pro" // Default to pro for best reasoning
		}
		fmt.Fprintf(os.Stderr, "Using Gemini model: %s\n", modelKey)
		ragEngine = rag.NewEngine(graphClient, geminiClient, modelKey)
	}

	worker, err := pipeline.NewWorker(provider, store, engine, analyzer, graphClient,
		pipeline.DefaultWorkerConfig().WithTickInterval(ingestInterval))
	if err != nil {
		if geminiClient != nil {
			geminiClient.Close()
		}
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	// Create MCP server with Implementation
	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	mcpServer := mcp.NewServer(impl, nil)

	s := &Server{
		mcpServer:    mcpServer,
		provider:     provider,
		store:        store,
		engine:       engine,
		analyzer:     analyzer,
		worker:       worker,
		graphClient:  graphClient,
		geminiClient: geminiClient,
		ragEngine:    ragEngine,
	}

	// Register tools
	s.registerTools()

	// Prime history (and the graph mirror) so the first question has data
	fmt.Fprintf(os.Stderr, "Collecting initial snapshot...\n")
	if err := worker.PullOnce(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: initial collection failed: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "✓ Initial snapshot collected\n")
	}

	// Start background ingestion
	if err := worker.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: background ingestion not started: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Background data ingestion started (interval: %v)\n", ingestInterval)
	}

	return s, nil
}

// AskInsightArgs defines the input for the ask_insight tool.
type AskInsightArgs struct {
	Question string `json:"question" jsonschema:"the question to ask about this machine's performance history"`
}

// AskInsightResult defines the output for the ask_insight tool.
type AskInsightResult struct {
	Answer string `json:"answer" jsonschema:"AI-generated answer"`
}

// StatusArgs defines the (empty) input for get_current_status.
type StatusArgs struct{}

// StatusResult reports the engine's view of the system.
type StatusResult struct {
	Status  string            `json:"status" jsonschema:"overall status: ok, warning, or critical"`
	Summary string            `json:"summary" jsonschema:"human-readable status line"`
	Active  []metrics.Insight `json:"active" jsonschema:"currently active insights"`
}

// RealtimeArgs defines the (empty) input for get_realtime_metrics.
type RealtimeArgs struct{}

// DiagnosticsArgs defines the (empty) input for run_diagnostics.
type DiagnosticsArgs struct{}

// InsightsArgs defines the input for get_insights.
type InsightsArgs struct {
	IncludeHistory bool `json:"include_history,omitempty" jsonschema:"also return recently resolved insights"`
}

// InsightsResult carries active and optionally resolved insights.
type InsightsResult struct {
	Active  []metrics.Insight `json:"active" jsonschema:"currently active insights"`
	History []metrics.Insight `json:"history,omitempty" jsonschema:"recently resolved insights, newest first"`
}

// UsageSummaryArgs defines the input for get_usage_summary.
type UsageSummaryArgs struct {
	Period string `json:"period,omitempty" jsonschema:"period to summarize: hour, day, week, or month (default day)"`
}

// UsageSummaryResult wraps a trend summary.
type UsageSummaryResult struct {
	Summary trend.UsageSummary `json:"summary" jsonschema:"per-metric averages and maxima over the period"`
}

// UsagePatternsArgs defines the (empty) input for get_usage_patterns.
type UsagePatternsArgs struct{}

// UsagePatternsResult carries recurring usage patterns.
type UsagePatternsResult struct {
	Weekly    []trend.WeeklyPattern `json:"weekly" jsonschema:"per-weekday averages"`
	Daily     []trend.DailyPattern  `json:"daily" jsonschema:"per-hour-of-day averages"`
	PeakHours []int                 `json:"peak_hours" jsonschema:"hours of day with the heaviest combined load"`
}

// AnomaliesArgs defines the (empty) input for get_anomalies.
type AnomaliesArgs struct{}

// AnomaliesResult carries detected anomalies.
type AnomaliesResult struct {
	Anomalies []trend.TrendAnomaly `json:"anomalies" jsonschema:"hours deviating from their trailing baseline"`
}

// LeakSuspectsArgs defines the (empty) input for get_leak_suspects.
type LeakSuspectsArgs struct{}

// LeakSuspectsResult carries memory leak suspects.
type LeakSuspectsResult struct {
	Suspects []trend.MemoryLeakSuspect `json:"suspects" jsonschema:"sustained memory growth candidates"`
}

// HistoryArgs defines the input for get_history.
type HistoryArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of recent snapshots to return (default 10, max 100)"`
}

// HistoryResult carries raw snapshots.
type HistoryResult struct {
	Snapshots []metrics.Snapshot `json:"snapshots" jsonschema:"recent snapshots, oldest first"`
}

// HourlyAveragesArgs defines the input for get_hourly_averages.
type HourlyAveragesArgs struct {
	Hours int `json:"hours,omitempty" jsonschema:"trailing hours to include (default 24, max 168)"`
}

// HourlyAveragesResult carries hour-bucketed aggregates.
type HourlyAveragesResult struct {
	Buckets []history.HourlyMetrics `json:"buckets" jsonschema:"hour-aligned averages, oldest first"`
}

// QueryGraphArgs defines the input for the query_graph tool.
type QueryGraphArgs struct {
	Cypher string `json:"cypher" jsonschema:"Cypher query to execute"`
}

// QueryGraphResult wraps graph query results.
type QueryGraphResult struct {
	Data interface{} `json:"data" jsonschema:"query results"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	// Local tools, always available
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_current_status",
		Description: "Get the current system status: overall severity, a one-line summary, and the active insights with their symptom, root cause, and counterfactual. Served from the latest completed collection cycle.",
	}, s.handleGetCurrentStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_realtime_metrics",
		Description: "Get the absolute latest metrics directly from sensors: CPU (total, per-core, per-cluster), GPU, memory, disk and network rates, temperatures, and top processes. Use this to verify current state rather than history.",
	}, s.handleGetRealtimeMetrics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_diagnostics",
		Description: "Force a full collection and evaluation cycle right now and return the resulting status and insights. Use when the cached status may be stale or after the user changed something.",
	}, s.handleRunDiagnostics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_insights",
		Description: "List the currently active insights, optionally with recently resolved ones. Each insight explains what is visibly wrong, what is causing it, and what would change if the cause were addressed.",
	}, s.handleGetInsights)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_usage_summary",
		Description: "Summarize resource usage over a trailing period (hour, day, week, or month): averages, maxima, and sample count from the snapshot history.",
	}, s.handleGetUsageSummary)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_usage_patterns",
		Description: "Get recurring usage patterns: per-weekday and per-hour-of-day averages plus the peak usage hours, computed from up to 30 days of history.",
	}, s.handleGetUsagePatterns)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_anomalies",
		Description: "List hours whose usage deviated sharply from their trailing baseline. Useful for 'what happened yesterday evening' questions.",
	}, s.handleGetAnomalies)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_leak_suspects",
		Description: "List sustained memory growth candidates detected by regression over daily averages, with growth rate and confidence.",
	}, s.handleGetLeakSuspects)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_history",
		Description: "Get recent raw snapshots from the history store for time-series inspection.",
	}, s.handleGetHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_hourly_averages",
		Description: "Get hour-bucketed usage aggregates over a trailing window. Suited for charting and spotting daily rhythm.",
	}, s.handleGetHourlyAverages)

	// Graph tools require a connected Neo4j instance
	if s.graphClient != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "query_graph",
			Description: "Execute Cypher queries directly on the session graph. Available nodes: Host, Snapshot, Insight, Process. Relationships: HAS_SNAPSHOT, RAISED, OBSERVED_PROCESS.",
		}, s.handleQueryGraph)
	}

	// RAG needs Neo4j and Gemini together
	if s.ragEngine != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "ask_insight",
			Description: "Ask complex questions about this machine's performance, causes, and history using AI-powered graph analysis. Use this for 'why' questions and causal reasoning.",
		}, s.handleAskInsight)
	}
}

// handleAskInsight uses GraphRAG to answer complex questions.
func (s *Server) handleAskInsight(ctx context.Context, _ *mcp.CallToolRequest, args AskInsightArgs) (*mcp.CallToolResult, AskInsightResult, error) {
	answer, err := s.ragEngine.Query(ctx, args.Question)
	if err != nil {
		return nil, AskInsightResult{}, fmt.Errorf("RAG query failed: %w", err)
	}

	return nil, AskInsightResult{Answer: answer}, nil
}

// handleGetCurrentStatus serves the latest completed cycle.
func (s *Server) handleGetCurrentStatus(ctx context.Context, _ *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, StatusResult, error) {
	payload := s.worker.LatestTick()
	if payload == nil {
		// Nothing collected yet; do it now.
		if err := s.worker.PullOnce(ctx); err != nil {
			return nil, StatusResult{}, fmt.Errorf("no data collected yet and collection failed: %w", err)
		}
		payload = s.worker.LatestTick()
	}
	if payload == nil {
		return nil, StatusResult{}, fmt.Errorf("no data collected yet")
	}

	return nil, StatusResult{
		Status:  payload.State.Status.String(),
		Summary: payload.State.Summary,
		Active:  payload.State.Active,
	}, nil
}

// handleGetRealtimeMetrics fetches live data from sensors.
func (s *Server) handleGetRealtimeMetrics(ctx context.Context, _ *mcp.CallToolRequest, args RealtimeArgs) (*mcp.CallToolResult, *collector.Reading, error) {
	reading, err := s.provider.Collect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get metrics: %w", err)
	}

	return nil, reading, nil
}

// handleRunDiagnostics forces a full cycle and reports the outcome.
func (s *Server) handleRunDiagnostics(ctx context.Context, _ *mcp.CallToolRequest, args DiagnosticsArgs) (*mcp.CallToolResult, StatusResult, error) {
	if err := s.worker.PullOnce(ctx); err != nil {
		return nil, StatusResult{}, fmt.Errorf("diagnostic cycle failed: %w", err)
	}

	state := s.engine.State()
	return nil, StatusResult{
		Status:  state.Status.String(),
		Summary: state.Summary,
		Active:  state.Active,
	}, nil
}

// handleGetInsights lists active and optionally resolved insights.
func (s *Server) handleGetInsights(ctx context.Context, _ *mcp.CallToolRequest, args InsightsArgs) (*mcp.CallToolResult, InsightsResult, error) {
	result := InsightsResult{Active: s.engine.CurrentInsights()}
	if args.IncludeHistory {
		result.History = s.engine.InsightHistory()
	}

	return nil, result, nil
}

// handleGetUsageSummary summarizes usage over a period.
func (s *Server) handleGetUsageSummary(ctx context.Context, _ *mcp.CallToolRequest, args UsageSummaryArgs) (*mcp.CallToolResult, UsageSummaryResult, error) {
	period := trend.ParsePeriod(args.Period)
	summary, err := s.analyzer.UsageSummary(ctx, period)
	if err != nil {
		return nil, UsageSummaryResult{}, fmt.Errorf("failed to summarize usage: %w", err)
	}

	return nil, UsageSummaryResult{Summary: summary}, nil
}

// handleGetUsagePatterns reports recurring patterns.
func (s *Server) handleGetUsagePatterns(ctx context.Context, _ *mcp.CallToolRequest, args UsagePatternsArgs) (*mcp.CallToolResult, UsagePatternsResult, error) {
	weekly, err := s.analyzer.WeeklyPatterns(ctx)
	if err != nil {
		return nil, UsagePatternsResult{}, fmt.Errorf("failed to compute weekly patterns: %w", err)
	}
	daily, err := s.analyzer.DailyPatterns(ctx)
	if err != nil {
		return nil, UsagePatternsResult{}, fmt.Errorf("failed to compute daily patterns: %w", err)
	}
	peaks, err := s.analyzer.PeakUsageHours(ctx)
	if err != nil {
		return nil, UsagePatternsResult{}, fmt.Errorf("failed to compute peak hours: %w", err)
	}

	return nil, UsagePatternsResult{Weekly: weekly, Daily: daily, PeakHours: peaks}, nil
}

// handleGetAnomalies lists baseline deviations.
func (s *Server) handleGetAnomalies(ctx context.Context, _ *mcp.CallToolRequest, args AnomaliesArgs) (*mcp.CallToolResult, AnomaliesResult, error) {
	anomalies, err := s.analyzer.Anomalies(ctx)
	if err != nil {
		return nil, AnomaliesResult{}, fmt.Errorf("failed to detect anomalies: %w", err)
	}

	return nil, AnomaliesResult{Anomalies: anomalies}, nil
}

// handleGetLeakSuspects lists memory growth candidates.
func (s *Server) handleGetLeakSuspects(ctx context.Context, _ *mcp.CallToolRequest, args LeakSuspectsArgs) (*mcp.CallToolResult, LeakSuspectsResult, error) {
	suspects, err := s.analyzer.MemoryLeakSuspects(ctx)
	if err != nil {
		return nil, LeakSuspectsResult{}, fmt.Errorf("failed to detect leaks: %w", err)
	}

	return nil, LeakSuspectsResult{Suspects: suspects}, nil
}

// handleGetHistory returns recent raw snapshots.
func (s *Server) handleGetHistory(ctx context.Context, _ *mcp.CallToolRequest, args HistoryArgs) (*mcp.CallToolResult, HistoryResult, error) {
	limit := args.Limit
	if limit == 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	snapshots, err := s.store.RecentSnapshots(ctx, limit)
	if err != nil {
		return nil, HistoryResult{}, fmt.Errorf("failed to query snapshots: %w", err)
	}

	return nil, HistoryResult{Snapshots: snapshots}, nil
}

// handleGetHourlyAverages returns hour-bucketed aggregates.
func (s *Server) handleGetHourlyAverages(ctx context.Context, _ *mcp.CallToolRequest, args HourlyAveragesArgs) (*mcp.CallToolResult, HourlyAveragesResult, error) {
	hours := args.Hours
	if hours == 0 {
		hours = 24
	}
	if hours > 168 {
		hours = 168
	}

	to := time.Now().UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)
	buckets, err := s.store.HourlyAverages(ctx, from, to)
	if err != nil {
		return nil, HourlyAveragesResult{}, fmt.Errorf("failed to query hourly averages: %w", err)
	}

	return nil, HourlyAveragesResult{Buckets: buckets}, nil
}

// handleQueryGraph executes Cypher queries.
func (s *Server) handleQueryGraph(ctx context.Context, _ *mcp.CallToolRequest, args QueryGraphArgs) (*mcp.CallToolResult, QueryGraphResult, error) {
	result, err := s.graphClient.ExecuteCypher(ctx, args.Cypher)
	if err != nil {
		return nil, QueryGraphResult{}, fmt.Errorf("cypher query failed: %w", err)
	}

	return nil, QueryGraphResult{Data: result}, nil
}

// Start starts the MCP server using stdio transport.
func (s *Server) Start(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "Starting SysInsight MCP Server on stdio...\n")
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}

// Close cleans up resources. The worker owns the graph client and
// resets it on the way down, so the session mirror is per-run.
func (s *Server) Close(ctx context.Context) error {
	s.worker.Stop()
	s.engine.Close()

	if s.geminiClient != nil {
		s.geminiClient.Close()
	}
	return nil
}
