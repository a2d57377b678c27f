package state

import (
	"time"

	"sysinsight/internal/output"
	"sysinsight/internal/trend"
)

type Page int

const (
	PageMenu Page = iota
	PageConsole   // "Console Output View"
	PageDashboard // "Full System Dashboard"
	PageCPU       // "CPU Telemetry & Cores"
	PageInsights  // "Insights & Diagnostics"
	PageTrends    // "Usage Trends & History"
)

// AppState holds what the views render from: the latest evaluated tick
// and the latest trend analysis, both pulled from the ingest worker.
type AppState struct {
	Payload    *output.TickPayload
	Analysis   *trend.AnalysisResult
	LastUpdate time.Time
	Err        error

	ConsoleLogs []string

	CurrentPage Page
}
