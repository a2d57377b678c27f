package output

import (
	"context"
	"fmt"

	"sysinsight/internal/collector"
	"sysinsight/internal/insight"
	"sysinsight/internal/metrics"
)

// TickPayload represents one evaluated tick, ready for the UI layers.
// The ingest worker caches the newest one for consumers to poll.
type TickPayload struct {
	Reading collector.Reading
	State   insight.EngineState
	View    DashboardView

	// RecordErr carries a history write failure. Persistence trouble
	// degrades the tick, it never aborts it.
	RecordErr error
}

// SnapshotSource defines the interface for producing readings.
type SnapshotSource interface {
	Collect(ctx context.Context) (*collector.Reading, error)
}

// SnapshotSink defines the interface for persisting snapshots.
type SnapshotSink interface {
	Record(ctx context.Context, snap metrics.Snapshot) error
}

// Diagnoser defines the interface for deriving extra insights from a
// reading (throttle, imbalance, forecast, cached leak suspects).
type Diagnoser interface {
	Diagnose(reading *collector.Reading) []metrics.Insight
}

// InsightEvaluator defines the interface for the rule engine.
type InsightEvaluator interface {
	Evaluate(snap metrics.Snapshot, extras ...metrics.Insight)
	State() insight.EngineState
}

// RunTick executes one ingest tick: Collect -> Record -> Diagnose ->
// Evaluate -> Bundle. Only a collection failure is fatal for the tick.
func RunTick(
	ctx context.Context,
	src SnapshotSource,
	sink SnapshotSink,
	diag Diagnoser,
	eng InsightEvaluator,
) (*TickPayload, error) {
	reading, err := src.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	recordErr := sink.Record(ctx, reading.Snapshot)

	var extras []metrics.Insight
	if diag != nil {
		extras = diag.Diagnose(reading)
	}

	eng.Evaluate(reading.Snapshot, extras...)
	state := eng.State()

	return &TickPayload{
		Reading:   *reading,
		State:     state,
		View:      BuildDashboard(*reading, state),
		RecordErr: recordErr,
	}, nil
}
