package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sysinsight/internal/collector"
	"sysinsight/internal/graph"
	"sysinsight/internal/history"
	"sysinsight/internal/insight"
	"sysinsight/internal/pipeline"
	"sysinsight/internal/trend"
	"sysinsight/ui/console"
	"sysinsight/ui/tui"
)

func main() {
	report := flag.Bool("report", false, "print a one-shot console report and exit")
	dbPath := flag.String("db", envOr("DUCKDB_PATH", "sysinsight.duckdb"), "history database file (empty for in-memory)")
	flag.Parse()

	if err := run(*report, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(report bool, dbPath string) error {
	ctx := context.Background()

	db, err := openHistory(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer db.Close()

	store := history.NewStore(db.DB())
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}

	engine, err := insight.NewEngine(insight.DefaultEngineConfig())
	if err != nil {
		return fmt.Errorf("create insight engine: %w", err)
	}
	defer engine.Close()

	analyzer, err := trend.NewAnalyzer(store, trend.DefaultAnalysisConfig())
	if err != nil {
		return fmt.Errorf("create trend analyzer: %w", err)
	}

	provider := collector.NewSystemCollector(collector.DefaultCollectorConfig())

	// The graph mirror is optional; without NEO4J_URI the worker runs
	// with history and insights only.
	var graphClient graph.Client
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		client, err := graph.NewNeo4jClient(uri,
			envOr("NEO4J_USERNAME", "neo4j"),
			os.Getenv("NEO4J_PASSWORD"),
			envOr("NEO4J_DATABASE", "neo4j"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Neo4j unavailable, session mirror disabled: %v\n", err)
		} else {
			graphClient = client
		}
	}

	worker, err := pipeline.NewWorker(provider, store, engine, analyzer, graphClient, pipeline.DefaultWorkerConfig())
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	if report {
		if err := worker.PullOnce(ctx); err != nil {
			return fmt.Errorf("collect snapshot: %w", err)
		}
		payload := worker.LatestTick()
		console.Print(os.Stdout, payload.View)
		console.PrintInsights(os.Stdout, payload.State.Active)
		worker.Stop()
		return nil
	}

	if err := worker.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	err = tui.Start(worker)
	worker.Stop()
	return err
}

func openHistory(path string) (*history.DuckDBClient, error) {
	if path == "" {
		return history.NewInMemoryDB()
	}
	return history.NewFileDB(path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
