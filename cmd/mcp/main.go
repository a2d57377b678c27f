package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sysinsight/internal/collector"
	"sysinsight/internal/history"
	"sysinsight/internal/mcpserver"
)

func main() {
	// Load environment variables
	loadEnvFile("env/.env")
	loadEnvFile(".env")

	ctx := context.Background()

	db, err := openHistory(os.Getenv("DUCKDB_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	store := history.NewStore(db.DB())
	if err := store.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate history schema: %v\n", err)
		os.Exit(1)
	}

	provider := collector.NewSystemCollector(collector.DefaultCollectorConfig())

	cfg := mcpserver.Config{
		ServerName:    "sysinsight",
		ServerVersion: "1.0.0",
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   os.Getenv("GEMINI_MODEL"),
		Neo4jURI:      os.Getenv("NEO4J_URI"),
		Neo4jUser:     os.Getenv("NEO4J_USERNAME"),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
		Neo4jDatabase: os.Getenv("NEO4J_DATABASE"),
	}

	server, err := mcpserver.NewServer(cfg, store, provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create MCP server: %v\n", err)
		os.Exit(1)
	}
	defer server.Close(ctx)

	// Run blocks until the client disconnects or the context ends.
	if err := server.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server stopped: %v\n", err)
		os.Exit(1)
	}
}

func openHistory(path string) (*history.DuckDBClient, error) {
	if path == "" {
		return history.NewFileDB("sysinsight.duckdb")
	}
	return history.NewFileDB(path)
}

func loadEnvFile(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	file, err := os.Open(absPath)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, `"'`)
			os.Setenv(key, value)
		}
	}
}
