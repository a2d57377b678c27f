// Package graph mirrors monitoring ticks into Neo4j so a session can be
// explored as hosts, snapshots, insights, and processes. The mirror is
// ephemeral: the worker resets it when the session ends.
package graph

import (
	"context"
	"fmt"
	"time"

	"sysinsight/internal/collector"
	"sysinsight/internal/output"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client defines the interface for graph database operations.
type Client interface {
	Close(ctx context.Context) error
	Reset(ctx context.Context) error
	IngestTick(ctx context.Context, host *collector.HostInfo, payload *output.TickPayload) error
	ExecuteCypher(ctx context.Context, query string) ([]map[string]any, error)
}

// Neo4jClient implements Client for Neo4j.
type Neo4jClient struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewNeo4jClient creates a new Neo4j client.
func NewNeo4jClient(uri, username, password, dbName string) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return &Neo4jClient{
		driver: driver,
		dbName: dbName,
	}, nil
}

func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Reset deletes all data in the graph.
func (c *Neo4jClient) Reset(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	return err
}

// IngestTick pushes one monitoring tick into the graph.
func (c *Neo4jClient) IngestTick(ctx context.Context, host *collector.HostInfo, payload *output.TickPayload) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// 1. Merge Host
		hostname, err := mergeHost(ctx, tx, host)
		if err != nil {
			return nil, err
		}

		// 2. Create Snapshot
		snapID, err := createSnapshot(ctx, tx, hostname, payload)
		if err != nil {
			return nil, err
		}

		// 3. Link Host -> Snapshot
		if err := linkHostSnapshot(ctx, tx, hostname, snapID); err != nil {
			return nil, err
		}

		// 4. Merge active Insights & link
		if err := createInsightLinks(ctx, tx, snapID, payload); err != nil {
			return nil, err
		}

		// 5. Merge top Processes & link
		if err := createProcessLinks(ctx, tx, snapID, hostname, payload.Reading.TopProcesses); err != nil {
			return nil, err
		}

		return nil, nil
	})

	return err
}

func mergeHost(ctx context.Context, tx neo4j.ManagedTransaction, host *collector.HostInfo) (string, error) {
	// Identity may be unavailable (lookup failed at startup); the graph
	// still needs an anchor node.
	if host == nil {
		host = &collector.HostInfo{Hostname: "unknown"}
	}
	hostname := host.Hostname
	if hostname == "" {
		hostname = "unknown"
	}

	query := `
		MERGE (h:Host {hostname: $hostname})
		SET h.os = $os,
			h.platform = $platform,
			h.platform_version = $platform_version,
			h.kernel_version = $kernel_version,
			h.arch = $arch
	`
	params := map[string]any{
		"hostname":         hostname,
		"os":               host.OS,
		"platform":         host.Platform,
		"platform_version": host.PlatformVersion,
		"kernel_version":   host.KernelVersion,
		"arch":             host.Architecture,
	}
	if _, err := tx.Run(ctx, query, params); err != nil {
		return "", err
	}
	return hostname, nil
}

func createSnapshot(ctx context.Context, tx neo4j.ManagedTransaction, hostname string, p *output.TickPayload) (string, error) {
	query := `
		CREATE (s:Snapshot {
			snapshot_id: $snapshot_id,
			collected_at: $collected_at,

			cpu_usage_pct: $cpu_usage,
			memory_used_pct: $memory_used,
			gpu_usage_pct: $gpu_usage,
			cpu_temp_c: $cpu_temp,
			gpu_temp_c: $gpu_temp,
			swap_used_bytes: $swap_used,

			system_status: $status,
			status_summary: $summary,
			active_insights: $active_count
		})
		RETURN elementId(s)
	`
	snap := p.Reading.Snapshot
	snapID := fmt.Sprintf("%s-%d", hostname, snap.Timestamp.UnixNano())

	params := map[string]any{
		"snapshot_id":   snapID,
		"collected_at":  snap.Timestamp.Format(time.RFC3339),
		"cpu_usage":     snap.CPUUsagePercent,
		"memory_used":   snap.MemoryUsedPercent(),
		"gpu_usage":     snap.GPUUsagePercent,
		"cpu_temp":      snap.CPUTemperatureC,
		"gpu_temp":      snap.GPUTemperatureC,
		"swap_used":     int64(snap.SwapUsedBytes),
		"status":        p.State.Status.String(),
		"summary":       p.State.Summary,
		"active_count":  len(p.State.Active),
	}

	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return "", err
	}

	rec, err := res.Single(ctx)
	if err != nil {
		return "", err
	}
	return rec.Values[0].(string), nil
}

func linkHostSnapshot(ctx context.Context, tx neo4j.ManagedTransaction, hostname, snapElementID string) error {
	query := `
		MATCH (h:Host {hostname: $hostname})
		MATCH (s:Snapshot) WHERE elementId(s) = $snap_id
		CREATE (h)-[:HAS_SNAPSHOT]->(s)
	`
	_, err := tx.Run(ctx, query, map[string]any{
		"hostname": hostname,
		"snap_id":  snapElementID,
	})
	return err
}

func createInsightLinks(ctx context.Context, tx neo4j.ManagedTransaction, snapElementID string, p *output.TickPayload) error {
	for _, ins := range p.State.Active {
		query := `
			MATCH (s:Snapshot) WHERE elementId(s) = $snap_id
			MERGE (i:Insight {insight_id: $insight_id})
			SET i.title = $title,
				i.category = $category,
				i.severity = $severity,
				i.symptom = $symptom,
				i.root_cause = $root_cause,
				i.counterfactual = $counterfactual,
				i.confidence = $confidence,
				i.last_seen = $last_seen
			CREATE (s)-[:RAISED {severity: $severity, current_value: $current, threshold_value: $threshold}]->(i)
		`
		var current, threshold float64
		if ins.Metrics != nil {
			current = ins.Metrics.CurrentValue
			threshold = ins.Metrics.ThresholdValue
		}
		params := map[string]any{
			"snap_id":        snapElementID,
			"insight_id":     ins.ID,
			"title":          ins.Title,
			"category":       ins.Category.String(),
			"severity":       ins.Severity.String(),
			"symptom":        ins.Symptom,
			"root_cause":     ins.RootCause,
			"counterfactual": ins.Counterfactual,
			"confidence":     ins.Confidence,
			"last_seen":      ins.Timestamp.Format(time.RFC3339),
			"current":        current,
			"threshold":      threshold,
		}
		if _, err := tx.Run(ctx, query, params); err != nil {
			return err
		}
	}
	return nil
}

func createProcessLinks(ctx context.Context, tx neo4j.ManagedTransaction, snapElementID, hostname string, procs []collector.ProcessStat) error {
	// Process identity is the name, not the PID; PIDs recycle across a
	// session while "chrome" stays "chrome".
	for _, proc := range procs {
		query := `
			MATCH (s:Snapshot) WHERE elementId(s) = $snap_id
			MERGE (p:Process {name: $name, host: $hostname})
			CREATE (s)-[:OBSERVED_PROCESS {
				pid: $pid,
				cpu_pct: $cpu,
				memory_pct: $mem
			}]->(p)
		`
		params := map[string]any{
			"snap_id":  snapElementID,
			"name":     proc.Name,
			"hostname": hostname,
			"pid":      int64(proc.PID),
			"cpu":      proc.CPU,
			"mem":      float64(proc.Memory),
		}
		if _, err := tx.Run(ctx, query, params); err != nil {
			return err
		}
	}
	return nil
}
