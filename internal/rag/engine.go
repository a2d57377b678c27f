// Package rag answers natural-language questions about the monitoring
// session by retrieving a relevant subgraph from Neo4j and handing it to
// Gemini for synthesis.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sysinsight/internal/graph"

	"github.com/google/generative-ai-go/genai"
)

// ModelConfig defines configuration for a Gemini model.
type ModelConfig struct {
	Name        string
	Temperature float32
	TopP        float32
	TopK        int32
}

// AvailableModels defines the available Gemini models and their configurations.
var AvailableModels = map[string]ModelConfig{
	"flash": {
		Name:        "gemini-flash-latest",
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
	},
	"pro": {
		Name:        "gemini-pro-latest",
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
	},
	"flash-2": {
		Name:        "gemini-2.0-flash",
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
	},
	"experimental": {
		Name:        "gemini-2.0-flash-exp",
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
	},
}

// Engine handles retrieval augmented generation over the session graph.
type Engine struct {
	graphClient  graph.Client
	geminiClient *genai.Client
	modelName    string
	config       ModelConfig
}

// NewEngine constructs an engine backed by the provided graph client.
func NewEngine(graphClient graph.Client, gemini *genai.Client, modelKey string) *Engine {
	if modelKey == "" {
		modelKey = "pro" // Default to pro for best quality
	}

	config, ok := AvailableModels[modelKey]
	if !ok {
		// Fallback to pro if unknown model
		config = AvailableModels["pro"]
	}

	return &Engine{
		graphClient:  graphClient,
		geminiClient: gemini,
		modelName:    config.Name,
		config:       config,
	}
}

// getModel returns a configured GenerativeModel instance.
func (e *Engine) getModel() *genai.GenerativeModel {
	model := e.geminiClient.GenerativeModel(e.modelName)
	model.SetTemperature(e.config.Temperature)
	model.SetTopP(e.config.TopP)
	model.SetTopK(e.config.TopK)
	return model
}

// Query performs a GraphRAG search over the session graph.
func (e *Engine) Query(ctx context.Context, question string) (string, error) {
	// Step 1: Generate Cypher query using Gemini
	cypher, err := e.generateCypher(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to generate cypher: %w", err)
	}

	// Step 2: Execute query on Neo4j to retrieve the relevant subgraph
	graphData, err := e.graphClient.ExecuteCypher(ctx, cypher)
	if err != nil || len(graphData) == 0 {
		// If the generated query fails or returns nothing, fall back to
		// the latest snapshots with everything attached to them.
		cypher = `
			MATCH (h:Host)-[:HAS_SNAPSHOT]->(s:Snapshot)
			OPTIONAL MATCH (s)-[r:RAISED]->(i:Insight)
			OPTIONAL MATCH (s)-[o:OBSERVED_PROCESS]->(p:Process)
			WITH h, s,
				 collect(DISTINCT {title: i.title, severity: i.severity, root_cause: i.root_cause}) as insights,
				 collect(DISTINCT {name: p.name, cpu_pct: o.cpu_pct}) as processes
			RETURN h.hostname as host,
				   s.cpu_usage_pct as cpu_pct,
				   s.memory_used_pct as memory_pct,
				   s.gpu_usage_pct as gpu_pct,
				   s.cpu_temp_c as cpu_temp,
				   s.system_status as status,
				   s.collected_at as timestamp,
				   insights,
				   processes
			ORDER BY s.collected_at DESC
			LIMIT 5
		`
		graphData, err = e.graphClient.ExecuteCypher(ctx, cypher)
		if err != nil {
			return "", fmt.Errorf("failed to execute graph query: %w", err)
		}
	}

	// Step 3: Synthesize an answer using Gemini with the graph context
	answer, err := e.synthesizeAnswer(ctx, question, graphData)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return answer, nil
}

// generateCypher uses Gemini to convert a natural language question into a Cypher query.
func (e *Engine) generateCypher(ctx context.Context, question string) (string, error) {
	model := e.getModel()

	prompt := fmt.Sprintf(`You are a Neo4j Cypher query expert. Convert the following question into a Cypher query for a desktop performance monitoring graph database.

Graph Schema:
- Nodes: Host, Snapshot, Insight, Process
- Relationships:
  - (Host)-[:HAS_SNAPSHOT]->(Snapshot)
  - (Snapshot)-[:RAISED {severity, current_value, threshold_value}]->(Insight)
  - (Snapshot)-[:OBSERVED_PROCESS {pid, cpu_pct, memory_pct}]->(Process)

Snapshot properties: snapshot_id, collected_at, cpu_usage_pct, memory_used_pct, gpu_usage_pct, cpu_temp_c, gpu_temp_c, swap_used_bytes, system_status, status_summary, active_insights
Insight properties: insight_id, title, category, severity, symptom, root_cause, counterfactual, confidence, last_seen (insight_id looks like "cpu:cpu-saturation" or "thermal:high-temperature")
Process properties: name, host

Question: %s

Return ONLY the Cypher query, no explanation. Limit results to 10.`, question)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	cypher := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	// Clean up markdown code blocks if present
	cypher = cleanCypherQuery(cypher)

	return cypher, nil
}

// synthesizeAnswer uses Gemini to generate a natural language answer from graph data.
func (e *Engine) synthesizeAnswer(ctx context.Context, question string, graphData []map[string]any) (string, error) {
	model := e.getModel()

	// Convert graph data to JSON for context
	graphJSON, err := json.MarshalIndent(graphData, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are a desktop performance diagnostician. Answer the following question based on the graph database results from a monitoring session.

Question: %s

Graph Data (from Neo4j):
%s

Provide a clear, concise answer explaining:
1. What the data shows
2. The observed symptom and its root cause if applicable
3. Severity and what would change if the cause were addressed
4. Recommended actions if relevant

If the graph data is empty or insufficient, say so clearly.`, question, string(graphJSON))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "Unable to generate response from the available data.", nil
	}

	answer := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return answer, nil
}

// cleanCypherQuery removes markdown code blocks from Cypher queries.
func cleanCypherQuery(query string) string {
	// Remove ```cypher and ``` markers
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, "```cypher")
	query = strings.TrimPrefix(query, "```")
	query = strings.TrimSuffix(query, "```")
	return strings.TrimSpace(query)
}
