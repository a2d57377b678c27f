package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client ./sysinsight-mcp")
		os.Exit(2)
	}

	ctx := context.Background()

	// Start the server as a subprocess
	cmd := exec.Command(args[0], args[1:]...)
	transport := &mcp.CommandTransport{Command: cmd}

	// Create MCP client
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "sysinsight-client",
		Version: "1.0.0",
	}, nil)

	// Connect to the server
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	fmt.Println("Connected to SysInsight MCP Server!")
	fmt.Println("Available commands:")
	fmt.Println("  /tools             - List available tools")
	fmt.Println("  /status            - Current status and active insights")
	fmt.Println("  /metrics           - Get a fresh reading")
	fmt.Println("  /diag              - Run the diagnostic cycle once")
	fmt.Println("  /insights          - Active and resolved insights")
	fmt.Println("  /summary [period]  - Usage summary (day/week/month)")
	fmt.Println("  /history [limit]   - Recent snapshots")
	fmt.Println("  /graph <cypher>    - Execute Cypher query")
	fmt.Println("  /exit              - Exit the client")
	fmt.Println("  <question>         - Ask a question using GraphRAG")
	fmt.Println()

	// Interactive REPL
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "/exit":
			fmt.Println("Goodbye!")
			return

		case input == "/tools":
			listTools(ctx, session)

		case input == "/status":
			callTool(ctx, session, "get_current_status", map[string]interface{}{})

		case input == "/metrics":
			callTool(ctx, session, "get_realtime_metrics", map[string]interface{}{})

		case input == "/diag":
			callTool(ctx, session, "run_diagnostics", map[string]interface{}{})

		case input == "/insights":
			callTool(ctx, session, "get_insights", map[string]interface{}{
				"include_history": true,
			})

		case strings.HasPrefix(input, "/summary"):
			args := map[string]interface{}{}
			if parts := strings.Fields(input); len(parts) > 1 {
				args["period"] = parts[1]
			}
			callTool(ctx, session, "get_usage_summary", args)

		case strings.HasPrefix(input, "/history"):
			args := map[string]interface{}{}
			if parts := strings.Fields(input); len(parts) > 1 {
				if limit, err := strconv.Atoi(parts[1]); err == nil {
					args["limit"] = limit
				}
			}
			callTool(ctx, session, "get_history", args)

		case strings.HasPrefix(input, "/graph "):
			cypher := strings.TrimPrefix(input, "/graph ")
			callTool(ctx, session, "query_graph", map[string]interface{}{
				"cypher": cypher,
			})

		default:
			// Treat as a question for ask_insight
			callTool(ctx, session, "ask_insight", map[string]interface{}{
				"question": input,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Scanner error: %v", err)
	}
}

func listTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("Available Tools:")
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			log.Printf("Error listing tools: %v", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func callTool(ctx context.Context, session *mcp.ClientSession, toolName string, args map[string]interface{}) {
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		log.Printf("Error calling tool: %v", err)
		return
	}

	printResult(result)
}

func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Printf("❌ Error: ")
	} else {
		fmt.Printf("✅ Result: ")
	}

	// Try to pretty-print the content
	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			fmt.Println(v.Text)
		default:
			// Try JSON marshaling for other types
			jsonData, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Printf("%+v\n", content)
			} else {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
}
