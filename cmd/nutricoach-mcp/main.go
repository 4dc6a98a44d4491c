// nutricoach-mcp exposes the capture and coaching tools over the Model Context
// Protocol on stdio, so MCP-capable agents can log meals and read progress.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nutricoach"
	"nutricoach/capture"
	"nutricoach/coach"
	"nutricoach/gateway"
	"nutricoach/session"
	"nutricoach/tools"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		slog.Info("SETUP: No .env file found, using process environment")
	}

	var backendConfig nutricoach.BackendConfig
	if err := envdecode.Decode(&backendConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	store, err := gateway.NewClient(gateway.ClientOpts{BaseURL: backendConfig.BaseURL})
	if err != nil {
		slog.Error("SETUP: Failed to create backend client", "error", err)
		os.Exit(1)
	}

	audit := nutricoach.NewStdoutAnalysisLogger()
	ctrl, err := session.NewController(session.ControllerOpts{
		Store:   store,
		Capture: capture.NewOrchestrator(store, nil, audit),
		Coach:   coach.NewAdvisor(store, audit),
	})
	if err != nil {
		slog.Error("SETUP: Failed to create session controller", "error", err)
		os.Exit(1)
	}

	registry, err := tools.NewRegistry(ctrl)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		os.Exit(1)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nutricoach",
		Version: "0.1.0",
	}, nil)

	for _, tool := range registry.GetTools() {
		addTool(server, tool)
	}

	slog.Info("SETUP: MCP server ready", "tools", len(registry.GetTools()))
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		slog.Error("RESULT: Server stopped", "error", err)
		os.Exit(1)
	}
}

func addTool(server *mcp.Server, tool tools.Tool) {
	handler := func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[map[string]any], error) {
		output, err := tool.Run(ctx, params.Arguments)
		if err != nil {
			slog.Error("TOOL: Run failed", "tool", tool.Name(), "error", err)
			return nil, err
		}

		b, err := json.Marshal(output)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResultFor[map[string]any]{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(b)}},
			StructuredContent: output,
		}, nil
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:         tool.Name(),
		Title:        tool.Title(),
		Description:  tool.Description(),
		InputSchema:  tool.InputSchema(),
		OutputSchema: tool.OutputSchema(),
	}, handler)
}
