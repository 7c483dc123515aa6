package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"asanaid/internal/adapters/asana"
	"asanaid/internal/adapters/cachefile"
	mcpadapter "asanaid/internal/adapters/mcp"
	"asanaid/internal/config"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath, "path to the config file")
	cacheFlag := flag.String("cache", cachefile.DefaultPath, "path to the cache file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("asanaid-mcp: %v", err)
	}

	client := asana.NewClient(cfg.AsanaToken)
	store := cachefile.NewStore(*cacheFlag)

	mcpServer := server.NewMCPServer(
		"asanaid-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterTools(mcpServer, client, store, cfg)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("asanaid-mcp: %v", err)
	}
}
