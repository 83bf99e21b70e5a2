// Command mcp runs the catalog tool-call adapter over stdio. MCP
// clients (Claude Desktop, editors) launch it as a subprocess; logs go
// to stderr so stdout stays a clean protocol stream.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/pyplots/pyplots-backend/internal/app"
	"github.com/pyplots/pyplots-backend/internal/mcptools"
	"github.com/pyplots/pyplots-backend/internal/platform/envutil"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	log, err := logger.New(envutil.Get("LOG_MODE", "production"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	cfg := app.LoadConfig()

	tools, err := mcptools.New(cfg.DB, cfg.BaseURL, log)
	if err != nil {
		log.Error("init tools", "error", err)
		return 1
	}
	defer tools.Close()

	if err := server.ServeStdio(tools.Server()); err != nil {
		log.Error("serve stdio", "error", err)
		return 1
	}
	return 0
}
