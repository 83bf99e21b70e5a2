// Command sync performs one full rescan of the plots tree into the
// database. Exit code 0 on success, 1 when no database is configured
// or the scan/commit fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pyplots/pyplots-backend/internal/app"
	"github.com/pyplots/pyplots-backend/internal/ingestion"
	"github.com/pyplots/pyplots-backend/internal/platform/db"
	"github.com/pyplots/pyplots-backend/internal/platform/envutil"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	plotsDir := flag.String("plots", "", "plots directory (overrides PLOTS_DIR)")
	flag.Parse()

	log, err := logger.New(envutil.Get("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	cfg := app.LoadConfig()
	if *plotsDir != "" {
		cfg.PlotsDir = *plotsDir
	}

	if !cfg.DB.Configured() {
		log.Error("no database configured; set DATABASE_URL or the DB_* variables")
		return 1
	}

	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Error("open database", "error", err)
		return 1
	}
	defer db.Close(gdb)

	if err := db.AutoMigrate(gdb); err != nil {
		log.Error("automigrate", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := ingestion.NewSyncer(gdb, log, cfg.PlotsDir, nil).Run(ctx)
	if err != nil {
		log.Error("sync failed", "error", err)
		return 1
	}

	fmt.Printf("sync complete: specs_synced=%d specs_removed=%d impls_synced=%d impls_removed=%d\n",
		result.SpecsSynced, result.SpecsRemoved, result.ImplsSynced, result.ImplsRemoved)
	return 0
}
