// Command underkeep runs the dungeon colony simulation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/underkeep/internal/api"
	"github.com/talgya/underkeep/internal/config"
	"github.com/talgya/underkeep/internal/engine"
	"github.com/talgya/underkeep/internal/persistence"
)

const autosaveName = "autosave"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Underkeep: dungeon colony simulation")

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Colony (resume the newest save, else generate) ────────────────
	colony := loadOrCreate(cfg, db)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval
	eng.ReportEvery = cfg.ReportEveryTicks
	eng.SetSpeed(cfg.Speed)
	eng.Paused = colony.Paused
	eng.OnReport = colony.Report
	eng.OnTick = func() uint64 {
		tick := colony.Tick()
		if cfg.AutosaveEveryTicks > 0 && tick%cfg.AutosaveEveryTicks == 0 {
			autosave(db, colony)
		}
		return tick
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn(config.AdminKeyEnv + " not set, admin POST endpoints are disabled")
	}
	var apiServer *api.Server
	if cfg.APIPort > 0 {
		apiServer = &api.Server{
			Colony:   colony,
			Eng:      eng,
			DB:       db,
			Port:     cfg.APIPort,
			AdminKey: cfg.AdminKey,
		}
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if apiServer != nil {
		srv := apiServer.Start()
		defer api.Shutdown(srv, 5*time.Second)
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}

	st := colony.Status()
	fmt.Printf("\nThe keep is dug in: %d workers guarding %s gold (seed %d).\n",
		st.Workers, humanize.Comma(int64(st.SecuredGold)), st.Seed)
	if st.Tick > 0 {
		fmt.Printf("Resuming from tick %d\n", st.Tick)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("engine stopped", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	autosave(db, colony)
	fmt.Println("Simulation stopped. Colony saved.")
}

// loadOrCreate resumes the newest save when configured to, falling back to
// a fresh colony when there is none or it cannot be used.
func loadOrCreate(cfg config.Config, db *persistence.DB) *engine.Colony {
	if cfg.Resume {
		st, info, err := db.LoadLatest()
		switch {
		case err == nil:
			colony, err := engine.Restore(st, cfg.Options())
			if err == nil {
				slog.Info("colony restored", "save", info.Name, "tick", st.Tick, "saved", humanize.Time(info.Created()))
				return colony
			}
			slog.Error("save rejected, generating a new colony", "save", info.Name, "error", err)
		case errors.Is(err, persistence.ErrNoSaves):
			slog.Info("no saves found, generating a new colony")
		default:
			slog.Error("failed to load latest save, generating a new colony", "error", err)
		}
	}
	return engine.New(cfg.Options())
}

func autosave(db *persistence.DB, colony *engine.Colony) {
	if _, err := db.Save(autosaveName, colony.Export()); err != nil {
		slog.Error("autosave failed", "error", err)
	}
}
