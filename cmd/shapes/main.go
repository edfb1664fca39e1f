package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/shapelab/engine/internal/config"
	"github.com/shapelab/engine/internal/core/event"
	coresys "github.com/shapelab/engine/internal/core/system"
	"github.com/shapelab/engine/internal/data"
	"github.com/shapelab/engine/internal/game"
	"github.com/shapelab/engine/internal/level"
	"github.com/shapelab/engine/internal/persist"
	"github.com/shapelab/engine/internal/scripting"
	"github.com/shapelab/engine/internal/system"
	"github.com/shapelab/engine/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/shapes.toml"
	if p := os.Getenv("SHAPES_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
		log.Info("profiling enabled", zap.String("mode", cfg.Profile.Mode), zap.String("path", cfg.Profile.Path))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Snapshot storage
	printSection("Storage")
	snapshots, repo, closeStore, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Data tables
	printSection("Data")
	factoryTable, err := data.LoadFactoryTable(cfg.Data.Factories)
	if err != nil {
		return fmt.Errorf("load factory table: %w", err)
	}
	printStat("Factories", factoryTable.Count())

	levelTable, err := data.LoadLevelTable(cfg.Data.Levels)
	if err != nil {
		return fmt.Errorf("load level table: %w", err)
	}
	printStat("Levels", levelTable.Count())

	scripts, err := scripting.NewEngine(cfg.Data.Scripts, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	var hook level.SpawnHook
	if scripts.HasSpawnHook() {
		hook = scripts
		printOK("Lua spawn hook loaded")
	}
	fmt.Println()

	// 5. World
	store := world.NewStore(log.Named("store"))
	registry := world.NewRegistry(store, log)
	game.RegisterFactories(registry, factoryTable, log)

	bus := event.NewBus()
	g := game.New(
		registry,
		level.NewTableLoader(levelTable, registry, log),
		level.NewSpawner(hook, log.Named("spawn")),
		snapshots,
		bus,
		game.OptionsFromConfig(cfg.Simulation),
		log,
	)
	subscribeEvents(bus, repo, cfg.Storage.KeepSnapshots, log)

	if err := startGame(ctx, g, cfg.Storage, log); err != nil {
		return err
	}

	// 6. Systems
	runner := coresys.NewRunner()
	persistSys := system.NewPersistenceSystem(g, cfg.Storage.Slot, log, cfg.Storage.AutosaveIntervalTicks)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewSimulationSystem(g))
	runner.Register(persistSys)

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("Running")
	printReady(fmt.Sprintf("Level %d (%s)", g.Level().ID, g.Level().Name))
	printReady(fmt.Sprintf("Game loop started (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if err := persistSys.SaveNow(); err != nil {
				log.Error("final save failed", zap.Error(err))
			}
			bus.SwapBuffers()
			bus.DispatchAll()
			log.Info("stopped", zap.Int("shapes", store.Len()))
			return nil
		}
	}
}

// openSnapshots returns the configured snapshot store. repo is non-nil only
// for the postgres backend.
func openSnapshots(ctx context.Context, cfg *config.Config, log *zap.Logger) (persist.SnapshotStore, *persist.SlotRepo, func(), error) {
	if cfg.Storage.Backend == "file" {
		fs, err := persist.NewFileStore(cfg.Storage.SaveDir, log.Named("files"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("file store: %w", err)
		}
		printOK(fmt.Sprintf("Saving to %s", cfg.Storage.SaveDir))
		return fs, nil, func() {}, nil
	}

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")
	if err := persist.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK("Migrations applied")

	repo := persist.NewSlotRepo(db, log.Named("slots"))
	history, err := repo.History(ctx, cfg.Storage.Slot, 5)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("slot history: %w", err)
	}
	printStat(fmt.Sprintf("Snapshots in %q", cfg.Storage.Slot), len(history))
	if len(history) > 0 {
		last := history[0]
		log.Info("latest snapshot",
			zap.String("id", last.ID.String()),
			zap.Int32("version", last.Version),
			zap.Int32("shapes", last.ShapeCount),
			zap.Int32("level", last.SceneID),
			zap.Time("saved_at", last.SavedAt),
		)
	}
	return repo, repo, db.Close, nil
}

// startGame resumes the configured slot when asked to and falls back to a
// new game when there is nothing usable to resume.
func startGame(ctx context.Context, g *game.Game, cfg config.StorageConfig, log *zap.Logger) error {
	if cfg.LoadOnStart {
		err := g.Load(ctx, cfg.Slot)
		if err == nil {
			printStat("Shapes restored", g.Store().Len())
			return nil
		}
		if errors.Is(err, persist.ErrNoSnapshot) {
			log.Info("no saved game, starting fresh", zap.String("slot", cfg.Slot))
		} else {
			log.Warn("saved game unusable, starting fresh", zap.String("slot", cfg.Slot), zap.Error(err))
		}
	}
	if err := g.NewGame(ctx); err != nil {
		return fmt.Errorf("new game: %w", err)
	}
	return nil
}

func subscribeEvents(bus *event.Bus, repo *persist.SlotRepo, keep int, log *zap.Logger) {
	event.Subscribe(bus, func(e event.LevelLoaded) {
		log.Debug("level active", zap.Int32("id", e.LevelID), zap.String("name", e.Name))
	})
	if repo == nil || keep <= 0 {
		return
	}
	event.Subscribe(bus, func(e event.GameSaved) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := repo.Prune(ctx, e.Slot, keep)
		if err != nil {
			log.Warn("prune snapshots", zap.String("slot", e.Slot), zap.Error(err))
			return
		}
		if n > 0 {
			log.Debug("old snapshots pruned", zap.String("slot", e.Slot), zap.Int64("deleted", n))
		}
	})
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "allocs":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}
