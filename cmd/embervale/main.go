package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/embervale/server/internal/config"
	coresys "github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/core/sched"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/handler"
	gonet "github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/scripting"
	"github.com/embervale/server/internal/system"
	"github.com/embervale/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Embervale  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      persistent world simulation core     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

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

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("EMBERVALE_CONFIG"); p != "" {
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

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations. An empty DSN runs
	// the world without persistence: guest joins, nothing saved.
	var (
		accountRepo *persist.AccountRepo
		playerRepo  *persist.PlayerRepo
	)
	if cfg.Database.DSN != "" {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()

		accountRepo = persist.NewAccountRepo(db)
		playerRepo = persist.NewPlayerRepo(db)
	} else {
		log.Warn("no database DSN configured, running without persistence")
	}

	// 4. Create world state and load data tables
	worldState := world.NewState()

	printSection("data load")

	dataDir := cfg.Server.DataDir
	mapData, err := data.LoadMapData(filepath.Join(dataDir, "map"))
	if err != nil {
		return fmt.Errorf("load map data: %w", err)
	}
	printStat("map tiles", mapData.Width()*mapData.Height())

	npcTable, err := data.LoadNpcTable(filepath.Join(dataDir, "npc_list.yaml"))
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("npc templates", npcTable.Count())

	spawnList, err := data.LoadSpawnList(filepath.Join(dataDir, "spawn_list.yaml"))
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}

	itemTable, err := data.LoadItemTable(filepath.Join(dataDir, "item_list.yaml"))
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	resourceTable, err := data.LoadResourceTable(filepath.Join(dataDir, "resource_list.yaml"))
	if err != nil {
		return fmt.Errorf("load resource table: %w", err)
	}
	printStat("resource templates", resourceTable.Count())

	resourceSpawns, err := data.LoadResourceSpawns(filepath.Join(dataDir, "resource_spawns.yaml"))
	if err != nil {
		return fmt.Errorf("load resource spawns: %w", err)
	}

	shopTable, err := data.LoadShopTable(filepath.Join(dataDir, "shop_list.yaml"))
	if err != nil {
		return fmt.Errorf("load shop table: %w", err)
	}
	printStat("shops", shopTable.Count())

	groundSpawns, err := data.LoadGroundSpawns(filepath.Join(dataDir, "ground_spawns.yaml"))
	if err != nil {
		return fmt.Errorf("load ground spawns: %w", err)
	}
	printStat("ground spawn points", len(groundSpawns))

	// 5. Initialize Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Server.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")

	// 6. Create network server and session store
	netServer := gonet.NewServer(gonet.ServerOptions{
		BindAddress:  cfg.Network.BindAddress,
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		MsgPerSec:    cfg.Network.MaxMsgsPerSec,
		WriteTimeout: cfg.Network.WriteTimeout,
		ReadTimeout:  cfg.Network.ReadTimeout,
	}, log)
	store := gonet.NewSessionStore()
	gateway := handler.NewSessionGateway(store, log)

	// 7. Create the scheduler and the world managers
	scheduler := sched.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now

	npcEngine := system.NewNpcEngine(worldState, mapData, npcTable, scheduler, gateway, luaEngine, rng, now, log)
	resourceMgr := system.NewResourceManager(worldState, resourceTable, itemTable, scheduler, gateway, cfg.World.ActionDebounce, now, log)
	groundMgr := system.NewGroundItemManager(worldState, itemTable, scheduler, gateway, cfg.World.ItemDespawn, cfg.World.PickupRange, now, log)
	shopMgr := system.NewShopManager(worldState, shopTable, itemTable, scheduler, gateway, cfg.World.PlayerSoldCap, cfg.World.SoldExpiry, now, log)

	printSection("world seed")
	printStat("shops open", shopMgr.Instantiate())
	printStat("npcs spawned", npcEngine.SpawnAll(spawnList))
	printStat("resource nodes", seedResourceNodes(worldState, resourceTable, resourceSpawns, log))
	groundMgr.StartSystemSpawns(groundSpawns, cfg.World.SpawnScanEvery)
	fmt.Println()

	// 8. Create message registry and register handlers
	registry := message.NewRegistry(log)
	deps := &handler.Deps{
		Config:      cfg,
		Log:         log,
		World:       worldState,
		Store:       store,
		Npcs:        npcEngine,
		Resources:   resourceMgr,
		Ground:      groundMgr,
		Shops:       shopMgr,
		AccountRepo: accountRepo,
		PlayerRepo:  playerRepo,
		Now:         now,
	}
	handler.RegisterAll(registry, deps)

	// 9. Build the persistence hook and the system runner
	var saveFn system.SaveFunc
	if playerRepo != nil {
		saveFn = func(ctx context.Context, p *world.PlayerInfo) error {
			return playerRepo.Save(ctx, handler.ProfileRow(p))
		}
	}
	persistSys := system.NewPersistenceSystem(worldState, saveFn, cfg.World.SaveEvery, now, log)

	onDisconnect := func(sess *gonet.Session, p *world.PlayerInfo) {
		if p == nil || saveFn == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := saveFn(ctx, p); err != nil {
			log.Error("disconnect save failed", zap.String("name", p.Name), zap.Error(err))
		}
	}

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, registry, store, worldState, cfg.Network.MaxMsgsPerTick, onDisconnect, log))
	runner.Register(system.NewTimerSystem(scheduler, now))
	runner.Register(system.NewOutputSystem(store))
	runner.Register(persistSys)

	// 10. Start listening and run the game loop
	go func() {
		if err := netServer.ListenAndServe(); err != nil {
			log.Error("listener stopped", zap.Error(err))
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			persistSys.SaveAll()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := netServer.Shutdown(ctx)
			cancel()
			if err != nil {
				log.Warn("listener shutdown", zap.Error(err))
			}
			log.Info("server stopped")
			return nil
		}
	}
}

// seedResourceNodes places a node for every spawn entry. Entries naming
// an unknown resource type or an unwalkable tile are skipped with a
// warning instead of failing boot.
func seedResourceNodes(ws *world.State, resources *data.ResourceTable, spawns []data.ResourceSpawn, log *zap.Logger) int {
	total := 0
	for _, sp := range spawns {
		tpl := resources.Get(sp.ResourceID)
		if tpl == nil {
			log.Warn("spawn: unknown resource type", zap.String("resource", sp.ResourceID))
			continue
		}
		pos := world.Position{X: sp.X, Y: sp.Y}
		if ws.NodeAt(pos) != nil {
			log.Warn("spawn: duplicate resource tile",
				zap.String("resource", sp.ResourceID), zap.Int("x", sp.X), zap.Int("y", sp.Y))
			continue
		}
		ws.Node(sp.ResourceID, pos)
		total++
	}
	return total
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
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
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
