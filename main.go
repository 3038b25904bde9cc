package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BonChain/saga-sub000/cascade"
	"github.com/BonChain/saga-sub000/config"
	"github.com/BonChain/saga-sub000/engine"
	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/narrative"
	"github.com/BonChain/saga-sub000/server"
	"github.com/BonChain/saga-sub000/store"
	"github.com/BonChain/saga-sub000/tui"
	"github.com/BonChain/saga-sub000/viz"
	"github.com/BonChain/saga-sub000/world"
)

func main() {
	loadEnv()

	if err := config.Load(); err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Global.Logging.Level, config.Global.Logging.EnableColors)

	tuiApp := tui.New()

	go func() {
		if err := tuiApp.Start(); err != nil {
			fmt.Printf("TUI Error: %v\n", err)
			os.Exit(1)
		}
	}()

	// Give TUI a moment to initialize
	time.Sleep(100 * time.Millisecond)

	logger.SetOutput(tuiApp.NewWriter())
	logger.SetTUIMode(true)

	logger.Info(logger.StatusInit, "%s v%s", config.Global.App.Name, config.Global.App.Version)
	logger.Info(logger.StatusInit, "Butterfly-Effect Consequence Engine")

	// 1. World catalog: built-in tables, or a validated override file.
	var catalog *world.Catalog
	if path := config.Global.World.CatalogPath; path != "" {
		loaded, err := world.Load(path)
		if err != nil {
			logger.Error(logger.StatusErr, "world catalog %s: %v", path, err)
			os.Exit(1)
		}
		catalog = loaded
		logger.Info(logger.StatusWorld, "Loaded world catalog from %s (%d systems)", path, len(catalog.Systems()))
	} else {
		catalog = world.DefaultCatalog()
		logger.Info(logger.StatusWorld, "Using built-in world catalog (%d systems, %d regions)",
			len(catalog.Systems()), len(catalog.Regions()))
	}

	// 2. Persistence
	db, err := store.Open(config.Global.Storage.Path)
	if err != nil {
		logger.Error(logger.StatusErr, "open history db: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Success("Action history at %s", config.Global.Storage.Path)

	// 3. Pipeline
	log := logger.GetLogger()
	client := narrative.NewClient()
	generator := narrative.NewGenerator(client, catalog, config.Global.Narrative.MaxConsequences, nil, log)
	assembler := engine.NewAssembler(catalog, log)

	opts := cascade.Options{
		MaxLevels:            config.Global.Cascade.MaxLevels,
		MaxEffectsPerLevel:   config.Global.Cascade.MaxEffectsPerLevel,
		ProbabilityThreshold: config.Global.Cascade.ProbThreshold,
		MinInfluenceFactor:   config.Global.Cascade.MinInfluence,
		IncludeIndirect:      config.Global.Cascade.IncludeIndirect,
	}

	// 4. Websocket hub + HTTP API
	hub := server.NewHub()
	go hub.Run()

	api := &server.API{
		Hub:       hub,
		Generator: generator,
		Assembler: assembler,
		Store:     db,
		Defaults:  opts,
	}
	server.StartServer(api, config.Global.Server.Port)

	// Keep the stats pane in sync
	go func() {
		for range time.Tick(2 * time.Second) {
			actions, effects := db.Counts()
			tuiApp.UpdateStats(actions, effects, hub.ClientCount())
		}
	}()

	// Process commands from TUI (blocks until TUI exits)
	for input := range tuiApp.GetCommandChannel() {
		handleCommand(input, catalog, generator, assembler, db, hub, opts, tuiApp)
	}
}

func handleCommand(input string, catalog *world.Catalog, generator *narrative.Generator,
	assembler *engine.Assembler, db *store.Store, hub *server.Hub, opts cascade.Options, tuiApp *tui.TUI) {

	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	if len(parts) == 0 || parts[0] == "" {
		return
	}

	switch parts[0] {
	case "act":
		if len(parts) < 2 {
			logger.Warn(logger.StatusWarn, "Usage: act <action description>")
			return
		}
		runAction(parts[1], generator, assembler, db, hub, opts)
	case "history":
		history, err := db.History(20)
		if err != nil {
			logger.Error(logger.StatusErr, "history: %v", err)
			return
		}
		logger.Plain("")
		logger.Section(fmt.Sprintf("Action History (%d)", len(history)))
		for _, rec := range history {
			logger.Plain("  [%s] %s - %d effects, depth %d (%s)",
				rec.ID[:8], rec.Description, rec.Effects, rec.MaxDepth,
				rec.CreatedAt.Format("15:04:05"))
		}
	case "show":
		if len(parts) < 2 {
			logger.Warn(logger.StatusWarn, "Usage: show <actionID>")
			return
		}
		result, err := db.Network(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Error(logger.StatusErr, "show: %v", err)
			return
		}
		printResult(result)
	case "systems":
		logger.Plain("")
		logger.Section(fmt.Sprintf("World Systems (%d)", len(catalog.Systems())))
		for _, sys := range catalog.Systems() {
			logger.Plain("  [%s] %s -> %v", sys.ID, sys.Name, sys.Connected)
		}
	case "regions":
		logger.Plain("")
		logger.Section("Regions")
		for _, id := range catalog.Regions() {
			logger.Plain("  %s", id)
		}
	case "config":
		logger.Plain("")
		logger.Section("Cascade Configuration")
		logger.Plain("  max_levels:            %d", opts.MaxLevels)
		logger.Plain("  max_effects_per_level: %d", opts.MaxEffectsPerLevel)
		logger.Plain("  probability_threshold: %.2f", opts.ProbabilityThreshold)
		logger.Plain("  min_influence_factor:  %.2f", opts.MinInfluenceFactor)
		logger.Plain("  include_indirect:      %v", opts.IncludeIndirect)
	case "exit", "quit":
		logger.Info(logger.StatusInit, "Shutting down...")
		tuiApp.Stop()
		os.Exit(0)
	default:
		logger.Warn(logger.StatusWarn, "Unknown command: %s (try: act, history, show, systems, regions, config, exit)", parts[0])
	}
}

func runAction(description string, generator *narrative.Generator, assembler *engine.Assembler,
	db *store.Store, hub *server.Hub, opts cascade.Options) {

	action := engine.Action{
		ID:          uuid.NewString(),
		ActorID:     "console",
		Description: description,
		Roots:       generator.RootConsequences(description),
	}

	logger.Info(logger.StatusAct, "console actor: %s", description)
	result := assembler.Build(action, opts, nil)

	rec := store.ActionRecord{
		ID:          action.ID,
		ActorID:     action.ActorID,
		Description: action.Description,
		Effects:     result.Metadata.TotalEffects,
		MaxDepth:    result.Metadata.MaxDepth,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.SaveAction(rec, result); err != nil {
		logger.Error(logger.StatusErr, "save action: %v", err)
	}

	hub.Broadcast("cascade_update", result)
	printResult(result)
}

func printResult(result *viz.Result) {
	logger.Plain("")
	logger.Section(fmt.Sprintf("Cascade %s", result.Metadata.ActionID[:8]))
	logger.Plain("  Nodes: %d  Connections: %d  Depth: %d  (%dms)",
		result.Metadata.TotalNodes, result.Metadata.TotalConnections,
		result.Metadata.MaxDepth, result.Metadata.ProcessingMs)

	for _, node := range result.Nodes {
		if node.Role == viz.RoleAction {
			continue
		}
		logger.Plain("  L%d [%s] %s (mag %d, %s)",
			node.Layer, node.Severity, node.Description, node.Magnitude, strings.Join(node.Systems, ","))
	}

	if len(result.EmergentOpportunities) > 0 {
		logger.Plain("")
		logger.Plain("  Opportunities:")
		for _, opp := range result.EmergentOpportunities {
			logger.Plain("    * %s - %s", opp.Title, opp.Description)
		}
	}
	if len(result.CrossRegionEffects) > 0 {
		logger.Plain("")
		logger.Plain("  Cross-region:")
		for _, cr := range result.CrossRegionEffects {
			logger.Plain("    %s -> %s (%dms travel)", cr.SourceRegion, cr.TargetRegion, cr.TravelTimeMs)
		}
	}
}

// loadEnv reads a local .env file into the process environment, if present.
func loadEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		os.Setenv(strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"`))
	}
}
