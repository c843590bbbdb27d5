package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonesrussell/pricewatch/internal/catalog"
	"github.com/jonesrussell/pricewatch/internal/config"
	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/events"
	"github.com/jonesrussell/pricewatch/internal/extract"
	"github.com/jonesrussell/pricewatch/internal/fetcher"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/scan"
	"github.com/jonesrussell/pricewatch/internal/scheduler"
	"github.com/jonesrussell/pricewatch/internal/seeker"
)

// appDeps wires the scan core and its collaborators for commands.
// Use this instead of context.Value for type-safe dependency injection.
type appDeps struct {
	Config    *config.Config
	Logger    logger.Interface
	Products  database.ProductRepository
	Agents    database.AgentRepository
	Catalog   *catalog.Service
	Bus       *events.EventBus
	Scheduler *scheduler.Scheduler
}

// newAppDeps loads configuration and constructs the full object graph.
func newAppDeps(ctx context.Context) (*appDeps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	products, agents, err := buildRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine := extract.NewEngine(log)
	registry := extract.NewRegistry(engine)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	fetch := fetcher.New(cfg.Fetcher, rng, log)
	dumps := seeker.NewDumpWriter(cfg.DumpDir)
	seek := seeker.New(fetch, registry, dumps, log)

	bus := events.NewEventBus(log)
	bus.Subscribe(events.NewDefaultHandler(log))

	aggregator := scan.NewAggregator(products, agents, seek, bus, log, cfg.Scan)
	sched := scheduler.New(products, aggregator, bus, log)

	return &appDeps{
		Config:    cfg,
		Logger:    log,
		Products:  products,
		Agents:    agents,
		Catalog:   catalog.NewService(products, agents, registry, log),
		Bus:       bus,
		Scheduler: sched,
	}, nil
}

// Close releases the scheduler's worker.
func (d *appDeps) Close() {
	d.Scheduler.Stop()
}

func buildRepositories(ctx context.Context, cfg *config.Config) (database.ProductRepository, database.AgentRepository, error) {
	if cfg.UseMemoryStore {
		return database.NewMemoryProductRepository(), database.NewMemoryAgentRepository(), nil
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		return nil, nil, err
	}

	return database.NewPostgresProductRepository(db), database.NewPostgresAgentRepository(db), nil
}
