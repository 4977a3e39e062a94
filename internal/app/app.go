package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/googlefinance"
	"github.com/ternarybob/folio/internal/handlers"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/services/cache"
	"github.com/ternarybob/folio/internal/services/portfolio"
	"github.com/ternarybob/folio/internal/services/scheduler"
	"github.com/ternarybob/folio/internal/services/sheet"
	"github.com/ternarybob/folio/internal/services/symbols"
	"github.com/ternarybob/folio/internal/storage/badger"
	"github.com/ternarybob/folio/internal/yahoo"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage layer
	BadgerDB  *badger.BadgerDB
	KVStorage interfaces.KeyValueStorage

	// Portfolio pipeline
	SheetReader      *sheet.Reader
	Normalizer       *sheet.Normalizer
	SymbolResolver   *symbols.Resolver
	QuoteClient      *yahoo.Client
	Scraper          *googlefinance.Scraper
	PortfolioService *portfolio.Service
	CacheService     *cache.Service
	SchedulerService *scheduler.Service

	// HTTP handlers
	PortfolioHandler *handlers.PortfolioHandler
	APIHandler       *handlers.APIHandler
	PageHandler      *handlers.PageHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	// Seed the cache from the last persisted snapshot so restarts don't
	// start cold. TTL still applies to the seeded snapshot.
	if err := app.CacheService.LoadPersisted(context.Background()); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to load persisted snapshot")
	}

	if err := app.SchedulerService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	if cfg.Portfolio.RefreshOnStart {
		go func() {
			if _, err := app.CacheService.Refresh(context.Background(), false); err != nil {
				app.Logger.Warn().Err(err).Msg("Startup refresh failed to begin")
			}
		}()
	}

	logger.Info().
		Str("sheet", cfg.Portfolio.SheetPath).
		Str("cache_ttl", cfg.Portfolio.CacheTTL.String()).
		Str("schedule", cfg.Portfolio.RefreshSchedule).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open badger store: %w", err)
	}
	a.BadgerDB = db
	a.KVStorage = badger.NewKVStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the sheet-to-snapshot pipeline
func (a *App) initServices() error {
	a.SheetReader = sheet.NewReader(&a.Config.Portfolio, a.Logger)
	a.Normalizer = sheet.NewNormalizer(&a.Config.Portfolio, a.Logger)

	resolver, err := symbols.NewResolver(a.Config.Symbols.Path, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load symbol mapping: %w", err)
	}
	a.SymbolResolver = resolver

	yahooOpts := []yahoo.ClientOption{
		yahoo.WithLogger(a.Logger),
		yahoo.WithRateLimit(a.Config.Yahoo.RateLimit),
	}
	if a.Config.Yahoo.BaseURL != "" {
		yahooOpts = append(yahooOpts, yahoo.WithBaseURL(a.Config.Yahoo.BaseURL))
	}
	a.QuoteClient = yahoo.NewClient(yahooOpts...)

	var fundamentals interfaces.FundamentalsProvider
	if a.Config.GoogleFinance.Enabled {
		scraperOpts := []googlefinance.ScraperOption{
			googlefinance.WithLogger(a.Logger),
			googlefinance.WithHTTPClient(&http.Client{Timeout: a.Config.GoogleFinance.RequestTimeout.Std()}),
		}
		if a.Config.GoogleFinance.BaseURL != "" {
			scraperOpts = append(scraperOpts, googlefinance.WithBaseURL(a.Config.GoogleFinance.BaseURL))
		}
		a.Scraper = googlefinance.NewScraper(scraperOpts...)
		fundamentals = a.Scraper
	} else {
		a.Logger.Debug().Msg("Fundamentals scraper disabled")
	}

	a.PortfolioService = portfolio.NewService(
		a.SheetReader,
		a.Normalizer,
		a.SymbolResolver,
		a.QuoteClient,
		fundamentals,
		&a.Config.Portfolio,
		a.Config.GoogleFinance.DefaultExchange,
		a.Logger,
	)

	a.CacheService = cache.NewService(a.PortfolioService, a.KVStorage, a.Config.Portfolio.CacheTTL.Std(), a.Logger)
	a.SchedulerService = scheduler.NewService(a.CacheService, a.Config.Portfolio.RefreshSchedule, a.Logger)

	a.Logger.Debug().
		Int("symbol_mappings", a.SymbolResolver.Count()).
		Bool("scraper_enabled", fundamentals != nil).
		Msg("Services initialized")

	return nil
}

func (a *App) initHandlers() {
	a.PortfolioHandler = handlers.NewPortfolioHandler(a.CacheService, a.Config.Portfolio.RequestTimeout.Std(), a.Logger)
	a.APIHandler = handlers.NewAPIHandler(a.CacheService, a.KVStorage, a.SchedulerService)
	a.PageHandler = handlers.NewPageHandler(a.Logger)
}

// Close shuts down application components in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}

	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil {
			return fmt.Errorf("failed to close badger store: %w", err)
		}
	}

	a.Logger.Debug().Msg("Application closed")
	return nil
}
