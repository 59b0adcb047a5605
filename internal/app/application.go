// Package app assembles the JarvisFi API server from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"

	"github.com/jarvisfi/jarvisfi/internal/app/httpapi"
	"github.com/jarvisfi/jarvisfi/internal/app/metrics"
	"github.com/jarvisfi/jarvisfi/internal/app/services/admin"
	"github.com/jarvisfi/jarvisfi/internal/app/services/alerts"
	"github.com/jarvisfi/jarvisfi/internal/app/services/auth"
	"github.com/jarvisfi/jarvisfi/internal/app/services/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/services/community"
	"github.com/jarvisfi/jarvisfi/internal/app/services/farmer"
	financesvc "github.com/jarvisfi/jarvisfi/internal/app/services/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/services/translate"
	"github.com/jarvisfi/jarvisfi/internal/app/services/voice"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/internal/app/storage/memory"
	"github.com/jarvisfi/jarvisfi/internal/app/storage/postgres"
	"github.com/jarvisfi/jarvisfi/internal/cache"
	"github.com/jarvisfi/jarvisfi/internal/config"
	"github.com/jarvisfi/jarvisfi/internal/httpserver"
	"github.com/jarvisfi/jarvisfi/internal/middleware"
	"github.com/jarvisfi/jarvisfi/internal/system"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

// Stores groups the storage interfaces the services depend on. A single
// backend usually implements all of them.
type Stores struct {
	Users         storage.UserStore
	Sessions      storage.SessionStore
	Conversations storage.ConversationStore
	Finance       storage.FinanceStore
	Forum         storage.ForumStore
	Alerts        storage.AlertStore
}

// Application owns the wired components and their lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	manager *system.Manager
	server  *httpserver.Server

	db    *sql.DB
	cache cache.Cache
}

// New wires storage, services, middleware, and the HTTP server.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	app := &Application{cfg: cfg, log: log}

	stores, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}

	if err := app.openCache(ctx); err != nil {
		app.closeResources()
		return nil, err
	}

	services := app.buildServices(stores)

	backends := httpapi.Backends{
		Database:    backendName(cfg.Database.DSN != "", "postgres", "memory"),
		Cache:       backendName(cfg.Redis.Addr != "", "redis", "memory"),
		Advisor:     backendName(cfg.Services.AdvisorURL != "", "http", "fallback"),
		Translation: backendName(cfg.Services.TranslationURL != "", "http", "catalog"),
		Voice:       backendName(cfg.Services.VoiceURL != "", "http", "disabled"),
	}

	handler := httpapi.NewHandler(
		httpapi.AppInfo{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Description: cfg.App.Description,
			Environment: cfg.App.Environment,
		},
		httpapi.Features{
			Voice:     cfg.Features.VoiceEnabled,
			Farmer:    cfg.Features.FarmerEnabled,
			Community: cfg.Features.CommunityEnabled,
		},
		backends,
		services,
		httpapi.NewAuditLog(0),
		log.WithField("component", "httpapi"),
	)

	app.server = httpserver.New(cfg.Server, app.buildChain(handler, services.Auth), log.WithField("component", "httpserver"))

	app.manager = system.NewManagerWithLogger(log.WithField("component", "system"))

	dbSvc := system.Service(system.NoopService{ServiceName: "database"})
	if app.db != nil {
		dbSvc = closerService{name: "database", close: app.db.Close}
	}
	managed := []system.Service{
		dbSvc,
		closerService{name: "cache", close: app.cache.Close},
		system.NoopService{ServiceName: "advisor"},
		system.NoopService{ServiceName: "translation"},
	}
	if cfg.Features.VoiceEnabled {
		managed = append(managed, system.NoopService{ServiceName: "voice"})
	}
	if cfg.Features.AlertsEnabled {
		managed = append(managed, alerts.NewScheduler(stores.Users, stores.Finance, stores.Alerts, alerts.DefaultSchedule, log.WithField("component", "alerts")))
	}
	managed = append(managed, app.server)

	for _, svc := range managed {
		if err := app.manager.Register(svc); err != nil {
			app.closeResources()
			return nil, err
		}
	}

	return app, nil
}

// closerService adapts a resource that only has teardown work to the managed
// lifecycle, so the manager's ordering and rollback cover it.
type closerService struct {
	name  string
	close func() error
}

func (s closerService) Name() string                 { return s.name }
func (s closerService) Start(_ context.Context) error { return nil }
func (s closerService) Stop(_ context.Context) error  { return s.close() }

// closeResources releases the database and cache when wiring fails before
// the manager owns them.
func (a *Application) closeResources() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// openStores connects PostgreSQL when a DSN is configured, falling back to
// the in-memory store otherwise.
func (a *Application) openStores(ctx context.Context) (Stores, error) {
	if a.cfg.Database.DSN == "" {
		a.log.Info("no database configured; using in-memory storage")
		mem := memory.New()
		return Stores{
			Users:         mem,
			Sessions:      mem,
			Conversations: mem,
			Finance:       mem,
			Forum:         mem,
			Alerts:        mem,
		}, nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return Stores{}, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(a.cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(a.cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return Stores{}, fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.Apply(ctx, db); err != nil {
		db.Close()
		return Stores{}, fmt.Errorf("apply migrations: %w", err)
	}

	a.db = db
	store := postgres.New(db)
	a.log.Info("connected to postgres")
	return Stores{
		Users:         store,
		Sessions:      store,
		Conversations: store,
		Finance:       store,
		Forum:         store,
		Alerts:        store,
	}, nil
}

// openCache connects Redis when an address is configured, otherwise uses the
// in-process cache.
func (a *Application) openCache(ctx context.Context) error {
	if a.cfg.Redis.Addr == "" {
		a.log.Info("no redis configured; using in-memory cache")
		a.cache = cache.NewMemory()
		return nil
	}

	rc, err := cache.NewRedis(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.cache = rc
	a.log.WithField("addr", a.cfg.Redis.Addr).Info("connected to redis")
	return nil
}

func (a *Application) buildServices(stores Stores) httpapi.Services {
	cfg := a.cfg
	log := a.log

	var advisor chat.Advisor
	if cfg.Services.AdvisorURL != "" {
		advisor = chat.NewHTTPAdvisor(cfg.Services.AdvisorURL, cfg.Services.AdvisorKey)
	}

	var translator translate.Provider
	if cfg.Services.TranslationURL != "" {
		translator = translate.NewHTTPProvider(cfg.Services.TranslationURL, cfg.Services.TranslationKey)
	}

	var processor voice.Processor
	if cfg.Features.VoiceEnabled && cfg.Services.VoiceURL != "" {
		processor = voice.NewHTTPProcessor(cfg.Services.VoiceURL, cfg.Services.VoiceKey)
	}

	var weather farmer.WeatherFetcher
	if cfg.Services.WeatherURL != "" {
		weather = farmer.NewHTTPWeather(cfg.Services.WeatherURL, cfg.Services.WeatherKey)
	}

	authSvc := auth.New(stores.Users, stores.Sessions, auth.Config{
		JWTSecret:  cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		TokenTTL:   cfg.Auth.TokenTTL,
		AdminEmail: cfg.Auth.AdminEmail,
	}, log.WithField("component", "auth"))

	return httpapi.Services{
		Auth:      authSvc,
		Chat:      chat.New(stores.Conversations, advisor, log.WithField("component", "chat")),
		Finance:   financesvc.New(stores.Finance, log.WithField("component", "finance")),
		Translate: translate.New(translator, a.cache, log.WithField("component", "translate")),
		Voice:     voice.New(processor, log.WithField("component", "voice")),
		Farmer:    farmer.New(weather, a.cache, log.WithField("component", "farmer")),
		Community: community.New(stores.Forum, log.WithField("component", "community")),
		Admin:     admin.New(stores.Users, stores.Conversations, stores.Finance, stores.Forum, stores.Alerts, log.WithField("component", "admin")),
		Alerts:    stores.Alerts,
	}
}

// buildChain layers the middleware in front of the router: CORS, metrics,
// rate limiting, authentication, audit.
func (a *Application) buildChain(handler *httpapi.Handler, authSvc *auth.Service) http.Handler {
	chain := handler.Audit().Middleware(handler.Router())

	authMW := middleware.NewAuth(authSvc, httpapi.SkipAuthPaths())
	chain = authMW.Handler(chain)

	limiter := middleware.NewRateLimiter(a.cfg.Limits.RequestsPerSecond, a.cfg.Limits.Burst, a.log.WithField("component", "ratelimit"))
	chain = limiter.Handler(chain)

	chain = metrics.InstrumentHandler(chain)

	cors := middleware.NewCORS([]string{"*"})
	return cors.Handler(chain)
}

// Start brings every registered service up.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop tears services down in reverse registration order; the database and
// cache close last as managed services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

func backendName(configured bool, yes, no string) string {
	if configured {
		return yes
	}
	return no
}

// ServerErr surfaces a fatal listener error for the main loop to watch.
func (a *Application) ServerErr() <-chan error { return a.server.Err() }

// Logger returns the application root logger.
func (a *Application) Logger() *logger.Logger { return a.log }
