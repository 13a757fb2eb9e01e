package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/R3E-Network/bizhub/internal/app/audit"
	"github.com/R3E-Network/bizhub/internal/app/httpapi"
	"github.com/R3E-Network/bizhub/internal/app/services/addresses"
	"github.com/R3E-Network/bizhub/internal/app/services/categories"
	"github.com/R3E-Network/bizhub/internal/app/services/customers"
	"github.com/R3E-Network/bizhub/internal/app/services/inventory"
	"github.com/R3E-Network/bizhub/internal/app/services/products"
	"github.com/R3E-Network/bizhub/internal/app/storage"
	"github.com/R3E-Network/bizhub/internal/app/storage/memory"
	"github.com/R3E-Network/bizhub/internal/app/storage/postgres"
	"github.com/R3E-Network/bizhub/internal/app/system"
	"github.com/R3E-Network/bizhub/internal/config"
	"github.com/R3E-Network/bizhub/internal/logging"
	"github.com/R3E-Network/bizhub/internal/middleware"
	"github.com/R3E-Network/bizhub/internal/platform/migrations"
)

// Stores encapsulates persistence dependencies.
type Stores interface {
	storage.CustomerStore
	storage.AddressStore
	storage.CategoryStore
	storage.ProductStore
	storage.InventoryStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logging.Logger
	handler http.Handler

	Services httpapi.Services
	Audit    *audit.Log
}

// New builds a fully initialised application from cfg. Nothing is started
// until Start is called, but connections are opened eagerly so
// misconfiguration fails here.
func New(cfg *config.Config, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}
	manager := system.NewManager(log)

	db, err := OpenDatabase(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}
	var stores Stores = memory.New()
	if db != nil {
		stores = postgres.New(db)
		if err := manager.Register(system.Closer{ServiceName: "postgres", Close: db.Close}); err != nil {
			return nil, err
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("database dsn not set; data is kept in memory")
	}

	trail, reader, err := newAuditTrail(cfg, db, log)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	if err := manager.Register(system.Closer{ServiceName: "audit", Close: trail.Close}); err != nil {
		return nil, err
	}

	svc := httpapi.Services{
		Customers:  customers.New(stores, stores, log),
		Addresses:  addresses.New(stores, stores, log),
		Categories: categories.New(stores, stores, log),
		Products:   products.New(stores, stores, log),
		Inventory:  inventory.New(stores, stores, log),
	}

	auth := middleware.NewAuthMiddleware([]byte(cfg.Auth.Secret), log, nil).WithCookie(cfg.Auth.CookieName)
	chain := []mux.MiddlewareFunc{auth.Handler}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		if err := manager.Register(limiter); err != nil {
			return nil, err
		}
		chain = append(chain, limiter.Handler)
	}
	chain = append(chain, middleware.MetricsMiddleware(), middleware.LoggingMiddleware(log))

	store := sessions.NewCookieStore([]byte(cfg.Session.Key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	api, err := httpapi.NewHandler(httpapi.Options{
		Services:    svc,
		Recorder:    trail,
		AuditReader: reader,
		Sessions:    store,
		SessionName: cfg.Session.Name,
		Middleware:  chain,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("build http handler: %w", err)
	}

	var handler http.Handler = api
	handler = middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins).Handler(handler)
	handler = middleware.NewTracingMiddleware().Handler(handler)

	return &Application{
		manager:  manager,
		log:      log,
		handler:  handler,
		Services: svc,
		Audit:    trail,
	}, nil
}

// OpenDatabase connects to Postgres when cfg carries a DSN and applies
// migrations when requested. It returns nil, nil without a DSN.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := migrations.Apply(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return db, nil
}

// newAuditTrail assembles the in-memory log and its sinks. The reader is
// Postgres when entries are persisted there, since the in-memory ring only
// holds this process's recent entries.
func newAuditTrail(cfg *config.Config, db *sqlx.DB, log *logging.Logger) (*audit.Log, audit.Reader, error) {
	var sinks audit.MultiSink
	var reader audit.Reader

	if cfg.Audit.File != "" {
		file, err := audit.NewFileSink(cfg.Audit.File)
		if err != nil {
			return nil, nil, fmt.Errorf("audit file: %w", err)
		}
		sinks = append(sinks, file)
	}
	if cfg.Audit.Postgres && db != nil {
		pg := audit.NewPostgresSink(db, log)
		sinks = append(sinks, pg)
		reader = pg
	}
	if cfg.Audit.RedisStream != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sinks = append(sinks, audit.NewRedisSink(client, cfg.Audit.RedisStream, cfg.Audit.RedisMaxLen))
		log.WithField("stream", cfg.Audit.RedisStream).Info("audit entries published to redis")
	}

	var sink audit.Sink
	if len(sinks) > 0 {
		sink = sinks
	}
	trail := audit.NewLog(cfg.Audit.Buffer, sink)
	if reader == nil {
		reader = trail
	}
	return trail, reader, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services and releases connections.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
