package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/auction-engine/internal/config"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/directory"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/notify"
	storecache "github.com/riskibarqy/auction-engine/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/redisstore"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/sqlstore"
	"github.com/riskibarqy/auction-engine/internal/interfaces/httpapi"
	"github.com/riskibarqy/auction-engine/internal/interfaces/ws"
	idgen "github.com/riskibarqy/auction-engine/internal/platform/id"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
	"github.com/riskibarqy/auction-engine/internal/platform/resilience"
	"github.com/riskibarqy/auction-engine/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"
)

// App owns the HTTP server and everything that must be drained after it stops.
type App struct {
	Server *http.Server

	service    *usecase.AuctionService
	dispatcher *notify.Dispatcher
	hub        *ws.Hub
	closers    []func() error
	logger     *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.closeResources()
		}
	}()

	var rdb *redis.Client
	if cfg.Store.Backend == config.StoreRedis || cfg.NotifyRedisEnabled {
		client, err := redisstore.Open(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		rdb = client
		a.closers = append(a.closers, client.Close)
	}

	store, err := a.openStore(ctx, cfg, rdb)
	if err != nil {
		return nil, err
	}
	if cfg.Store.CacheEnabled && cfg.Store.Backend != config.StoreMemory {
		store = storecache.NewSessionStore(store, cfg.Store.CacheTTL)
	}

	a.hub = ws.NewHub(cfg.NotifyWSBuffer, logger.Named("ws"))
	sinks := auction.MultiNotifier{notify.NewLogNotifier(logger.Named("events")), a.hub}
	if cfg.NotifyRedisEnabled && rdb != nil {
		sinks = append(sinks, notify.NewRedisPublisher(rdb, cfg.NotifyRedisChannel, logger.Named("events")))
	}
	a.dispatcher, err = notify.NewDispatcher(sinks, cfg.NotifyWorkers, logger.Named("notify"))
	if err != nil {
		return nil, fmt.Errorf("build notification dispatcher: %w", err)
	}

	a.service = usecase.NewAuctionService(
		store,
		a.dispatcher,
		buildResolver(cfg, logger),
		idgen.NewRunIDGenerator(),
		usecase.AuctionConfig{
			TickInterval:            cfg.AuctionTickInterval,
			StaleGrace:              cfg.AuctionStaleGrace,
			DefaultCountdownSeconds: cfg.AuctionDefaultCountdown,
		},
		logger.Named("auction"),
	)

	verifier := jwtauth.NewVerifier(jwtauth.Config{
		Secret: cfg.AuthJWTSecret,
		Issuer: cfg.AuthJWTIssuer,
		Leeway: cfg.AuthJWTLeeway,
		Logger: logger.Named("auth"),
	})

	handler := httpapi.NewHandler(a.service, logger)
	bodyBytes := 0
	if cfg.UptraceEnabled && cfg.UptraceCaptureRequestBody {
		bodyBytes = cfg.UptraceRequestBodyMaxBytes
	}
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RequestBodyMaxBytes: bodyBytes,
		Events: ws.Handler(a.hub, ws.HandlerOptions{
			OriginPatterns: cfg.CORSAllowedOrigins,
			Logger:         logger.Named("ws"),
		}),
	})

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("auction engine ready",
		"store", cfg.Store.Backend,
		"store_cache", cfg.Store.CacheEnabled,
		"directory_enabled", cfg.DirectoryEnabled,
		"redis_events", cfg.NotifyRedisEnabled,
		"notify_workers", cfg.NotifyWorkers,
	)
	ok = true
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (auction.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreSQL:
		db, err := otelsqlx.Open("postgres", NormalizeDBURL(cfg.Store.DBURL, cfg.Store.DBDisablePreparedBinary),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.Store.DBURL)),
			otelsql.WithQueryFormatter(traceQuery),
		)
		if err != nil {
			return nil, fmt.Errorf("open postgres %s: %w", redactDBURL(cfg.Store.DBURL), err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres %s: %w", redactDBURL(cfg.Store.DBURL), err)
		}
		return sqlstore.NewSessionStore(db), nil
	case config.StoreSQLite:
		db, err := sqlx.Open("sqlite", sqliteDSN(cfg.Store.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.SQLitePath, err)
		}
		db.SetMaxOpenConns(1)
		a.closers = append(a.closers, db.Close)
		store := sqlstore.NewSessionStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreRedis:
		return redisstore.NewSessionStore(rdb, cfg.Store.RedisKeyPrefix), nil
	default:
		return memory.NewSessionStore(), nil
	}
}

// buildResolver consults the registration directory, when configured, before the numeric fallback.
func buildResolver(cfg config.Config, logger *logging.Logger) *auction.Resolver {
	onError := func(identifier string, err error) {
		logger.Warn("identity lookup failed", "identifier", identifier, "error", err)
	}
	if !cfg.DirectoryEnabled {
		return auction.NewResolver(onError, auction.NumericFallback())
	}

	client := directory.NewClient(directory.Config{
		BaseURL:    cfg.DirectoryBaseURL,
		LookupPath: cfg.DirectoryLookupPath,
		Timeout:    cfg.DirectoryTimeout,
		CacheTTL:   cfg.DirectoryCacheTTL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.DirectoryCircuitEnabled,
			FailureThreshold: cfg.DirectoryCircuitFailureCount,
			OpenTimeout:      cfg.DirectoryCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.DirectoryCircuitHalfOpenMaxReq,
		},
		Logger: logger.Named("directory"),
	})
	return auction.NewResolver(onError, client, auction.NumericFallback())
}

// Shutdown stops the venue timers, flushes queued notifications and releases the stores.
// The HTTP server is expected to be shut down first.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.service != nil {
		if err := a.service.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop auction timers: %w", err))
		}
	}
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil && !errors.Is(err, notify.ErrDispatcherClosed) {
			errs = append(errs, fmt.Errorf("drain notifications: %w", err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
