package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/facilops/fixdesk/internal/auth"
	"github.com/facilops/fixdesk/internal/cachedb"
	"github.com/facilops/fixdesk/internal/debug"
	healthHandlers "github.com/facilops/fixdesk/internal/domains/health/handler"
	messagebus "github.com/facilops/fixdesk/internal/domains/message/bus"
	messageHandlers "github.com/facilops/fixdesk/internal/domains/message/handler"
	"github.com/facilops/fixdesk/internal/domains/message/store/messagedb"
	userbus "github.com/facilops/fixdesk/internal/domains/user/bus"
	userHandlers "github.com/facilops/fixdesk/internal/domains/user/handler"
	"github.com/facilops/fixdesk/internal/domains/user/store/userdb"
	"github.com/facilops/fixdesk/internal/metrics"
	"github.com/facilops/fixdesk/internal/mid"
	"github.com/facilops/fixdesk/internal/sqldb"
	"github.com/facilops/fixdesk/pkg/keystore"
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/facilops/fixdesk/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var build = "development"

func main() {
	traceIDFn := func(ctx context.Context) string {
		return telemetry.GetTraceID(ctx)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(os.Stdout, logger.LevelDebug, logger.EnvironmentDev, "fixdesk", traceIDFn)

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "main failed to execute run", "err", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	log.Info(ctx, "run", "build", build, "GOMAXPROCS", runtime.GOMAXPROCS(0))

	//configuration
	cfg := struct {
		Web struct {
			ReadTimeout    time.Duration `conf:"default:10s"`
			WriteTimeout   time.Duration `conf:"default:30s"`
			IdleTimeout    time.Duration `conf:"default:120s"`
			ShutdownTimout time.Duration `conf:"default:120s"`
			DebugHost      string        `conf:"default:0.0.0.0:3000"`
			APIHost        string        `conf:"default:0.0.0.0:8000"`
		}

		DB struct {
			User        string `conf:"default:postgres"`
			Password    string `conf:"default:postgres,mask"`
			Host        string `conf:"default:database:5432"`
			Name        string `conf:"default:postgres"`
			MaxIdleConn int    `conf:"default:0"`
			MaxOpenConn int    `conf:"default:0"`
			DisableTLS  bool   `conf:"default:true"`
		}

		Cache struct {
			Addr     string        `conf:"default:cache:6379"`
			Password string        `conf:"default:,mask"`
			DB       int           `conf:"default:0"`
			StatsTTL time.Duration `conf:"default:30s"`
		}

		Auth struct {
			Keys        string        `conf:"default:/etc/rsa-keys"`
			ActiveKey   string        `conf:"default:2ef9cc09-8024-4fd7-9b34-3a6a7a88b266"`
			Issuer      string        `conf:"default:fixdesk"`
			TokenMaxAge time.Duration `conf:"default:1h"`
		}

		Tempo struct {
			Host        string  `conf:"default:tempo:4317"`
			ServiceName string  `conf:"default:fixdesk-service"`
			Probability float64 `conf:"default:1"`
		}
	}{}

	const prefix = "FIXDESK"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing conf: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("conf to string: %w", err)
	}

	log.Info(ctx, "app configuration", "cfg", out)

	//==========================================================================
	// Debug Server
	go func() {
		log.Info(ctx, "debug server starting", "host", cfg.Web.DebugHost)
		if err := http.ListenAndServe(cfg.Web.DebugHost, debug.Register()); err != nil {
			log.Error(ctx, "failed to start debug server", "host", cfg.Web.DebugHost, "err", err.Error())
			return
		}
	}()

	expvar.NewString("build").Set(build)

	//==========================================================================
	// Database init
	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConn,
		MaxOpenConns: cfg.DB.MaxOpenConn,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to open connection to database: %w", err)
	}
	defer db.Close()

	log.Info(ctx, "database initialized", "host", cfg.DB.Host)

	//==========================================================================
	// Cache init
	cache := cachedb.Open(cachedb.Config{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	}, cfg.Cache.StatsTTL)
	defer cache.Close()

	// a dead cache only slows statistics down, it does not stop the service
	if err := cache.Ping(ctx); err != nil {
		log.Warn(ctx, "cache unreachable, statistics are served uncached", "addr", cfg.Cache.Addr, "err", err.Error())
	} else {
		log.Info(ctx, "cache initialized", "addr", cfg.Cache.Addr)
	}

	//==========================================================================
	// Trace init
	_, cleanup, err := telemetry.Setup(telemetry.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		Probability: cfg.Tempo.Probability,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
	})
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	defer cleanup(ctx)

	tracer := otel.Tracer(cfg.Tempo.ServiceName)

	log.Info(ctx, "tracer successfully initialized", "host", cfg.Tempo.Host, "probability", cfg.Tempo.Probability)

	//==========================================================================
	// Auth init
	ks := keystore.New()

	count, err := ks.LoadFromFileSystem(os.DirFS(cfg.Auth.Keys))
	if err != nil {
		return fmt.Errorf("loadFromFileSystem: %w", err)
	}

	log.Info(ctx, "loaded rsa keys into in-memory keystore", "count", count)

	if err := ks.SetActiveKey(cfg.Auth.ActiveKey); err != nil {
		return fmt.Errorf("setActiveKey: %w", err)
	}

	a := auth.New(ks, cfg.Auth.Issuer)

	log.Info(ctx, "auth initialized", "activeKID", ks.GetActiveKid())

	//==========================================================================
	// Domains init
	usrStore := userdb.NewStore(db, tracer)
	usrBus := userbus.New(usrStore)

	msgStore := messagedb.NewStore(db, tracer)
	msgBus := messagebus.New(msgStore, usrBus)

	//==========================================================================
	// Metrics init
	m := metrics.New()

	//==========================================================================
	// Router init
	r := gin.New()

	r.Use(mid.Telemetry(tracer))
	r.Use(mid.Logger(log))
	r.Use(mid.Metrics(m))
	r.Use(mid.Error(log))
	r.Use(mid.Panic(log))

	userHandlers.RegisterRoutes(userHandlers.Conf{
		Router:      r,
		UserBus:     usrBus,
		Messages:    msgBus,
		Cache:       cache,
		Auth:        a,
		Kid:         ks.GetActiveKid(),
		TokenMaxAge: cfg.Auth.TokenMaxAge,
		Tracer:      tracer,
		Logger:      log,
	})

	messageHandlers.RegisterRoutes(messageHandlers.Conf{
		Router:     r,
		MessageBus: msgBus,
		UserBus:    usrBus,
		Auth:       a,
		Tracer:     tracer,
		Logger:     log,
	})

	healthHandlers.RegisterRoutes(healthHandlers.Conf{
		Router: r,
		DB:     db,
		Log:    log,
		Build:  build,
	})

	//==========================================================================
	// API Server
	server := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      r,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     log.StdLogger(logger.LevelError),
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	serverErrs := make(chan error, 1)

	go func() {
		log.Info(ctx, "API server starting", "host", cfg.Web.APIHost)
		if err := server.ListenAndServe(); err != nil {
			serverErrs <- fmt.Errorf("listenAndServe: %w", err)
		}
	}()

	select {
	case err := <-serverErrs:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info(ctx, "server received a shutdown signal")
		defer log.Info(ctx, "server completed the shutdown process")

		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("failed to gracefully shutdown the server: %w", err)
		}
	}
	return nil
}
