package app

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinexhq/seat-hold-service/internal/domain"
	"github.com/cinexhq/seat-hold-service/internal/events"
	"github.com/cinexhq/seat-hold-service/internal/hold"
	"github.com/cinexhq/seat-hold-service/internal/inventory"
	"github.com/cinexhq/seat-hold-service/internal/repository"
	appvalidator "github.com/cinexhq/seat-hold-service/internal/validator"
	"github.com/cinexhq/seat-hold-service/internal/vcs"
	"github.com/cinexhq/seat-hold-service/migrations"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var (
	version = vcs.Version()
)

type application struct {
	config    config
	logger    *slog.Logger
	validator *validator.Validate
	manager   *hold.Manager
}

type config struct {
	port      int
	env       string
	inventory string

	holdTTL       time.Duration
	sweepInterval time.Duration

	db struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}

	amqpUrl          string
	otelCollectorUrl string
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.inventory, "inventory", "memory", "Seat state backend (memory|redis)")

	flag.DurationVar(&cfg.holdTTL, "hold-ttl", hold.DefaultTTL, "Seat hold time-to-live")
	flag.DurationVar(&cfg.sweepInterval, "sweep-interval", hold.DefaultSweepInterval, "Expiry sweep interval")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN for the booking archive (in-memory if empty)")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL (required with -inventory=redis)")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.amqpUrl, "amqp-url", "", "RabbitMQ URL for booking events (disabled if empty)")
	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := initTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.otelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(
			slog.NewTextHandler(os.Stdout, nil),
			otelslog.NewHandler("seat-hold-api"),
		))
	}

	store, closeStore, err := newSeatStateStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	bookingRepo, closeRepo, err := newBookingRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.amqpUrl != "" {
		publisher = events.NewRabbitMQPublisher(cfg.amqpUrl)
	}

	manager := hold.NewManager(inventory.NewCatalog(), store, bookingRepo, publisher, logger, cfg.holdTTL)

	app := &application{
		config:    cfg,
		logger:    logger,
		validator: appvalidator.NewValidator(),
		manager:   manager,
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	sweeper := hold.NewSweeper(manager, cfg.sweepInterval, logger)
	go sweeper.Start(sweeperCtx)

	return app.run()
}

func newSeatStateStore(cfg config) (domain.SeatStateStore, func(), error) {
	switch cfg.inventory {
	case "memory":
		return inventory.NewMemoryStore(), func() {}, nil
	case "redis":
		client, err := newRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return inventory.NewRedisStore(client), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown inventory backend: %s", cfg.inventory)
	}
}

func newBookingRepository(cfg config) (domain.BookingRepository, func(), error) {
	if cfg.db.dsn == "" {
		return repository.NewMemoryBookingRepository(), func() {}, nil
	}

	if err := runMigrations(cfg.db.dsn); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := newDatabasePool(cfg)
	if err != nil {
		return nil, nil, err
	}

	return repository.NewPostgresBookingRepository(db), func() { db.Close() }, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.Up(db, ".")
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware("seat-hold-api", otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)
	r.Use(app.requestLogger)

	r.Get("/healthcheck", app.GetHealth)

	r.Route("/showings", func(r chi.Router) {
		r.Post("/", app.CreateShowingHandler)
		r.Get("/{showingId}/seats", app.GetSeatMapHandler)
	})

	r.Route("/holds", func(r chi.Router) {
		r.Post("/", app.CreateHoldHandler)
		r.Post("/{holdId}/renew", app.RenewHoldHandler)
		r.Post("/{holdId}/release", app.ReleaseHoldHandler)
		r.Post("/{holdId}/commit", app.CommitHoldHandler)
	})

	r.Get("/bookings/{bookingId}", app.GetBookingHandler)

	return r
}
