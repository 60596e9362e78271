package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bandfest/internal/database"
	"bandfest/internal/database/boltstore"
	"bandfest/internal/database/sqlitestore"
	"bandfest/internal/handlers"
	"bandfest/internal/lineup"
	"bandfest/internal/live"
	"bandfest/internal/metrics"
	"bandfest/internal/routing"
	"bandfest/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Configure zerolog
	// Set log level from environment (default: info)
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Bandfest lineup")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.Init(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
		log.Info().Msg("Tracing enabled")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer store.Close()

	log.Info().Str("backend", cfg.StoreBackend).Str("path", cfg.DBPath).Msg("Database opened")

	if cfg.SeedPath != "" {
		artists, err := lineup.LoadSeed(cfg.SeedPath)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedPath).Msg("Failed to load lineup seed")
		}
		n, err := database.Seed(ctx, store, artists)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed lineup")
		}
		log.Info().Int("count", n).Str("file", cfg.SeedPath).Msg("Lineup seeded")
	}

	metrics.StartCollector(ctx, statsSource(store), cfg.MetricsInterval)

	hub := live.NewHub()
	h := handlers.NewHandler(store, hub, handlers.Config{
		Title:   cfg.Title,
		LiveURL: "/ws/lineup",
	})

	srv := &http.Server{
		Addr: "0.0.0.0:" + cfg.Port,
		Handler: routing.SetupRouter(routing.Config{
			Handlers: h,
			Logger:   log.Logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("address", srv.Addr).
			Str("url", "http://localhost:"+cfg.Port).
			Str("store", cfg.StoreBackend).
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}

// config is read from the environment
type config struct {
	Port            string
	Title           string
	StoreBackend    string
	DBPath          string
	SeedPath        string
	MetricsInterval time.Duration
	TracingEnabled  bool
}

func loadConfig() (config, error) {
	cfg := config{
		Port:            os.Getenv("PORT"),
		Title:           os.Getenv("BANDFEST_TITLE"),
		StoreBackend:    os.Getenv("BANDFEST_STORE"),
		DBPath:          os.Getenv("BANDFEST_DB_PATH"),
		SeedPath:        os.Getenv("BANDFEST_SEED_PATH"),
		MetricsInterval: time.Minute,
		TracingEnabled:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
	}

	if cfg.Port == "" {
		cfg.Port = "18910"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "bolt"
	}
	if cfg.StoreBackend != "bolt" && cfg.StoreBackend != "sqlite" {
		return cfg, errors.New("BANDFEST_STORE must be bolt or sqlite")
	}

	if v := os.Getenv("BANDFEST_METRICS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, err
		}
		cfg.MetricsInterval = d
	}

	if cfg.DBPath == "" {
		// Default to XDG data directory or home directory for development
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return cfg, err
			}
			dataDir = filepath.Join(home, ".local", "share")
		}
		name := "bandfest.db"
		if cfg.StoreBackend == "sqlite" {
			name = "bandfest.sqlite"
		}
		cfg.DBPath = filepath.Join(dataDir, "bandfest", name)
	}

	return cfg, nil
}

func openStore(ctx context.Context, cfg config) (database.ArtistStore, error) {
	if cfg.StoreBackend == "sqlite" {
		return sqlitestore.Open(ctx, cfg.DBPath)
	}

	bolt, err := boltstore.Open(boltstore.Options{Path: cfg.DBPath})
	if err != nil {
		return nil, err
	}
	return &boltArtists{ArtistStore: bolt.ArtistStore(), store: bolt}, nil
}

// boltArtists ties the artist store's lifetime to the bolt database
type boltArtists struct {
	*boltstore.ArtistStore
	store *boltstore.Store
}

func (b *boltArtists) Close() error {
	return b.store.Close()
}

func statsSource(store database.ArtistStore) metrics.StatsSource {
	return metrics.StatsSource{
		ArtistCount: func() int {
			n, err := store.CountArtists(context.Background())
			if err != nil {
				return -1
			}
			return n
		},
		HeadlinerCount: func() int {
			artists, err := store.ListArtists(context.Background())
			if err != nil {
				return -1
			}
			n := 0
			for _, a := range artists {
				if a.IsHeadliner {
					n++
				}
			}
			return n
		},
	}
}
