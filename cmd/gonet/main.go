package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/backup"
	"github.com/voyagen/gonet/internal/cache"
	"github.com/voyagen/gonet/internal/config"
	"github.com/voyagen/gonet/internal/logging"
	"github.com/voyagen/gonet/internal/metrics"
	"github.com/voyagen/gonet/internal/server"
	"github.com/voyagen/gonet/internal/service"
	"github.com/voyagen/gonet/internal/store"
)

// cacheTTL bounds how long a value may stay in the shared Redis cache.
const cacheTTL = 10 * time.Minute

type flags struct {
	configPath  string
	memory      bool
	importPath  string
	importName  string
	backupPath  string
	restorePath string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Optional config file path (YAML); else use env")
	flag.BoolVar(&f.memory, "memory", false, "Keep all data in memory (nothing is persisted)")
	flag.StringVar(&f.importPath, "import", "", "Ingest an M3U file and exit")
	flag.StringVar(&f.importName, "name", "", "Playlist name for -import")
	flag.StringVar(&f.backupPath, "backup", "", "Write a compressed dump of every key to this file and exit")
	flag.StringVar(&f.restorePath, "restore", "", "Replace all data with the dump in this file and exit")
	flag.Parse()

	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFromFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, log); err != nil {
		log.Error().Err(err).Msg("exiting")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, f flags, log zerolog.Logger) error {
	backend, err := openBackend(ctx, cfg, f.memory, log)
	if err != nil {
		return err
	}

	var shared sharedCache
	if cfg.RedisURL != "" {
		rds, err := cache.New(cfg.RedisURL, cacheTTL, log)
		if err != nil {
			backend.Close()
			return fmt.Errorf("redis: %w", err)
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			backend.Close()
			return fmt.Errorf("redis ping: %w", err)
		}
		shared = rds
		log.Info().Msg("redis connected (shared cache and change events enabled)")
	}

	origin := uuid.NewString()
	st := newStore(backend, cfg, shared, origin, log)
	defer st.Close()

	var m *metrics.Metrics
	var rec metrics.Recorder = metrics.Nop{}
	if cfg.MetricsEnabled {
		m = metrics.New()
		rec = m
		st.OnSave(func(k store.Key) { m.IncStoreSave(string(k)) })
	}
	rec.SetCatalogSize(len(st.MediaItems(ctx)))

	ing := service.NewIngester(st, service.IngesterOptions{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		ProviderURL: cfg.ProviderURL,
		Metrics:     rec,
	}, log)

	switch {
	case f.importPath != "":
		return importFile(ctx, ing, f.importPath, f.importName, log)
	case f.backupPath != "":
		if err := backup.SaveFile(f.backupPath, st.Snapshot(ctx)); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		log.Info().Str("path", f.backupPath).Msg("backup written")
		return nil
	case f.restorePath != "":
		snap, err := backup.LoadFile(f.restorePath)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		if err := backup.Restore(ctx, st, snap); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		log.Info().Str("path", f.restorePath).Int("keys", len(snap)).Msg("backup restored")
		return nil
	}

	if rds, ok := shared.(*cache.Redis); ok {
		go func() {
			err := rds.Listen(ctx, origin, func(ev cache.ChangeEvent) {
				log.Debug().Str("origin", ev.Origin).Str("key", ev.Key).Msg("remote change")
				st.Broadcast()
			})
			if err != nil {
				log.Error().Err(err).Msg("change event listener stopped")
			}
		}()
	}

	srv := server.New(cfg, st, ing, m, log)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// sharedCache is a cache every process sees that also carries change events.
type sharedCache interface {
	cache.Cache
	store.Publisher
}

// newStore wraps backend with a read cache and, when shared is set, a
// change notifier. The in-process cache is only used when no other
// process can write the backend: other writers would never invalidate it.
func newStore(backend store.Backend, cfg *config.Config, shared sharedCache, origin string, log zerolog.Logger) *store.Store {
	switch {
	case shared != nil:
		backend = store.NewCachedBackend(backend, shared)
	case cfg.LocalCacheMB > 0 && multiProcess(backend):
		log.Warn().Msg("local cache disabled: the database is shared with other processes, set REDIS_URL to cache")
	case cfg.LocalCacheMB > 0:
		backend = store.NewCachedBackend(backend, cache.NewLocal(cfg.LocalCacheMB, 0))
		log.Info().Int("mb", cfg.LocalCacheMB).Msg("local cache enabled")
	}
	st := store.New(backend, log)
	if shared != nil {
		st.SetNotifier(store.NewPublishNotifier(shared, origin))
	}
	return st
}

// multiProcess reports whether other processes may write backend.
func multiProcess(backend store.Backend) bool {
	s, ok := backend.(interface{ Shared() bool })
	return ok && s.Shared()
}

// openBackend picks Postgres when a database URL is configured, bbolt
// otherwise, and memory when asked.
func openBackend(ctx context.Context, cfg *config.Config, memory bool, log zerolog.Logger) (store.Backend, error) {
	switch {
	case memory:
		log.Warn().Msg("in-memory store: data is lost on exit")
		return store.NewMemory(), nil
	case cfg.DatabaseURL != "":
		if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		log.Info().Msg("postgres store")
		return pg, nil
	default:
		b, err := store.OpenBolt(cfg.DataPath)
		if err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
		log.Info().Str("path", cfg.DataPath).Msg("bolt store")
		return b, nil
	}
}

// migrationsDir looks for ./migrations, then next to the executable.
func migrationsDir() string {
	dir, err := filepath.Abs("migrations")
	if err != nil {
		dir = "migrations"
	}
	if _, err := os.Stat(dir); err != nil {
		if exe, e := os.Executable(); e == nil {
			dir = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return dir
}

func importFile(ctx context.Context, ing *service.Ingester, path, name string, log zerolog.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer file.Close()
	if name == "" {
		name = filepath.Base(path)
	}
	pl, err := ing.IngestReader(ctx, file, service.Source{Name: name})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("import: %w", err)
	}
	log.Info().Str("playlist", pl.ID).Int("entries", pl.ChannelsCount).Msg("import complete")
	return nil
}
