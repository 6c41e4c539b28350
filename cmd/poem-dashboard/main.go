package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/dashboard"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/settings"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/storage"
	"github.com/theimaginaryfoundation/poetry-decoded/poetry/votes"
)

func main() {
	env, err := settings.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:], env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	display, err := dashboard.LoadDisplayConfig(cfg.DisplayConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger, err := settings.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, display, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, display dashboard.DisplayConfig, logger *slog.Logger) error {
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(logger, "store", closeStore)

	voteStore, closeVotes, err := buildVotes(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(logger, "votes", closeVotes)

	srv := dashboard.NewServer(store, voteStore, display, logger)
	if err := srv.Reload(ctx); err != nil {
		return err
	}

	// SIGHUP reloads the snapshot without a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := srv.Reload(ctx); err != nil {
					logger.Error("reload failed", "error", err)
				}
			}
		}
	}()

	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}
	errc := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "addr", cfg.Addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func closeQuietly(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("close failed", "what", what, "error", err)
	}
}

func buildStore(ctx context.Context, cfg Config) (poetry.ObjectStore, func() error, error) {
	switch cfg.Store {
	case storeLocal:
		return storage.Local{Root: cfg.LocalDir}, func() error { return nil }, nil
	case storeGCS:
		g, err := storage.NewGCS(ctx, cfg.Bucket, cfg.CloudCredsPath)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("buildStore: unknown store %q", cfg.Store)
	}
}

func buildVotes(ctx context.Context, cfg Config) (poetry.VoteStore, func() error, error) {
	switch cfg.Votes {
	case votesNone:
		return nil, func() error { return nil }, nil
	case votesSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir -sqlite-path: %w", err)
		}
		s, err := votes.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case votesFirestore:
		f, err := votes.NewFirestore(ctx, cfg.FirestoreProject, cfg.CloudCredsPath)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	default:
		return nil, nil, fmt.Errorf("buildVotes: unknown vote store %q", cfg.Votes)
	}
}

func parseFlags(fs *flag.FlagSet, args []string, env settings.Settings) (Config, error) {
	cfg := defaultConfig(env)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Object store: gcs or local")
	fs.StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "GCS bucket (default: GCS_BUCKET)")
	fs.StringVar(&cfg.CloudCredsPath, "cloud-creds", cfg.CloudCredsPath, "Service account file for Cloud Storage and Firestore (default: GOOGLE_CLOUD_CREDS_PATH)")
	fs.StringVar(&cfg.LocalDir, "local-dir", cfg.LocalDir, "Root directory for -store local")
	fs.StringVar(&cfg.Votes, "votes", cfg.Votes, "Vote store: firestore, sqlite or none")
	fs.StringVar(&cfg.FirestoreProject, "firestore-project", cfg.FirestoreProject, "Firestore project ID (default: FIRESTORE_PROJECT, or detected)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database for -votes sqlite")
	fs.StringVar(&cfg.DisplayConfig, "display-config", "", "Optional YAML file with theme emojis and low-confidence slugs")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period for in-flight requests on shutdown")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.New("unexpected positional arguments")
	}
	if cfg.LocalDir != "" {
		cfg.LocalDir = filepath.Clean(cfg.LocalDir)
	}
	if cfg.SQLitePath != "" {
		cfg.SQLitePath = filepath.Clean(cfg.SQLitePath)
	}
	if cfg.DisplayConfig != "" {
		cfg.DisplayConfig = filepath.Clean(cfg.DisplayConfig)
	}
	return cfg, nil
}
