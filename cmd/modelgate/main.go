package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/juntao/modelgate/config"
	"github.com/juntao/modelgate/errors"
	"github.com/juntao/modelgate/server"
	"github.com/juntao/modelgate/server/agents"
	"github.com/juntao/modelgate/server/handlers"
	"github.com/juntao/modelgate/server/metrics"
	"github.com/juntao/modelgate/server/middleware"
	"github.com/juntao/modelgate/server/provider"
	"github.com/juntao/modelgate/server/registry"
)

var (
	configFile = flag.String("config", "modelgate.yaml", "Path to configuration file")
	validate   = flag.Bool("validate", false, "Validate configuration and exit")
	version    = flag.Bool("version", false, "Print version and exit")
)

const Version = "v0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("modelgate %s\n", Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *validate {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	errors.SetLogger(logger)

	m := metrics.NewMetrics()
	factory := provider.NewFactory(cfg.Providers, cfg.CircuitBreaker, logger)
	reg := registry.New(factory, logger)
	store := agents.NewMemoryStore()

	h := server.Handlers{
		Chat:   handlers.NewChatHandler(reg, store, cfg.Chat, logger, m),
		Agents: handlers.NewAgentsHandler(store, logger),
		Models: handlers.NewModelsHandler(),
		Health: handlers.NewHealthHandler(factory, logger),
	}

	var origins middleware.AllowedOriginsFunc
	watcher := startWatcher(*configFile, logger)
	if watcher != nil {
		defer watcher.Close()
		origins = func() []string {
			return effectiveOrigins(watcher.GetCurrentConfig().CORS.AllowedOrigins)
		}
	}

	router := server.NewRouter(cfg, h, m, origins, logger)
	srv := server.NewServer(cfg.Server, router, logger)

	if watcher != nil {
		updates := watcher.Subscribe()
		go func() {
			for next := range updates {
				router.SetQueueMaxSize(next.Queue.MaxSize)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("starting modelgate",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// loadConfig loads the YAML configuration when the file exists and falls
// back to pure defaults otherwise, so the gateway can run from environment
// variables alone. PORT and CORS_ORIGIN env overrides apply either way.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		if !os.IsNotExist(underlying(err)) {
			return nil, err
		}
		cfg = config.DefaultConfig()
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}

	cfg.CORS.AllowedOrigins = effectiveOrigins(cfg.CORS.AllowedOrigins)

	return cfg, nil
}

// effectiveOrigins applies the CORS_ORIGIN env fallback whenever the
// configured allow-list is empty. Reloaded configs go through the same
// fallback as the initial load.
func effectiveOrigins(configured []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return config.ParseOrigins(os.Getenv("CORS_ORIGIN"))
}

// startWatcher enables config hot reload when the config file exists.
// Running without a file is fine; there is nothing to watch then.
func startWatcher(path string, logger *zap.Logger) *config.ConfigWatcher {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	watcher, err := config.NewConfigWatcher(path, logger)
	if err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
		return nil
	}
	return watcher
}

func underlying(err error) error {
	for {
		u := errors.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
}

// newLogger builds the process logger from the logging config: json or
// console encoding at the configured level.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
