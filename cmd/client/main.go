package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"torrentstream/webclient/internal/api"
	apihttp "torrentstream/webclient/internal/api/http"
	"torrentstream/webclient/internal/app"
	"torrentstream/webclient/internal/convert"
	"torrentstream/webclient/internal/metrics"
	"torrentstream/webclient/internal/search"
	"torrentstream/webclient/internal/session"
	"torrentstream/webclient/internal/settings"
	"torrentstream/webclient/internal/telemetry"
	"torrentstream/webclient/internal/ui"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "webclient")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "webclient"),
		slog.String("backendURL", cfg.BackendURL),
		slog.String("uiAddr", cfg.UIAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Int("searchPageSize", cfg.SearchPageSize),
		slog.Duration("cacheTTL", cfg.CacheTTL),
	)

	// No timeout by default: a hung backend call holds its control busy
	// until the backend responds or the page disconnects.
	backendClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	apiClient := api.NewClient(cfg.BackendURL,
		api.WithHTTPClient(backendClient),
		api.WithUserAgent(cfg.UserAgent),
	)

	hub := ui.NewHub(logger)
	defer hub.Close()
	notifier := ui.NewNotifier(hub, logger)

	playControl := ui.NewControl("play-button", "Play Now", hub)
	demoControl := ui.NewControl("demo-button", "Play Now", hub)
	searchControl := ui.NewControl("search-button", "Search", hub)

	settingsManager := settings.NewManager(apiClient, notifier, hub, settings.Controls{
		SaveProxy:      ui.NewControl("save-proxy", "Save Settings", hub),
		SaveProwlarr:   ui.NewControl("save-prowlarr", "Save Settings", hub),
		SaveJackett:    ui.NewControl("save-jackett", "Save Settings", hub),
		ProxySwitch:    ui.NewSwitch("proxy-enabled", hub),
		ProwlarrSwitch: ui.NewSwitch("prowlarr-enabled", hub),
		JackettSwitch:  ui.NewSwitch("jackett-enabled", hub),
		SearchRegion:   ui.NewToggle("search-section", false, hub),
	}, logger)

	coordinator := search.NewCoordinator(apiClient, settingsManager, notifier, hub,
		cfg.SearchPageSize, logger, buildSearchOptions(cfg, searchControl, logger)...)

	converter := convert.NewConverter(apiClient, logger)
	player := session.NewSinkPlayer(hub, logger)
	orchestrator := session.NewOrchestrator(apiClient, converter, player, notifier, logger)

	handler := apihttp.NewServer(orchestrator, coordinator, settingsManager,
		apihttp.WithLogger(logger),
		apihttp.WithHub(hub),
		apihttp.WithNotifier(notifier),
		apihttp.WithPlaybackControls(playControl, demoControl),
	).Handler()

	server := &http.Server{
		Addr:              cfg.UIAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Submissions may legitimately wait on the backend for minutes;
		// write timeouts stay off, matching the no-timeout request model.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Best-effort: the page starts with defaults when the backend is down.
	loadCtx, cancelLoad := context.WithTimeout(rootCtx, 10*time.Second)
	settingsManager.Load(loadCtx)
	cancelLoad()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("webclient started",
		slog.String("addr", cfg.UIAddr),
		slog.String("backend", cfg.BackendURL),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("webclient stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	if strings.ToLower(strings.TrimSpace(formatRaw)) == "json" {
		options := &slog.HandlerOptions{Level: parseLogLevel(levelRaw)}
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true})
	if level, err := charmlog.ParseLevel(levelRaw); err == nil {
		handler.SetLevel(level)
	}
	return slog.New(handler)
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildSearchOptions(cfg app.Config, control *ui.Control, logger *slog.Logger) []search.CoordinatorOption {
	opts := []search.CoordinatorOption{
		search.WithSearchControl(control),
		search.WithRateLimit(cfg.SearchPerMinute),
	}

	if cfg.CacheDisabled {
		opts = append(opts, search.WithCacheDisabled(true))
		return opts
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, search.WithCacheTTL(cfg.CacheTTL))
	}

	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
			return opts
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
			return opts
		}
		logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
		opts = append(opts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
	}

	return opts
}
