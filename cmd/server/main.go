package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/hppanpaliya/FairShare-AI/internal/billing"
	"github.com/hppanpaliya/FairShare-AI/internal/config"
	"github.com/hppanpaliya/FairShare-AI/internal/extraction"
	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
	"github.com/hppanpaliya/FairShare-AI/internal/middleware"
	"github.com/hppanpaliya/FairShare-AI/internal/realtime"
	"github.com/hppanpaliya/FairShare-AI/internal/realtime/bus"
	"github.com/hppanpaliya/FairShare-AI/internal/service"
	"github.com/hppanpaliya/FairShare-AI/internal/storage/sqlite"
	"github.com/hppanpaliya/FairShare-AI/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	hubBuffer       = 32
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize SQLite storage
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	images, closeImages, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeImages()

	extractor := newExtractor(cfg.OpenAI)

	g, gctx := errgroup.WithContext(ctx)

	hub := realtime.NewHub(hubBuffer)
	var publisher billing.Publisher = hub
	if cfg.RedisAddr != "" {
		relay, err := bus.NewRedisRelay(ctx, cfg.RedisAddr, cfg.RedisChannel, hub)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer relay.Close()
		g.Go(func() error { return relay.Start(gctx) })
		publisher = relay
		slog.Info("Broadcasting through redis", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	}

	svc := billing.New(store, images, extractor, publisher, billing.WithMaxImageBytes(cfg.MaxImageBytes))

	mux := http.NewServeMux()

	// Register Connect service
	eventPath, eventHandler := service.NewEventServiceHandler(
		service.NewEventService(svc),
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	)
	mux.Handle(eventPath, eventHandler)

	service.NewImageHandler(svc, cfg.MaxImageBytes).Register(mux)
	mux.Handle("/ws", realtime.NewHandler(hub))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", service.HealthHandler(store))

	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		return fmt.Errorf("resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)
	mux.HandleFunc("/", staticHandler(staticDir))

	handler := middleware.Logging(middleware.CORS(cfg.CORSOrigin)(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openImageStore(ctx context.Context, cfg *config.Config) (imagestore.Store, func(), error) {
	switch cfg.ImageStore {
	case config.ImageStoreGCS:
		gcs, err := imagestore.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open gcs image store: %w", err)
		}
		slog.Info("Image store initialized", "backend", "gcs", "bucket", cfg.GCSBucket)
		return gcs, func() { _ = gcs.Close() }, nil
	default:
		local, err := imagestore.NewLocalStore(cfg.UploadsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open local image store: %w", err)
		}
		slog.Info("Image store initialized", "backend", "local", "dir", cfg.UploadsDir)
		return local, func() {}, nil
	}
}

func newExtractor(cfg config.OpenAI) extraction.Extractor {
	ex, err := extraction.NewOpenAIExtractor(extraction.OpenAIConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		slog.Warn("Bill extraction disabled", "error", err)
		return extraction.Disabled{}
	}
	slog.Info("Bill extraction enabled", "model", cfg.Model, "max_retries", cfg.MaxRetries)
	return ex
}

// staticHandler serves the frontend build, falling back to index.html for
// client-side routes.
func staticHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Unmatched RPC paths must not be answered with the SPA
		if strings.HasPrefix(r.URL.Path, "/"+service.EventServiceName+"/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))

		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}
}
