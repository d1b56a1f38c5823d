package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"mediaedge/auth"
	"mediaedge/cdn"
	"mediaedge/config"
	"mediaedge/logger"
	"mediaedge/middleware"
	"mediaedge/redirects"
	"mediaedge/routes"
	"mediaedge/storage"
	"mediaedge/uploads"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// recordMaxAge is how long upload records are kept.
const recordMaxAge = 30 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	cfg := config.Load()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info("Starting mediaedge server initialization")

	if cfg.CDN.CDNBase == "" {
		logger.Warnf("NEXT_PUBLIC_CDN_URL is not set, media URLs fall back to %s", cfg.CDN.CDNBaseOrDefault())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize upload record store
	logger.Debug("Initializing uploads database")
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatalf("Failed to create data directory %s: %v", cfg.DataDir, err)
	}
	store, err := uploads.Open(config.GetUploadsDBPath())
	if err != nil {
		logger.Fatalf("Failed to initialize uploads store: %v", err)
	}
	defer store.Close()
	logger.Info("Uploads database initialized successfully")

	provider, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize upload provider: %v", err)
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}
	logger.Infof("Upload provider: %s", provider.Name())

	// Load redirects before serving so the first requests see them
	table := redirects.NewTable(redirects.NewClient(cfg.CDN.APIBaseOrDefault(), nil))
	table.Refresh(ctx)
	logger.Infof("Loaded %d redirect rules", table.Len())
	go table.Run(ctx, cfg.RedirectRefresh)

	logger.Info("Starting cleanup routine (runs every 24 hours)")
	go cleanupRoutine(ctx, store)

	images := cdn.NewImagePolicy(cfg.Images)
	srv := &routes.Server{
		Rewriter: cdn.NewRewriter(cfg.CDN),
		Images:   images,
		Store:    store,
		Provider: provider,
		Verify:   auth.VerifyConfig{SecretKey: []byte(cfg.UploadJWTSecret), ClockSkew: time.Minute},
	}

	origin, err := url.Parse(cfg.StrapiURL)
	if err != nil {
		logger.Fatalf("Invalid STRAPI_URL %q: %v", cfg.StrapiURL, err)
	}
	proxy := middleware.NewOriginProxy(origin)

	// Register HTTP routes
	logger.Info("Registering HTTP routes")
	http.HandleFunc("/health", srv.HealthHandler)
	http.HandleFunc("/version", routes.VersionHandler)
	http.HandleFunc("/image", srv.ImageHandler)
	http.HandleFunc("/upload", srv.UploadHandler)
	http.HandleFunc("/uploads", srv.UploadQueryHandler)
	http.HandleFunc("/uploads/list", srv.UploadListHandler)
	http.Handle("/metrics", promhttp.Handler())
	if local, ok := provider.(*storage.Local); ok {
		files := http.FileServer(http.Dir(local.BaseDir()))
		http.Handle("/uploads/", middleware.CacheHeaders(images.ServeHeaders())(files))
	}
	http.Handle("/", table.Middleware(middleware.ResponseRewriter(cfg.CDN)(proxy)))
	logger.Info("HTTP routes registered successfully")

	logger.Infof("mediaedge server starting on port %s, proxying %s", cfg.Port, cfg.StrapiURL)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}
}

// cleanupRoutine periodically removes old upload records
func cleanupRoutine(ctx context.Context, store *uploads.Store) {
	logger.Info("Cleanup routine started - will run every 24 hours")
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			logger.Debugf("Cleaning up upload records older than %v", recordMaxAge)
			removed, err := store.CleanupOlderThan(recordMaxAge)
			if err != nil {
				logger.Errorf("Failed to cleanup old upload records: %v", err)
				continue
			}
			logger.Infof("Scheduled cleanup completed, removed %d records", removed)
		}
	}
}
