package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/internal/backup"
	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/metrics"
	"github.com/mmynk/debtledger/internal/middleware"
	"github.com/mmynk/debtledger/internal/service"
	"github.com/mmynk/debtledger/internal/storage/sqlite"
	"github.com/mmynk/debtledger/pkg/logging"
)

const sessionDuration = 12 * time.Hour

func main() {
	logging.Setup()
	cfg := config.Load()
	ctx := context.Background()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	logger := slog.Default()
	settings := config.NewSettings(ctx, store, logger)
	l := ledger.New(ctx, store, settings, ledger.Options{
		Logger:              logger,
		StrictContactDedupe: cfg.StrictContactDedupe,
	})

	lock := auth.NewLock(ctx, settings, auth.LockOptions{HashPins: cfg.HashPins, Logger: logger})
	if notice := lock.Notice(); notice != nil {
		slog.Warn("PIN configuration corrected", "notice", notice)
	}
	slog.Info("Access lock initialized", "state", lock.State())

	jwtManager, err := auth.NewEphemeralJWTManager(sessionDuration)
	if err != nil {
		slog.Error("Failed to initialize session tokens", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	l.Bus.Subscribe("metrics", m.HandleDebtEvent)

	backups := backup.New(store, backup.Options{Validate: cfg.ValidateImports, Logger: logger}, settings, l)

	interceptors := connect.WithInterceptors(
		middleware.RequireUnlocked(lock, jwtManager, service.PublicProcedures...),
		middleware.LoggingInterceptor(logger),
		m.Interceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(service.NewLedgerService(l, settings, logger).Handler(interceptors))
	mux.Handle(service.NewLockService(lock, jwtManager, m, logger).Handler(interceptors))
	mux.Handle(service.NewBackupService(backups, m, logger).Handler(interceptors))
	mux.Handle("/metrics", m.Handler())

	if cfg.StaticPath != "" {
		handler, err := staticHandler(cfg.StaticPath)
		if err != nil {
			slog.Error("Failed to resolve static path", "error", err)
			os.Exit(1)
		}
		mux.Handle("/", handler)
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(middleware.HTTPLogging(logger, middleware.CORS(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// staticHandler serves the front-end files in dir. Unknown paths get
// index.html so the front end can route them.
func staticHandler(dir string) (http.Handler, error) {
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if this is an API request (Connect RPC)
		if strings.HasPrefix(r.URL.Path, "/debtledger.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}
