// cmd/api/main.go
// Main entry point for the matching API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imadgeboyega/datescape-backend/internal/auth"
	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
	"github.com/imadgeboyega/datescape-backend/internal/common/observability"
	"github.com/imadgeboyega/datescape-backend/internal/config"
	"github.com/imadgeboyega/datescape-backend/internal/dating"
	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting DateScape matching API")
	if envErr != nil {
		log.Warn("step 1: no .env file found, using environment variables", "error", envErr)
	} else {
		log.Info("step 1: .env file loaded")
	}
	log.Info("step 2: configuration loaded", "environment", cfg.Environment, "store", cfg.StoreBackend)

	// 3. Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal("step 3: configuration validation failed", "error", err)
	}
	log.Info("step 3: configuration is valid")

	ctx := context.Background()

	// 4. Tracing
	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "datescape-matching",
		Environment: cfg.Environment,
		Enabled:     cfg.OTelEnabled,
	})
	log.Info("step 4: tracing initialized", "enabled", cfg.OTelEnabled)

	// 5. Connect to the store backend
	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("step 5: failed to open store backend", "backend", cfg.StoreBackend, "error", err)
	}
	defer stores.Close()
	log.Info("step 5: store backend ready", "backend", cfg.StoreBackend)

	// 6. Notifications
	notifier, closeNotifier := newNotifier(ctx, cfg, stores, log)
	defer closeNotifier()
	log.Info("step 6: notification pipeline ready")

	// 7. Matching and profile services
	normalizer := profile.NewNormalizer(nil)
	matchService := dating.NewService(stores.Matches, stores.Profiles, notifier, log.With("component", "dating"), dating.Options{
		Normalizer:  normalizer,
		Concurrency: cfg.EnumerationConcurrency,
		QueueLimit:  cfg.QueueLimit,
	})
	profileService := profile.NewService(stores.Profiles, matchService, normalizer, log.With("component", "profile"))
	log.Info("step 7: services initialized")

	// 8. Setup routes
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret, cfg.JWTIssuer)
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	dating.RegisterRoutes(router, dating.NewHandler(matchService), authMiddleware.Authenticate)
	router.PathPrefix("/api/v1/profile").Handler(profile.NewRouter(profile.NewHandler(profileService), authMiddleware.Authenticate))
	router.Use(loggingMiddleware(log))
	log.Info("step 8: routes registered")

	// 9. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("step 9: server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "error", err)
	}

	log.Info("server exited gracefully")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
