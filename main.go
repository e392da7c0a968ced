package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-library/internal/handlers"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/middleware"
	"media-library/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize library engine
	lib := library.New(config.ThumbnailsEnabled)
	defer lib.Close()

	if config.LibraryRoot != "" {
		openStart := time.Now()
		if err := lib.Open(context.Background(), config.LibraryRoot); err != nil {
			logging.Fatal("Failed to open library root %s: %v", config.LibraryRoot, err)
		}
		logging.Info("Catalog opened at %s in %v", config.LibraryRoot, time.Since(openStart))

		// Initial scan in the background (non-blocking)
		go func() {
			result, err := lib.Scan()
			if err != nil {
				logging.Error("Initial scan failed: %v", err)
				return
			}
			logging.Info("Initial scan complete: %d added, %d removed, %d updated",
				result.Added, result.Removed, result.Updated)
		}()
	} else {
		logging.Info("No LIBRARY_ROOT configured; waiting for a root via POST /api/root")
	}

	// Drain thumbnail completion notices
	go func() {
		for ready := range lib.ThumbnailReady() {
			logging.Debug("Thumbnail ready: %s", ready.ThumbnailPath)
		}
	}()

	// Initialize handlers and router
	h := handlers.New(lib, config)
	router := setupRouter(h)

	// Apply metrics middleware, then request logging (outermost)
	handler := middleware.Metrics()(router)
	loggingConfig := middleware.LoggingConfig{LogHealthChecks: config.LogHealthChecks}
	handler = middleware.Logger(loggingConfig)(handler)

	// Separate metrics listener keeps /metrics off the public surface
	if config.MetricsEnabled {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())
			logging.Info("Metrics server listening on :%s", config.MetricsPort)
			if err := http.ListenAndServe(":"+config.MetricsPort, metricsMux); err != nil {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, lib, config.ShutdownTimeout)

	logging.Info("Server listening on :%s (startup took %v)", config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/playlist", h.GetPlaylist).Methods("GET")
	api.HandleFunc("/playlist/order", h.SaveOrder).Methods("PUT")
	api.HandleFunc("/scan", h.TriggerScan).Methods("POST")
	api.HandleFunc("/root", h.GetRoot).Methods("GET")
	api.HandleFunc("/root", h.SetRoot).Methods("POST")

	// File mutations
	api.HandleFunc("/files/{id:[0-9]+}/rating", h.SetRating).Methods("POST")
	api.HandleFunc("/files/{id:[0-9]+}/duration", h.SetDuration).Methods("POST")
	api.HandleFunc("/files/{id:[0-9]+}/played", h.RecordPlay).Methods("POST")
	api.HandleFunc("/files/{id:[0-9]+}/tags/toggle", h.ToggleTag).Methods("POST")

	// Tags
	api.HandleFunc("/tags", h.ListTags).Methods("GET")
	api.HandleFunc("/tags", h.AddTag).Methods("POST")

	// Settings
	api.HandleFunc("/settings/{key}", h.GetSetting).Methods("GET")
	api.HandleFunc("/settings/{key}", h.SetSetting).Methods("PUT")

	// Media and thumbnail serving
	r.PathPrefix("/media/").HandlerFunc(h.ServeMedia).Methods("GET")
	r.PathPrefix("/thumbs/").HandlerFunc(h.ServeThumbnail).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, lib *library.Library, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Shutdown initiated (%s)", sig)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logging.Info("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	logging.Info("Closing library")
	lib.Close()

	logging.Info("Shutdown complete")
}
