package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/startup"
)

// Handlers bundles the HTTP boundary around one Library instance.
type Handlers struct {
	lib       *library.Library
	config    *startup.Config
	startTime time.Time
}

// New creates the handler set.
func New(lib *library.Library, config *startup.Config) *Handlers {
	return &Handlers{
		lib:       lib,
		config:    config,
		startTime: time.Now(),
	}
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged; there is no recovery mid-response.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON error response: %v", err)
	}
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSON(w, map[string]string{"status": status})
}

// HealthCheck reports liveness plus basic library state.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	lastScan, lastScanTime := h.lib.LastScan()

	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(h.startTime).String(),
		"rootOpen":  h.lib.IsOpen(),
		"root":      h.lib.Root(),
		"lastScan":  lastScan,
		"scannedAt": lastScanTime,
	})
}

// LivenessCheck always succeeds while the process is serving.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, "alive")
}

// ReadinessCheck succeeds once the service is up; an unopened root is
// still ready (queries return empty pages).
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, "ready")
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, startup.GetBuildInfo())
}
