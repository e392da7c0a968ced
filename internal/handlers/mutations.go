package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"media-library/internal/catalog"
	"media-library/internal/logging"
)

// decodeJSONBody decodes a JSON request body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// fileIDFromRequest extracts the {id} route variable.
func fileIDFromRequest(r *http.Request) (int64, error) {
	idStr, ok := mux.Vars(r)["id"]
	if !ok {
		return 0, errors.New("missing file id")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid file id %q", idStr)
	}
	return id, nil
}

// writeMutationError maps engine failure kinds onto HTTP statuses.
func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotOpen):
		writeJSONError(w, "no library root open", http.StatusConflict)
	case errors.Is(err, catalog.ErrConstraint):
		writeJSONError(w, "constraint violation", http.StatusUnprocessableEntity)
	default:
		logging.Error("Mutation failed: %v", err)
		writeJSONError(w, "mutation failed", http.StatusInternalServerError)
	}
}

// SetRating overwrites a file's rating; the boundary clamps to 0-5.
func (h *Handlers) SetRating(w http.ResponseWriter, r *http.Request) {
	fileID, err := fileIDFromRequest(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Rating int `json:"rating"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.lib.SetRating(r.Context(), fileID, clamp(body.Rating, 0, 5)); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// SetDuration records a file's playback duration once known.
func (h *Handlers) SetDuration(w http.ResponseWriter, r *http.Request) {
	fileID, err := fileIDFromRequest(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		DurationMS int64 `json:"durationMs"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.DurationMS < 0 {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.lib.SetDuration(r.Context(), fileID, body.DurationMS); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// RecordPlay bumps a file's play statistics.
func (h *Handlers) RecordPlay(w http.ResponseWriter, r *http.Request) {
	fileID, err := fileIDFromRequest(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.lib.RecordPlay(r.Context(), fileID); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// ToggleTag flips one tag on one file.
func (h *Handlers) ToggleTag(w http.ResponseWriter, r *http.Request) {
	fileID, err := fileIDFromRequest(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSONBody(r, &body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeJSONError(w, "tag name is required", http.StatusBadRequest)
		return
	}

	tagged, err := h.lib.ToggleTag(r.Context(), fileID, body.Name)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"tagged": tagged})
}

// ListTags returns the tag vocabulary.
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.lib.ListTags(r.Context())
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, map[string][]string{"tags": tags})
}

// AddTag pre-seeds a tag without associating it to any file.
func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSONBody(r, &body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeJSONError(w, "tag name is required", http.StatusBadRequest)
		return
	}

	if err := h.lib.AddTag(r.Context(), body.Name); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// SaveOrder rewrites the manual playlist order from an ordered id list.
func (h *Handlers) SaveOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileIDs []int64 `json:"fileIds"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.lib.SaveOrder(body.FileIDs); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

// GetSetting reads one settings key.
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	value, found, err := h.lib.GetSetting(r.Context(), key)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	if !found {
		writeJSONError(w, "setting not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"name": key, "value": value})
}

// SetSetting upserts one settings key.
func (h *Handlers) SetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var body struct {
		Value string `json:"value"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.lib.SetSetting(r.Context(), key, body.Value); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}
