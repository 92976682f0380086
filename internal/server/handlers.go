// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/tabs"
)

const (
	tabIDHeader    = "X-Tab-Id"
	tabURLHeader   = "X-Tab-Url"
	maxMessageSize = 1 << 20
	readyTimeout   = 2 * time.Second
)

type handlers struct {
	store  store.Store
	tabs   *tabs.Registry
	hub    MessageSink
	bridge Bridge
	log    logger.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := map[string]interface{}{
		"status": "ready",
		"store":  "ok",
		"bridge": h.bridge != nil && h.bridge.Connected(),
	}
	if err := h.store.Ping(ctx); err != nil {
		resp["status"] = "not ready"
		resp["store"] = err.Error()
		writeJSON(w, resp, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// postMessage queues a one-shot message as if a content script had sent
// it. The sender tab comes from the X-Tab-Id header, when present.
func (h *handlers) postMessage(w http.ResponseWriter, r *http.Request) {
	var env models.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&env); err != nil {
		writeError(w, "invalid message envelope: "+err.Error(), http.StatusBadRequest)
		return
	}
	if env.Event == "" {
		writeError(w, "event is required", http.StatusBadRequest)
		return
	}

	var sender models.Sender
	if raw := r.Header.Get(tabIDHeader); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, "invalid "+tabIDHeader+" header", http.StatusBadRequest)
			return
		}
		sender = models.TabSender(id, r.Header.Get(tabURLHeader))
	}

	if err := h.hub.OnMessage(r.Context(), env, sender); err != nil {
		h.log.Warn("Message not accepted", map[string]interface{}{
			"event": string(env.Event),
			"error": err.Error(),
		})
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "accepted", "event": string(env.Event)}, http.StatusAccepted)
}

func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	doc, err := store.ReadDocument(r.Context(), h.store)
	if err != nil {
		h.log.Error("State read failed", map[string]interface{}{"error": err.Error()})
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, doc, http.StatusOK)
}

type tabPatch struct {
	ToggleIsEnabled *bool `json:"toggleIsEnabled"`
	ToggleIsOn      *bool `json:"toggleIsOn"`
}

func (h *handlers) patchTab(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.Atoi(chi.URLParam(r, "tabId"))
	if err != nil {
		writeError(w, "tabId must be an integer", http.StatusBadRequest)
		return
	}

	var patch tabPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&patch); err != nil {
		writeError(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if patch.ToggleIsEnabled == nil && patch.ToggleIsOn == nil {
		writeError(w, "nothing to update", http.StatusBadRequest)
		return
	}

	tab, err := h.tabs.Patch(r.Context(), tabID, func(t *models.CurrentTab) {
		if patch.ToggleIsEnabled != nil {
			t.ToggleIsEnabled = *patch.ToggleIsEnabled
		}
		if patch.ToggleIsOn != nil {
			t.ToggleIsOn = *patch.ToggleIsOn
		}
	})
	if errors.Is(err, tabs.ErrNotTracked) {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, tab, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"error": message}, status)
}
