package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/enitrat/cairo-wasm/internal/gateway/repository/ledger"
)

// MaxRunLogsLimit caps a single /debug/run-logs page.
const MaxRunLogsLimit = 500

type TraceHandler struct {
	ledger ledger.Store
}

func NewTraceHandler(store ledger.Store) *TraceHandler {
	return &TraceHandler{ledger: store}
}

type runLogView struct {
	ID         string    `json:"id"`
	Call       string    `json:"call"`
	Crate      string    `json:"crate,omitempty"`
	Success    bool      `json:"success"`
	Panicked   bool      `json:"panicked"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// HandleRunLogs lists recent gateway calls, newest first. With ?id= it
// returns a single entry.
func (h *TraceHandler) HandleRunLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		h.handleRunLog(w, r, id)
		return
	}

	limit := ledger.DefaultRecentLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(v, MaxRunLogsLimit)
	}
	entries, err := h.ledger.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]runLogView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toRunLogView(e))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"limit":  limit,
		"events": views,
	})
}

func (h *TraceHandler) handleRunLog(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toRunLogView(e))
}

func toRunLogView(e ledger.Entry) runLogView {
	return runLogView{
		ID:         e.ID,
		Call:       e.Call,
		Crate:      e.Crate,
		Success:    e.Success,
		Panicked:   e.Panicked,
		Error:      e.Error,
		DurationMS: float64(e.Duration.Microseconds()) / 1000,
		CreatedAt:  e.CreatedAt,
	}
}
