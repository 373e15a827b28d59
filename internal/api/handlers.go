package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"osrs-trade-tracker/internal/analytics"
	"osrs-trade-tracker/internal/ingest"
	"osrs-trade-tracker/internal/models"

	"go.uber.org/zap"
)

// maxUploadBytes bounds the CSV body accepted by the import endpoint.
const maxUploadBytes = 32 << 20

// TradeLister lists stored trades, optionally filtered by status.
type TradeLister interface {
	List(ctx context.Context, status string) ([]models.Trade, error)
}

// Aggregator provides the derived analytics.
type Aggregator interface {
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	DailyReturns(ctx context.Context) ([]analytics.DailyBucket, error)
	Timeline(ctx context.Context) ([]analytics.TimelinePoint, error)
}

// CSVImporter imports an uploaded export.
type CSVImporter interface {
	ImportCSV(ctx context.Context, r io.Reader) (ingest.Result, error)
}

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log      *zap.Logger
	trades   TradeLister
	engine   Aggregator
	importer CSVImporter
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, trades TradeLister, engine Aggregator, importer CSVImporter) *APIHandler {
	return &APIHandler{log: log, trades: trades, engine: engine, importer: importer}
}

// Routes registers the API endpoints on mux.
func (h *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/trades", h.TradesHandler)
	mux.HandleFunc("GET /api/dashboard", h.DashboardHandler)
	mux.HandleFunc("GET /api/daily", h.DailyHandler)
	mux.HandleFunc("GET /api/timeline", h.TimelineHandler)
	mux.HandleFunc("POST /api/import", h.ImportHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)
}

// TradesHandler returns stored trades, most recent first. The optional
// "status" query parameter filters case-insensitively.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.trades.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// DashboardHandler returns the headline statistics.
func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	d, err := h.engine.Dashboard(r.Context())
	if err != nil {
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// DailyHandler returns the per-day rollup, newest first.
func (h *APIHandler) DailyHandler(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.engine.DailyReturns(r.Context())
	if err != nil {
		http.Error(w, "Failed to calculate daily returns", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, buckets)
}

// TimelineHandler returns the net-worth timeline, newest first.
func (h *APIHandler) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	points, err := h.engine.Timeline(r.Context())
	if err != nil {
		http.Error(w, "Failed to calculate timeline", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

// ImportHandler imports a CSV export sent as the request body.
func (h *APIHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	res, err := h.importer.ImportCSV(r.Context(), body)
	if errors.Is(err, ingest.ErrMalformedInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("Import failed", zap.Error(err))
		http.Error(w, "Import failed", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}
