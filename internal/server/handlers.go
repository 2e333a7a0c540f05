package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"trade-dashboard-go/internal/database"
	"trade-dashboard-go/internal/models"
	"trade-dashboard-go/internal/tradeapi"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// TradeRepository is the storage the handlers need.
type TradeRepository interface {
	TradeCodes(ctx context.Context) ([]string, error)
	List(ctx context.Context, q database.ListQuery) (models.TradePage, error)
	Create(ctx context.Context, trade *models.Trade) error
	Patch(ctx context.Context, id uint, patch models.TradePatch) (models.Trade, error)
	Delete(ctx context.Context, id uint) error
}

var _ TradeRepository = (*database.TradeRepository)(nil)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log  *zap.Logger
	repo TradeRepository
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, repo TradeRepository) *APIHandler {
	return &APIHandler{log: log, repo: repo}
}

// Routes registers every endpoint on a new mux.
func (h *APIHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HealthHandler)
	mux.HandleFunc("GET /api/trade-codes", h.TradeCodesHandler)
	mux.HandleFunc("GET /api/trades", h.ListTradesHandler)
	mux.HandleFunc("POST /api/trades", h.CreateTradeHandler)
	mux.HandleFunc("PATCH /api/trades/{id}", h.PatchTradeHandler)
	mux.HandleFunc("DELETE /api/trades/{id}", h.DeleteTradeHandler)
	return h.withRequestLog(mux)
}

// withRequestLog tags each request with an id, reusing the client's when sent.
func (h *APIHandler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(tradeapi.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(tradeapi.RequestIDHeader, id)
		h.log.Debug("Handling request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", id),
		)
		next.ServeHTTP(w, r)
	})
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TradeCodesHandler returns the distinct trade codes.
func (h *APIHandler) TradeCodesHandler(w http.ResponseWriter, r *http.Request) {
	codes, err := h.repo.TradeCodes(r.Context())
	if err != nil {
		h.log.Error("Failed to get trade codes from database", zap.Error(err))
		http.Error(w, "Failed to get trade codes", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, codes)
}

// ListTradesHandler returns one filtered, sorted page of trades.
func (h *APIHandler) ListTradesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLimit {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}
	offset := 0
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		offset = n
	}

	page, err := h.repo.List(r.Context(), database.ListQuery{
		TradeCode: q.Get("trade_code"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
		Sort:      q.Get("sort"),
		Order:     q.Get("order"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// CreateTradeHandler stores a new trade. Any identifier in the body is ignored.
func (h *APIHandler) CreateTradeHandler(w http.ResponseWriter, r *http.Request) {
	var payload models.NewTrade
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid trade body", http.StatusBadRequest)
		return
	}

	trade := payload.Trade()
	if err := h.repo.Create(r.Context(), &trade); err != nil {
		h.log.Error("Failed to create trade", zap.Error(err))
		http.Error(w, "Failed to create trade", http.StatusInternalServerError)
		return
	}
	h.log.Info("Trade created", zap.Uint("id", trade.ID), zap.String("trade_code", trade.TradeCode))
	h.writeJSON(w, http.StatusCreated, trade)
}

// PatchTradeHandler updates close and/or volume of a trade.
func (h *APIHandler) PatchTradeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var patch models.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid patch body", http.StatusBadRequest)
		return
	}

	trade, err := h.repo.Patch(r.Context(), id, patch)
	if err != nil {
		h.writeRepoError(w, "Failed to update trade", id, err)
		return
	}
	h.writeJSON(w, http.StatusOK, trade)
}

// DeleteTradeHandler removes a trade.
func (h *APIHandler) DeleteTradeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeRepoError(w, "Failed to delete trade", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil {
		http.Error(w, "Invalid trade id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func (h *APIHandler) writeRepoError(w http.ResponseWriter, msg string, id uint, err error) {
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	h.log.Error(msg, zap.Uint("id", id), zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}
