package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/response"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// PriceHandler handles HTTP requests for price endpoints.
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler with the provided service dependency.
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// Prices handles GET requests to retrieve an asset's stored price history
// in the reporting currency. The optional from and to query parameters are
// unix milliseconds; they default to the full history.
//
// Endpoint: GET /api/price/{symbol}?from=&to=
// Response: 200 OK with array of Price
// Error: 400 Bad Request on a malformed range
func (h *PriceHandler) Prices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	from, ok := parseTimeParam(w, r, "from", time.UnixMilli(0))
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, r, "to", time.Now().UTC())
	if !ok {
		return
	}

	prices, err := h.priceService.GetPrices(r.Context(), symbol, from, to)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrievePrices.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, prices)
}

// LatestPrice handles GET requests to retrieve the newest stored price of
// an asset at or before the optional at query parameter (unix milliseconds,
// default now).
//
// Endpoint: GET /api/price/{symbol}/latest?at=
// Response: 200 OK with Price
// Error: 404 Not Found if no observation exists at or before the time
func (h *PriceHandler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	at, ok := parseTimeParam(w, r, "at", time.Now().UTC())
	if !ok {
		return
	}

	price, err := h.priceService.LatestPrice(r.Context(), symbol, at)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrievePrices.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, price)
}

// RefreshPrices handles POST requests to refresh every tracked asset's
// price history from the providers immediately, outside the daily schedule.
//
// Endpoint: POST /api/price/refresh
// Response: 202 Accepted when the refresh completed
// Error: 500 Internal Server Error if any asset failed to refresh
func (h *PriceHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	if err := h.priceService.RefreshPrices(r.Context()); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRefreshPrices.Error())
		return
	}
	response.RespondJSON(w, http.StatusAccepted, nil)
}

// parseTimeParam reads a unix-millisecond query parameter, responding with
// 400 on malformed input. Returns ok=false when the response has been written.
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string, fallback time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid "+name+" parameter", err.Error())
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
