package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/acb"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/response"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// ACBHandler handles HTTP requests for adjusted cost base reports.
type ACBHandler struct {
	acbService *service.ACBService
}

// NewACBHandler creates a new ACBHandler with the provided service dependency.
func NewACBHandler(acbService *service.ACBService) *ACBHandler {
	return &ACBHandler{
		acbService: acbService,
	}
}

// CalculateAsset handles GET requests to compute the ACB report for one
// asset. The report maps calendar years to accumulator deltas plus a TOTALS
// entry with lifetime values.
//
// Endpoint: GET /api/acb/{symbol}
// Response: 200 OK with Report
// Error: 400 Bad Request if no reporting currency is configured or the
// symbol is the reporting currency
// Error: 422 Unprocessable Entity when the ledger defeats the calculation
// (missing price, depleted holdings, malformed transaction); the body names
// the offending transaction
func (h *ACBHandler) CalculateAsset(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	report, err := h.acbService.Calculate(r.Context(), symbol)
	if err != nil {
		respondCalculationError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, report)
}

// CalculatePortfolio handles GET requests to compute ACB reports for every
// blockchain asset. Assets that fail are reported in the errors map without
// blocking the rest of the portfolio.
//
// Endpoint: GET /api/acb
// Response: 200 OK with PortfolioReport
func (h *ACBHandler) CalculatePortfolio(w http.ResponseWriter, r *http.Request) {
	report, err := h.acbService.CalculatePortfolio(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToCalculateACB.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, report)
}

func respondCalculationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNoReportingCurrency),
		errors.Is(err, apperrors.ErrReportingCurrencyAsset),
		errors.Is(err, apperrors.ErrInvalidSymbol):
		response.RespondError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	var calcErr *acb.CalculationError
	if errors.As(err, &calcErr) {
		response.RespondError(w, http.StatusUnprocessableEntity,
			apperrors.ErrFailedToCalculateACB.Error(), calcErr.Error())
		return
	}
	response.RespondError(w, http.StatusInternalServerError,
		apperrors.ErrFailedToCalculateACB.Error(), err.Error())
}
