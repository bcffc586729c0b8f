package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/response"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/validation"
)

// decodeJSON parses a request body into dst, responding with 400 on
// malformed input. Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return false
	}
	return true
}

// respondServiceError maps service-layer failures to HTTP statuses:
// validation errors to 400 with per-field details, not-found sentinels to
// 404, conflicts to 409, everything else to 500 under the given message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrPriceNotFound),
		errors.Is(err, apperrors.ErrSettingNotFound):
		response.RespondError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), err.Error())
	case errors.Is(err, apperrors.ErrNoReportingCurrency),
		errors.Is(err, apperrors.ErrReportingCurrencyAsset):
		response.RespondError(w, http.StatusBadRequest, err.Error(), "")
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
