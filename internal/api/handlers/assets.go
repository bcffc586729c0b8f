package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/response"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// AssetHandler handles HTTP requests for asset endpoints.
type AssetHandler struct {
	assetService *service.AssetService
}

// NewAssetHandler creates a new AssetHandler with the provided service dependency.
func NewAssetHandler(assetService *service.AssetService) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
	}
}

// Assets handles GET requests to list all tracked assets.
//
// Endpoint: GET /api/asset
// Response: 200 OK with array of Asset
func (h *AssetHandler) Assets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetService.GetAssets(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAssets.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, assets)
}

// GetAsset handles GET requests to retrieve a single asset by symbol.
//
// Endpoint: GET /api/asset/{symbol}
// Response: 200 OK with Asset
// Error: 404 Not Found if the symbol is not tracked
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	asset, err := h.assetService.GetAsset(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAssets.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, asset)
}

// CreateAsset handles POST requests to start tracking an asset. Creating a
// fiat asset sets the reporting currency; creating a blockchain asset also
// kicks off a price history backfill.
//
// Endpoint: POST /api/asset
// Response: 201 Created with the stored Asset
// Error: 400 Bad Request on validation failure
// Error: 409 Conflict if the symbol is already tracked
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	asset, err := h.assetService.CreateAsset(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create asset")
		return
	}
	response.RespondJSON(w, http.StatusCreated, asset)
}

// DeleteAsset handles DELETE requests to stop tracking an asset. The
// asset's price history is removed with it.
//
// Endpoint: DELETE /api/asset/{symbol}
// Response: 204 No Content
// Error: 404 Not Found if the symbol is not tracked
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if err := h.assetService.DeleteAsset(r.Context(), symbol); err != nil {
		respondServiceError(w, err, "failed to delete asset")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
