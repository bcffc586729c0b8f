package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/response"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// TransactionHandler handles HTTP requests for transaction endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transactions handles GET requests to retrieve the full ledger in
// chronological order.
//
// Endpoint: GET /api/transaction
// Response: 200 OK with array of Transaction
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactionService.GetTransactions(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveTransactions.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, transactions)
}

// TransactionTypes handles GET requests to list the valid transaction types.
//
// Endpoint: GET /api/transaction/types
// Response: 200 OK with array of type names
func (h *TransactionHandler) TransactionTypes(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, model.TransactionTypes)
}

// GetTransaction handles GET requests to retrieve a single transaction by ID.
//
// Endpoint: GET /api/transaction/{uuid}
// Response: 200 OK with Transaction
// Error: 404 Not Found if the transaction does not exist
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	transaction, err := h.transactionService.GetTransaction(r.Context(), transactionID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveTransactions.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction handles POST requests to record a new ledger transaction.
//
// Endpoint: POST /api/transaction
// Response: 201 Created with the stored Transaction
// Error: 400 Bad Request on validation failure
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req request.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create transaction")
		return
	}
	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction handles PUT requests to replace a transaction's fields.
//
// Endpoint: PUT /api/transaction/{uuid}
// Response: 200 OK with the updated Transaction
// Error: 400 Bad Request on validation failure
// Error: 404 Not Found if the transaction does not exist
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	var req request.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), transactionID, req)
	if err != nil {
		respondServiceError(w, err, "failed to update transaction")
		return
	}
	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles DELETE requests to remove a transaction.
//
// Endpoint: DELETE /api/transaction/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the transaction does not exist
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	if err := h.transactionService.DeleteTransaction(r.Context(), transactionID); err != nil {
		respondServiceError(w, err, "failed to delete transaction")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ImportTransactions handles POST requests to bulk-import transactions from
// a CSV body. Valid rows are stored in one atomic batch; invalid rows are
// skipped and reported in the result.
//
// Endpoint: POST /api/transaction/import (body: text/csv)
// Response: 200 OK with ImportResult
// Error: 400 Bad Request if the file itself is malformed
func (h *TransactionHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	result, err := h.transactionService.ImportCSV(r.Context(), r.Body)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest,
			apperrors.ErrFailedToImportTransactions.Error(), err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}
