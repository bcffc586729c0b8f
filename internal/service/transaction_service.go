package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/validation"
)

// TransactionService handles ledger transaction business logic.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
}

// NewTransactionService creates a new TransactionService with the provided repository dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
	}
}

// GetTransactions retrieves every transaction in chronological order.
func (s *TransactionService) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.transactionRepo.GetTransactions(ctx)
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(ctx, transactionID)
}

// CreateTransaction validates and stores a new ledger transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.TransactionRequest) (*model.Transaction, error) {
	if err := validation.ValidateTransaction(req); err != nil {
		return nil, err
	}

	transaction := toTransaction(req)
	transaction.ID = uuid.New().String()
	transaction.CreatedAt = time.Now().UTC()

	if err := s.transactionRepo.CreateTransaction(ctx, *transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return transaction, nil
}

// UpdateTransaction validates and replaces an existing transaction's fields.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.TransactionRequest) (*model.Transaction, error) {
	if err := validation.ValidateTransaction(req); err != nil {
		return nil, err
	}

	transaction := toTransaction(req)
	transaction.ID = transactionID

	if err := s.transactionRepo.UpdateTransaction(ctx, *transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction removes a transaction by its ID.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	return s.transactionRepo.DeleteTransaction(ctx, transactionID)
}

// SkippedRow records a CSV line that failed validation during import.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped,omitempty"`
}

// csvColumns is the expected header of an import file, in order.
var csvColumns = []string{
	"timestamp", "type",
	"send_asset_symbol", "send_asset_quantity",
	"receive_asset_symbol", "receive_asset_quantity",
	"fee_asset_symbol", "fee_asset_quantity",
	"is_income", "notes",
}

// ImportCSV parses a transaction export file and stores every valid row in
// one atomic batch. Rows that fail validation are skipped and reported, not
// fatal; a malformed file or a failed insert aborts the whole import.
func (s *TransactionService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if err := checkCSVHeader(header); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	var batch []model.Transaction
	now := time.Now().UTC()

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		req, err := parseCSVRecord(record)
		if err == nil {
			err = validation.ValidateTransaction(*req)
		}
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}

		transaction := toTransaction(*req)
		transaction.ID = uuid.New().String()
		transaction.CreatedAt = now
		batch = append(batch, *transaction)
	}

	if err := s.transactionRepo.CreateTransactions(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to import transactions: %w", err)
	}
	result.Imported = len(batch)
	return result, nil
}

func checkCSVHeader(header []string) error {
	if len(header) != len(csvColumns) {
		return fmt.Errorf("csv header has %d columns, want %d", len(header), len(csvColumns))
	}
	for i, want := range csvColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return fmt.Errorf("csv column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseCSVRecord(record []string) (*request.TransactionRequest, error) {
	if len(record) != len(csvColumns) {
		return nil, fmt.Errorf("row has %d columns, want %d", len(record), len(csvColumns))
	}

	timestamp, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %q", record[0])
	}

	isIncome := false
	if v := strings.TrimSpace(record[8]); v != "" {
		isIncome, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid is_income: %q", record[8])
		}
	}

	optional := func(v string) *string {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		return &v
	}

	return &request.TransactionRequest{
		Timestamp:            timestamp,
		Type:                 strings.TrimSpace(record[1]),
		SendAssetSymbol:      strings.TrimSpace(record[2]),
		SendAssetQuantity:    optional(record[3]),
		ReceiveAssetSymbol:   strings.TrimSpace(record[4]),
		ReceiveAssetQuantity: optional(record[5]),
		FeeAssetSymbol:       strings.TrimSpace(record[6]),
		FeeAssetQuantity:     optional(record[7]),
		IsIncome:             isIncome,
		Notes:                record[9],
	}, nil
}

// toTransaction converts a validated request into a model transaction. The
// caller assigns the ID and CreatedAt.
func toTransaction(req request.TransactionRequest) *model.Transaction {
	parse := func(v *string) *decimal.Decimal {
		if v == nil {
			return nil
		}
		d := decimal.RequireFromString(*v)
		return &d
	}

	return &model.Transaction{
		Timestamp:            time.UnixMilli(req.Timestamp).UTC(),
		Type:                 model.TransactionType(req.Type),
		SendAssetSymbol:      req.SendAssetSymbol,
		SendAssetQuantity:    parse(req.SendAssetQuantity),
		ReceiveAssetSymbol:   req.ReceiveAssetSymbol,
		ReceiveAssetQuantity: parse(req.ReceiveAssetQuantity),
		FeeAssetSymbol:       req.FeeAssetSymbol,
		FeeAssetQuantity:     parse(req.FeeAssetQuantity),
		IsIncome:             req.IsIncome,
		Notes:                req.Notes,
	}
}
