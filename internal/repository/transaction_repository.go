package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

// TransactionRepository provides data access methods for the transactions
// table. Queries always return transactions sorted ascending by timestamp,
// with the id as a tie-break, so downstream calculations are deterministic.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, unix_timestamp, transaction_type,
	send_asset_symbol, send_asset_quantity,
	receive_asset_symbol, receive_asset_quantity,
	fee_asset_symbol, fee_asset_quantity,
	is_income, notes, created_at`

// GetTransactions retrieves every transaction in chronological order.
func (r *TransactionRepository) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY unix_timestamp ASC, id ASC
	`)
}

// GetTransactionsForAsset retrieves every transaction that references the
// symbol on its send, receive, or fee leg, in chronological order.
func (r *TransactionRepository) GetTransactionsForAsset(ctx context.Context, symbol string) ([]model.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE send_asset_symbol = ? OR receive_asset_symbol = ? OR fee_asset_symbol = ?
		ORDER BY unix_timestamp ASC, id ASC
	`, symbol, symbol, symbol)
}

// GetTransaction retrieves a single transaction by id.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to query transactions table: %w", err)
	}
	return t, nil
}

// CreateTransaction inserts a single transaction.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, t model.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, transactionArgs(t)...)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// CreateTransactions inserts a batch of transactions atomically. Used by the
// CSV importer so a partial file never lands.
func (r *TransactionRepository) CreateTransactions(ctx context.Context, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx, transactionArgs(t)...); err != nil {
			if isUniqueViolation(err) {
				return apperrors.ErrDuplicateEntry
			}
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction batch: %w", err)
	}
	return nil
}

// UpdateTransaction replaces all mutable fields of an existing transaction.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			unix_timestamp = ?, transaction_type = ?,
			send_asset_symbol = ?, send_asset_quantity = ?,
			receive_asset_symbol = ?, receive_asset_quantity = ?,
			fee_asset_symbol = ?, fee_asset_quantity = ?,
			is_income = ?, notes = ?
		WHERE id = ?
	`, t.Timestamp.UnixMilli(), t.Type,
		stringArg(t.SendAssetSymbol), decimalArg(t.SendAssetQuantity),
		stringArg(t.ReceiveAssetSymbol), decimalArg(t.ReceiveAssetQuantity),
		stringArg(t.FeeAssetSymbol), decimalArg(t.FeeAssetQuantity),
		t.IsIncome, t.Notes, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check transaction update: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction by id.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check transaction delete: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions table: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transactions table results: %w", err)
		}
		txs = append(txs, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions table: %w", err)
	}
	return txs, nil
}

func transactionArgs(t model.Transaction) []any {
	return []any{
		t.ID, t.Timestamp.UnixMilli(), t.Type,
		stringArg(t.SendAssetSymbol), decimalArg(t.SendAssetQuantity),
		stringArg(t.ReceiveAssetSymbol), decimalArg(t.ReceiveAssetQuantity),
		stringArg(t.FeeAssetSymbol), decimalArg(t.FeeAssetQuantity),
		t.IsIncome, t.Notes, t.CreatedAt.UnixMilli(),
	}
}

func scanTransaction(row interface{ Scan(...any) error }) (model.Transaction, error) {
	var t model.Transaction
	var ms, createdAt int64
	var sendSymbol, receiveSymbol, feeSymbol sql.NullString
	var sendQty, receiveQty, feeQty sql.NullString

	err := row.Scan(
		&t.ID, &ms, &t.Type,
		&sendSymbol, &sendQty,
		&receiveSymbol, &receiveQty,
		&feeSymbol, &feeQty,
		&t.IsIncome, &t.Notes, &createdAt,
	)
	if err != nil {
		return model.Transaction{}, err
	}

	t.Timestamp = fromUnixMilli(ms)
	t.CreatedAt = fromUnixMilli(createdAt)
	t.SendAssetSymbol = sendSymbol.String
	t.ReceiveAssetSymbol = receiveSymbol.String
	t.FeeAssetSymbol = feeSymbol.String

	if t.SendAssetQuantity, err = parseNullDecimal(sendQty); err != nil {
		return model.Transaction{}, err
	}
	if t.ReceiveAssetQuantity, err = parseNullDecimal(receiveQty); err != nil {
		return model.Transaction{}, err
	}
	if t.FeeAssetQuantity, err = parseNullDecimal(feeQty); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}
