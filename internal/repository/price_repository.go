package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

// PriceRepository provides data access methods for the prices table. Each
// row is one daily closing observation of an asset/fiat pair.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// LatestPrice returns the most recent observation of the pair at or before
// the given time. Price gaps on weekends or holidays resolve to the last
// trading day's close.
func (r *PriceRepository) LatestPrice(ctx context.Context, assetSymbol, fiatSymbol string, atOrBefore time.Time) (model.Price, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT unix_timestamp, asset_symbol, fiat_symbol, price
		FROM prices
		WHERE asset_symbol = ? AND fiat_symbol = ? AND unix_timestamp <= ?
		ORDER BY unix_timestamp DESC
		LIMIT 1
	`, assetSymbol, fiatSymbol, atOrBefore.UnixMilli())

	p, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Price{}, apperrors.ErrPriceNotFound
	}
	if err != nil {
		return model.Price{}, fmt.Errorf("failed to query prices table: %w", err)
	}
	return p, nil
}

// LatestTimestamp returns the time of the newest stored observation for the
// pair, or the zero time when no history exists yet.
func (r *PriceRepository) LatestTimestamp(ctx context.Context, assetSymbol, fiatSymbol string) (time.Time, error) {
	var ms sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(unix_timestamp)
		FROM prices
		WHERE asset_symbol = ? AND fiat_symbol = ?
	`, assetSymbol, fiatSymbol).Scan(&ms)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query prices table: %w", err)
	}
	if !ms.Valid {
		return time.Time{}, nil
	}
	return fromUnixMilli(ms.Int64), nil
}

// GetPrices retrieves the pair's observations within [from, to], ascending.
func (r *PriceRepository) GetPrices(ctx context.Context, assetSymbol, fiatSymbol string, from, to time.Time) ([]model.Price, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT unix_timestamp, asset_symbol, fiat_symbol, price
		FROM prices
		WHERE asset_symbol = ? AND fiat_symbol = ?
		AND unix_timestamp >= ? AND unix_timestamp <= ?
		ORDER BY unix_timestamp ASC
	`, assetSymbol, fiatSymbol, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query prices table: %w", err)
	}
	defer rows.Close()

	var prices []model.Price
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prices table results: %w", err)
		}
		prices = append(prices, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices table: %w", err)
	}
	return prices, nil
}

// UpsertPrices stores a batch of observations, replacing any existing rows
// for the same (timestamp, asset, fiat) key. Re-syncing a window is
// therefore idempotent.
func (r *PriceRepository) UpsertPrices(ctx context.Context, prices []model.Price) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO prices (unix_timestamp, asset_symbol, fiat_symbol, price)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx,
			p.Timestamp.UnixMilli(), p.AssetSymbol, p.FiatSymbol, p.Price.String()); err != nil {
			return fmt.Errorf("failed to upsert price %s/%s@%d: %w",
				p.AssetSymbol, p.FiatSymbol, p.Timestamp.UnixMilli(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}
	return nil
}

func scanPrice(row interface{ Scan(...any) error }) (model.Price, error) {
	var p model.Price
	var ms int64
	var priceStr string
	if err := row.Scan(&ms, &p.AssetSymbol, &p.FiatSymbol, &priceStr); err != nil {
		return model.Price{}, err
	}
	p.Timestamp = fromUnixMilli(ms)
	var err error
	p.Price, err = ParseDecimal(priceStr)
	if err != nil {
		return model.Price{}, err
	}
	return p, nil
}
