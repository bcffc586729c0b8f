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

// AssetRepository provides data access methods for the assets table. Assets
// are keyed by symbol; at most one fiat asset exists at a time and acts as
// the reporting currency.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = "symbol, name, asset_type, launch_date, logo_url"

func scanAsset(row interface{ Scan(...any) error }) (model.Asset, error) {
	var a model.Asset
	var launchDate sql.NullInt64
	if err := row.Scan(&a.Symbol, &a.Name, &a.Type, &launchDate, &a.LogoURL); err != nil {
		return model.Asset{}, err
	}
	if launchDate.Valid {
		t := fromUnixMilli(launchDate.Int64)
		a.LaunchDate = &t
	}
	return a, nil
}

// GetAssets retrieves all tracked assets ordered by symbol.
func (r *AssetRepository) GetAssets(ctx context.Context) ([]model.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets ORDER BY symbol ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query assets table: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assets table results: %w", err)
		}
		assets = append(assets, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets table: %w", err)
	}
	return assets, nil
}

// GetAsset retrieves a single asset by symbol.
func (r *AssetRepository) GetAsset(ctx context.Context, symbol string) (model.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE symbol = ?", symbol)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query assets table: %w", err)
	}
	return a, nil
}

// CreateAsset inserts a new asset. Adding a fiat asset replaces any existing
// fiat asset, since only one reporting currency is supported.
func (r *AssetRepository) CreateAsset(ctx context.Context, asset model.Asset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if asset.Type == model.AssetTypeFiat {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM assets WHERE asset_type = ?", model.AssetTypeFiat); err != nil {
			return fmt.Errorf("failed to replace fiat asset: %w", err)
		}
	}

	var launchDate any
	if asset.LaunchDate != nil {
		launchDate = asset.LaunchDate.UnixMilli()
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO assets ("+assetColumns+") VALUES (?, ?, ?, ?, ?)",
		asset.Symbol, asset.Name, asset.Type, launchDate, asset.LogoURL)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit asset insert: %w", err)
	}
	return nil
}

// SetLaunchDate records the earliest known price observation for an asset.
func (r *AssetRepository) SetLaunchDate(ctx context.Context, symbol string, launchDate time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE assets SET launch_date = ? WHERE symbol = ?",
		launchDate.UnixMilli(), symbol)
	if err != nil {
		return fmt.Errorf("failed to update asset launch date: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check asset update: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// DeleteAsset removes an asset and, through the foreign key cascade, its
// price history.
func (r *AssetRepository) DeleteAsset(ctx context.Context, symbol string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assets WHERE symbol = ?", symbol)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check asset delete: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// ReportingCurrency returns the symbol of the configured fiat asset.
func (r *AssetRepository) ReportingCurrency(ctx context.Context) (string, error) {
	var symbol string
	err := r.db.QueryRowContext(ctx,
		"SELECT symbol FROM assets WHERE asset_type = ? LIMIT 1",
		model.AssetTypeFiat).Scan(&symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrNoReportingCurrency
	}
	if err != nil {
		return "", fmt.Errorf("failed to query reporting currency: %w", err)
	}
	return symbol, nil
}
