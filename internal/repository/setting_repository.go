package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
)

// Well-known system setting keys.
const (
	SettingCryptoAPIKey = "crypto_api_key"
	SettingFiatAPIKey   = "fiat_api_key"
)

// SettingRepository provides data access methods for the system_settings
// key/value table. Values holding provider API keys are stored encrypted;
// encryption happens above this layer.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new SettingRepository with the provided database connection.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a setting value by key.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM system_settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query system_settings table: %w", err)
	}
	return value, nil
}

// Set stores a setting value, replacing any existing value for the key.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting: %w", err)
	}
	return nil
}

// Delete removes a setting by key.
func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM system_settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check setting delete: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSettingNotFound
	}
	return nil
}
