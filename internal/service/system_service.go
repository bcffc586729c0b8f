package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/database"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/secrets"
)

// SystemService handles system-level operations: health checks and the
// encrypted provider API keys stored in system settings.
type SystemService struct {
	db          *sql.DB
	settingRepo *repository.SettingRepository
	keeper      *secrets.Keeper
}

// NewSystemService creates a new SystemService with the provided dependencies.
func NewSystemService(db *sql.DB, settingRepo *repository.SettingRepository, keeper *secrets.Keeper) *SystemService {
	return &SystemService{
		db:          db,
		settingRepo: settingRepo,
		keeper:      keeper,
	}
}

// Health reports whether the database connection is usable.
func (s *SystemService) Health() error {
	return database.HealthCheck(s.db)
}

// APIKeyStatus reports which provider keys are configured, without exposing
// the keys themselves.
type APIKeyStatus struct {
	CryptoAPIKeySet bool `json:"crypto_api_key_set"`
	FiatAPIKeySet   bool `json:"fiat_api_key_set"`
}

// SetAPIKeys encrypts and stores the provided provider keys. Nil fields are
// left unchanged; an empty string removes the stored key.
func (s *SystemService) SetAPIKeys(ctx context.Context, req request.SetAPIKeysRequest) error {
	if err := s.storeKey(ctx, repository.SettingCryptoAPIKey, req.CryptoAPIKey); err != nil {
		return err
	}
	return s.storeKey(ctx, repository.SettingFiatAPIKey, req.FiatAPIKey)
}

func (s *SystemService) storeKey(ctx context.Context, setting string, value *string) error {
	if value == nil {
		return nil
	}
	if *value == "" {
		err := s.settingRepo.Delete(ctx, setting)
		if errors.Is(err, apperrors.ErrSettingNotFound) {
			return nil
		}
		return err
	}
	encrypted, err := s.keeper.Encrypt(*value)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", setting, err)
	}
	return s.settingRepo.Set(ctx, setting, encrypted)
}

// GetAPIKeyStatus reports which provider keys are currently stored.
func (s *SystemService) GetAPIKeyStatus(ctx context.Context) (APIKeyStatus, error) {
	status := APIKeyStatus{}

	_, err := s.settingRepo.Get(ctx, repository.SettingCryptoAPIKey)
	if err == nil {
		status.CryptoAPIKeySet = true
	} else if !errors.Is(err, apperrors.ErrSettingNotFound) {
		return APIKeyStatus{}, err
	}

	_, err = s.settingRepo.Get(ctx, repository.SettingFiatAPIKey)
	if err == nil {
		status.FiatAPIKeySet = true
	} else if !errors.Is(err, apperrors.ErrSettingNotFound) {
		return APIKeyStatus{}, err
	}

	return status, nil
}

// CryptoAPIKey returns the decrypted crypto history provider key.
func (s *SystemService) CryptoAPIKey(ctx context.Context) (string, error) {
	return s.loadKey(ctx, repository.SettingCryptoAPIKey)
}

// FiatAPIKey returns the decrypted recent-price provider key.
func (s *SystemService) FiatAPIKey(ctx context.Context) (string, error) {
	return s.loadKey(ctx, repository.SettingFiatAPIKey)
}

func (s *SystemService) loadKey(ctx context.Context, setting string) (string, error) {
	encrypted, err := s.settingRepo.Get(ctx, setting)
	if err != nil {
		return "", err
	}
	key, err := s.keeper.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", setting, err)
	}
	return key, nil
}
