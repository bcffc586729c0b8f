package testutil

import (
	"database/sql"
	"testing"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/secrets"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// NewTestSystemService creates a SystemService with a freshly generated
// encryption key.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	key, err := secrets.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate test secret key: %v", err)
	}
	keeper, err := secrets.NewKeeper(key)
	if err != nil {
		t.Fatalf("Failed to create test keeper: %v", err)
	}
	return service.NewSystemService(db, repository.NewSettingRepository(db), keeper)
}

// NewTestPriceService creates a PriceService over the test database.
func NewTestPriceService(t *testing.T, db *sql.DB) *service.PriceService {
	t.Helper()
	return service.NewPriceService(
		repository.NewPriceRepository(db),
		repository.NewAssetRepository(db),
		NewTestSystemService(t, db),
	)
}

// NewTestTransactionService creates a TransactionService over the test database.
func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()
	return service.NewTransactionService(repository.NewTransactionRepository(db))
}

// NewTestACBService creates an ACBService over the test database.
func NewTestACBService(t *testing.T, db *sql.DB) *service.ACBService {
	t.Helper()
	return service.NewACBService(
		repository.NewTransactionRepository(db),
		repository.NewPriceRepository(db),
		repository.NewAssetRepository(db),
	)
}

// NewTestAssetService creates an AssetService over the test database.
func NewTestAssetService(t *testing.T, db *sql.DB) *service.AssetService {
	t.Helper()
	return service.NewAssetService(repository.NewAssetRepository(db), NewTestPriceService(t, db))
}
