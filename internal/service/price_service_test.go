package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/database"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/marketdata"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/secrets"
)

// White-box tests for the provider plumbing; the client factories are
// swapped for stubs.

type stubHistoryClient struct {
	observations []marketdata.Observation
	err          error
}

func (s stubHistoryClient) DailyHistory(context.Context, string, string) ([]marketdata.Observation, error) {
	return s.observations, s.err
}

type stubRecentClient struct {
	crypto []marketdata.Observation
	forex  []marketdata.Observation
}

func (s stubRecentClient) CryptoDailyHistory(context.Context, string, time.Time, time.Time) ([]marketdata.Observation, error) {
	return s.crypto, nil
}

func (s stubRecentClient) ForexDailyHistory(context.Context, string, time.Time, time.Time) ([]marketdata.Observation, error) {
	return s.forex, nil
}

func setupPriceService(t *testing.T) (*PriceService, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	encoded, err := secrets.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	keeper, err := secrets.NewKeeper(encoded)
	if err != nil {
		t.Fatalf("Failed to create keeper: %v", err)
	}

	system := NewSystemService(db, repository.NewSettingRepository(db), keeper)
	svc := NewPriceService(repository.NewPriceRepository(db), repository.NewAssetRepository(db), system)

	cryptoKey, fiatKey := "crypto-key", "fiat-key"
	err = system.SetAPIKeys(context.Background(), request.SetAPIKeysRequest{
		CryptoAPIKey: &cryptoKey,
		FiatAPIKey:   &fiatKey,
	})
	if err != nil {
		t.Fatalf("Failed to store test API keys: %v", err)
	}
	return svc, db
}

func seedAssets(t *testing.T, db *sql.DB) {
	t.Helper()
	assetRepo := repository.NewAssetRepository(db)
	ctx := context.Background()
	if err := assetRepo.CreateAsset(ctx, model.Asset{Symbol: "CAD", Name: "Canadian Dollar", Type: model.AssetTypeFiat}); err != nil {
		t.Fatalf("Failed to create fiat asset: %v", err)
	}
	if err := assetRepo.CreateAsset(ctx, model.Asset{Symbol: "BTC", Name: "Bitcoin", Type: model.AssetTypeBlockchain}); err != nil {
		t.Fatalf("Failed to create asset: %v", err)
	}
}

func obs(day string, close string) marketdata.Observation {
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return marketdata.Observation{Timestamp: ts.UTC(), Close: decimal.RequireFromString(close)}
}

func TestPriceService_BackfillHistory(t *testing.T) {
	svc, db := setupPriceService(t)
	seedAssets(t, db)
	ctx := context.Background()

	svc.newHistoryClient = func(apiKey string) HistoryClient {
		if apiKey != "crypto-key" {
			t.Errorf("history client got key %q, want the stored crypto key", apiKey)
		}
		return stubHistoryClient{observations: []marketdata.Observation{
			obs("2020-01-01", "9000"),
			obs("2020-01-02", "9100.5"),
		}}
	}

	if err := svc.BackfillHistory(ctx, "BTC"); err != nil {
		t.Fatalf("BackfillHistory() returned unexpected error: %v", err)
	}

	price, err := svc.LatestPrice(ctx, "BTC", time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LatestPrice() returned unexpected error: %v", err)
	}
	if !price.Price.Equal(decimal.RequireFromString("9100.5")) {
		t.Errorf("Expected 9100.5, got %s", price.Price)
	}

	asset, err := repository.NewAssetRepository(db).GetAsset(ctx, "BTC")
	if err != nil {
		t.Fatalf("GetAsset() returned unexpected error: %v", err)
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if asset.LaunchDate == nil || !asset.LaunchDate.Equal(want) {
		t.Errorf("Expected launch date %v, got %v", want, asset.LaunchDate)
	}
}

func TestPriceService_RefreshPrices(t *testing.T) {
	svc, db := setupPriceService(t)
	seedAssets(t, db)
	ctx := context.Background()

	// Existing history makes the refresh take the recent-window path.
	err := repository.NewPriceRepository(db).UpsertPrices(ctx, []model.Price{{
		Timestamp:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AssetSymbol: "BTC", FiatSymbol: "CAD",
		Price: decimal.RequireFromString("80000"),
	}})
	if err != nil {
		t.Fatalf("Failed to seed price: %v", err)
	}

	svc.newRecentClient = func(string) RecentClient {
		return stubRecentClient{
			crypto: []marketdata.Observation{
				obs("2024-03-02", "60000"), // Saturday: no forex close that day
				obs("2024-03-04", "61000"),
			},
			forex: []marketdata.Observation{
				obs("2024-03-01", "1.35"),
				obs("2024-03-04", "1.36"),
			},
		}
	}

	if err := svc.RefreshPrices(ctx); err != nil {
		t.Fatalf("RefreshPrices() returned unexpected error: %v", err)
	}

	// The weekend close converts with Friday's rate.
	price, err := svc.LatestPrice(ctx, "BTC", time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LatestPrice() returned unexpected error: %v", err)
	}
	if !price.Price.Equal(decimal.RequireFromString("81000")) { // 60000 * 1.35
		t.Errorf("Expected 81000, got %s", price.Price)
	}

	// The Monday close converts with Monday's rate.
	price, err = svc.LatestPrice(ctx, "BTC", time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LatestPrice() returned unexpected error: %v", err)
	}
	if !price.Price.Equal(decimal.RequireFromString("82960")) { // 61000 * 1.36
		t.Errorf("Expected 82960, got %s", price.Price)
	}
}

func TestConvertToFiat(t *testing.T) {
	crypto := []marketdata.Observation{
		obs("2024-02-28", "100"), // before any known rate: dropped
		obs("2024-03-01", "200"),
		obs("2024-03-02", "300"), // no same-day rate: previous day's used
	}
	forex := []marketdata.Observation{
		obs("2024-03-01", "1.5"),
	}

	prices := convertToFiat("BTC", "CAD", crypto, forex)
	if len(prices) != 2 {
		t.Fatalf("Expected 2 converted prices, got %d", len(prices))
	}
	if !prices[0].Price.Equal(decimal.RequireFromString("300")) { // 200 * 1.5
		t.Errorf("Expected 300, got %s", prices[0].Price)
	}
	if !prices[1].Price.Equal(decimal.RequireFromString("450")) { // 300 * 1.5
		t.Errorf("Expected 450, got %s", prices[1].Price)
	}

	if got := convertToFiat("BTC", "CAD", crypto, nil); got != nil {
		t.Errorf("Expected nil without forex rates, got %v", got)
	}
}
