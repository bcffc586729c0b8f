package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
)

// MakeID generates a unique identifier for test entities.
func MakeID() string {
	return uuid.New().String()
}

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", s, err)
	}
	return d
}

// DecPtr parses a decimal literal into a pointer for optional quantity fields.
func DecPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := Dec(t, s)
	return &d
}

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	asset := testutil.NewAsset("BTC").Build(t, db)
//	fiat := testutil.NewAsset("CAD").Fiat().Build(t, db)
type AssetBuilder struct {
	Symbol string
	Name   string
	Type   model.AssetType
}

// NewAsset creates an AssetBuilder for a blockchain asset with defaults.
func NewAsset(symbol string) *AssetBuilder {
	return &AssetBuilder{
		Symbol: symbol,
		Name:   symbol + " test asset",
		Type:   model.AssetTypeBlockchain,
	}
}

// WithName sets a custom name.
func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.Name = name
	return b
}

// Fiat marks the asset as the fiat reporting currency.
func (b *AssetBuilder) Fiat() *AssetBuilder {
	b.Type = model.AssetTypeFiat
	return b
}

// Build inserts the asset and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()
	asset := model.Asset{Symbol: b.Symbol, Name: b.Name, Type: b.Type}
	if err := repository.NewAssetRepository(db).CreateAsset(context.Background(), asset); err != nil {
		t.Fatalf("Failed to create test asset %s: %v", b.Symbol, err)
	}
	return asset
}

// TransactionBuilder provides a fluent interface for creating test
// transactions.
//
// Example usage:
//
//	testutil.NewTransaction(model.TransactionTypeBuy, ts).
//	    Send("CAD", "100").
//	    Receive("BTC", "1").
//	    Build(t, db)
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder with a generated id.
func NewTransaction(txType model.TransactionType, ts time.Time) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		ID:        MakeID(),
		Timestamp: ts,
		Type:      txType,
		CreatedAt: ts,
	}}
}

// WithID sets a custom id.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.tx.ID = id
	return b
}

// Send sets the send leg.
func (b *TransactionBuilder) Send(symbol, qty string) *TransactionBuilder {
	d := decimal.RequireFromString(qty)
	b.tx.SendAssetSymbol = symbol
	b.tx.SendAssetQuantity = &d
	return b
}

// Receive sets the receive leg.
func (b *TransactionBuilder) Receive(symbol, qty string) *TransactionBuilder {
	d := decimal.RequireFromString(qty)
	b.tx.ReceiveAssetSymbol = symbol
	b.tx.ReceiveAssetQuantity = &d
	return b
}

// Fee sets the fee leg.
func (b *TransactionBuilder) Fee(symbol, qty string) *TransactionBuilder {
	d := decimal.RequireFromString(qty)
	b.tx.FeeAssetSymbol = symbol
	b.tx.FeeAssetQuantity = &d
	return b
}

// Income marks the transaction as income on receipt.
func (b *TransactionBuilder) Income() *TransactionBuilder {
	b.tx.IsIncome = true
	return b
}

// Build inserts the transaction and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()
	if err := repository.NewTransactionRepository(db).CreateTransaction(context.Background(), b.tx); err != nil {
		t.Fatalf("Failed to create test transaction %s: %v", b.tx.ID, err)
	}
	return b.tx
}

// InsertPrice stores a single daily price observation.
func InsertPrice(t *testing.T, db *sql.DB, assetSymbol, fiatSymbol string, ts time.Time, price string) {
	t.Helper()
	err := repository.NewPriceRepository(db).UpsertPrices(context.Background(), []model.Price{{
		Timestamp:   ts,
		AssetSymbol: assetSymbol,
		FiatSymbol:  fiatSymbol,
		Price:       decimal.RequireFromString(price),
	}})
	if err != nil {
		t.Fatalf("Failed to insert test price %s/%s: %v", assetSymbol, fiatSymbol, err)
	}
}
