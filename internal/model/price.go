package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is a point-in-time observation of an asset's value in the fiat
// reporting currency. The price store answers "latest at or before" queries
// against these observations.
type Price struct {
	Timestamp   time.Time       `json:"timestamp"`
	AssetSymbol string          `json:"asset_symbol"`
	FiatSymbol  string          `json:"fiat_symbol"`
	Price       decimal.Decimal `json:"price"`
}
