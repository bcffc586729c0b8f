package marketdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single daily closing price from a market data provider.
// Prices are decoded from the provider's JSON numbers without passing
// through float64.
type Observation struct {
	Timestamp time.Time
	Close     decimal.Decimal
}

// coinDeskResponse represents the raw JSON response from the CryptoCompare
// daily history API.
type coinDeskResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []struct {
			Time  int64           `json:"time"`
			Close decimal.Decimal `json:"close"`
		} `json:"Data"`
	} `json:"Data"`
}

// finageResponse represents the raw JSON response from the Finage aggregates
// API, shared by the crypto and forex endpoints.
type finageResponse struct {
	Results []struct {
		Timestamp int64           `json:"t"`
		Close     decimal.Decimal `json:"c"`
	} `json:"results"`
	TotalResults int `json:"totalResults"`
}
