// Package marketdata fetches daily closing prices from external providers.
// CoinDesk serves full crypto price history directly in the reporting
// currency; Finage serves recent crypto prices in USD plus the USD/fiat
// rates needed to convert them.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const coinDeskBaseURL = "https://min-api.cryptocompare.com"

// CoinDeskClient fetches daily price history from the CoinDesk (CryptoCompare)
// API. Used for initial backfill because the histoday endpoint returns an
// asset's complete history in one call.
type CoinDeskClient struct {
	httpClient *http.Client
	apiKey     string

	// BaseURL may be overridden in tests.
	BaseURL string
}

// NewCoinDeskClient creates a client authenticated with the given API key.
func NewCoinDeskClient(apiKey string) *CoinDeskClient {
	return &CoinDeskClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		BaseURL:    coinDeskBaseURL,
	}
}

// DailyHistory fetches the complete daily closing history of an asset
// denominated in the given fiat currency, oldest first.
func (c *CoinDeskClient) DailyHistory(ctx context.Context, assetSymbol, fiatSymbol string) ([]Observation, error) {
	endpoint := fmt.Sprintf("%s/data/v2/histoday?fsym=%s&tsym=%s&allData=true",
		c.BaseURL, url.QueryEscape(assetSymbol), url.QueryEscape(fiatSymbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coindesk request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read coindesk response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coindesk returned status %d", resp.StatusCode)
	}

	var response coinDeskResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse coindesk response: %w", err)
	}
	if response.Response == "Error" {
		return nil, fmt.Errorf("coindesk error: %s", response.Message)
	}

	observations := make([]Observation, 0, len(response.Data.Data))
	for _, point := range response.Data.Data {
		// Leading zero-price days predate the asset's first listing.
		if point.Close.Sign() <= 0 {
			continue
		}
		observations = append(observations, Observation{
			Timestamp: time.Unix(point.Time, 0).UTC(),
			Close:     point.Close,
		})
	}
	return observations, nil
}
