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

const finageBaseURL = "https://api.finage.co.uk"

// FinageClient fetches daily aggregates from the Finage API. Crypto prices
// are quoted in USD, so callers combine them with the matching USD/fiat
// forex rates.
type FinageClient struct {
	httpClient *http.Client
	apiKey     string

	// BaseURL may be overridden in tests.
	BaseURL string
}

// NewFinageClient creates a client authenticated with the given API key.
func NewFinageClient(apiKey string) *FinageClient {
	return &FinageClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		BaseURL:    finageBaseURL,
	}
}

// CryptoDailyHistory fetches daily USD closing prices for a crypto asset
// within [from, to], oldest first.
func (c *FinageClient) CryptoDailyHistory(ctx context.Context, assetSymbol string, from, to time.Time) ([]Observation, error) {
	endpoint := fmt.Sprintf("%s/agg/crypto/%sUSD/1/day/%s/%s?apikey=%s",
		c.BaseURL, url.PathEscape(assetSymbol),
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"),
		url.QueryEscape(c.apiKey))
	return c.query(ctx, endpoint)
}

// ForexDailyHistory fetches daily USD-to-fiat closing rates within [from, to],
// oldest first.
func (c *FinageClient) ForexDailyHistory(ctx context.Context, fiatSymbol string, from, to time.Time) ([]Observation, error) {
	endpoint := fmt.Sprintf("%s/agg/forex/USD%s/1/day/%s/%s?apikey=%s",
		c.BaseURL, url.PathEscape(fiatSymbol),
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"),
		url.QueryEscape(c.apiKey))
	return c.query(ctx, endpoint)
}

func (c *FinageClient) query(ctx context.Context, endpoint string) ([]Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finage request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read finage response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("finage returned status %d", resp.StatusCode)
	}

	var response finageResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse finage response: %w", err)
	}

	observations := make([]Observation, 0, len(response.Results))
	for _, point := range response.Results {
		if point.Close.Sign() <= 0 {
			continue
		}
		observations = append(observations, Observation{
			Timestamp: time.UnixMilli(point.Timestamp).UTC(),
			Close:     point.Close,
		})
	}
	return observations, nil
}
