package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/marketdata"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
)

// refreshLookback is how far RefreshPrices re-reads before the newest
// stored observation. Forex closes are absent on weekends and holidays, so
// a generous overlap keeps the series gap-free; the upsert makes re-reading
// idempotent.
const refreshLookback = 168 * time.Hour

// HistoryClient fetches an asset's complete daily price history in the
// reporting currency.
type HistoryClient interface {
	DailyHistory(ctx context.Context, assetSymbol, fiatSymbol string) ([]marketdata.Observation, error)
}

// RecentClient fetches recent daily USD crypto prices and the USD/fiat
// rates needed to convert them.
type RecentClient interface {
	CryptoDailyHistory(ctx context.Context, assetSymbol string, from, to time.Time) ([]marketdata.Observation, error)
	ForexDailyHistory(ctx context.Context, fiatSymbol string, from, to time.Time) ([]marketdata.Observation, error)
}

// PriceService handles price history retrieval, backfill, and refresh.
type PriceService struct {
	priceRepo *repository.PriceRepository
	assetRepo *repository.AssetRepository
	system    *SystemService

	// Client factories take the decrypted provider key at call time, since
	// keys can change between calls.
	newHistoryClient func(apiKey string) HistoryClient
	newRecentClient  func(apiKey string) RecentClient
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(
	priceRepo *repository.PriceRepository,
	assetRepo *repository.AssetRepository,
	system *SystemService,
) *PriceService {
	return &PriceService{
		priceRepo: priceRepo,
		assetRepo: assetRepo,
		system:    system,
		newHistoryClient: func(apiKey string) HistoryClient {
			return marketdata.NewCoinDeskClient(apiKey)
		},
		newRecentClient: func(apiKey string) RecentClient {
			return marketdata.NewFinageClient(apiKey)
		},
	}
}

// GetPrices retrieves an asset's stored observations in the reporting
// currency within [from, to].
func (s *PriceService) GetPrices(ctx context.Context, assetSymbol string, from, to time.Time) ([]model.Price, error) {
	fiat, err := s.assetRepo.ReportingCurrency(ctx)
	if err != nil {
		return nil, err
	}
	return s.priceRepo.GetPrices(ctx, assetSymbol, fiat, from, to)
}

// LatestPrice retrieves the newest stored observation at or before the
// given time, in the reporting currency.
func (s *PriceService) LatestPrice(ctx context.Context, assetSymbol string, atOrBefore time.Time) (model.Price, error) {
	fiat, err := s.assetRepo.ReportingCurrency(ctx)
	if err != nil {
		return model.Price{}, err
	}
	return s.priceRepo.LatestPrice(ctx, assetSymbol, fiat, atOrBefore)
}

// BackfillHistory fetches and stores an asset's complete daily history in
// the reporting currency, and records the earliest observation as the
// asset's launch date.
func (s *PriceService) BackfillHistory(ctx context.Context, assetSymbol string) error {
	fiat, err := s.assetRepo.ReportingCurrency(ctx)
	if err != nil {
		return err
	}

	apiKey, err := s.system.CryptoAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("history provider key unavailable: %w", err)
	}

	observations, err := s.newHistoryClient(apiKey).DailyHistory(ctx, assetSymbol, fiat)
	if err != nil {
		return fmt.Errorf("failed to backfill %s/%s: %w", assetSymbol, fiat, err)
	}
	if len(observations) == 0 {
		return nil
	}

	prices := make([]model.Price, len(observations))
	for i, obs := range observations {
		prices[i] = model.Price{
			Timestamp:   obs.Timestamp,
			AssetSymbol: assetSymbol,
			FiatSymbol:  fiat,
			Price:       obs.Close,
		}
	}
	if err := s.priceRepo.UpsertPrices(ctx, prices); err != nil {
		return err
	}
	return s.assetRepo.SetLaunchDate(ctx, assetSymbol, observations[0].Timestamp)
}

// RefreshPrices brings every blockchain asset's price history up to date.
// Assets with no stored history are backfilled in full; the rest get the
// recent window re-read with a lookback overlap. One asset's failure does
// not stop the others.
func (s *PriceService) RefreshPrices(ctx context.Context) error {
	fiat, err := s.assetRepo.ReportingCurrency(ctx)
	if err != nil {
		return err
	}
	assets, err := s.assetRepo.GetAssets(ctx)
	if err != nil {
		return err
	}

	var failures int
	for _, asset := range assets {
		if asset.Type != model.AssetTypeBlockchain {
			continue
		}
		if err := s.refreshAsset(ctx, asset.Symbol, fiat); err != nil {
			failures++
			log.Printf("Price refresh failed for %s: %v", asset.Symbol, err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("price refresh failed for %d asset(s)", failures)
	}
	return nil
}

func (s *PriceService) refreshAsset(ctx context.Context, assetSymbol, fiat string) error {
	last, err := s.priceRepo.LatestTimestamp(ctx, assetSymbol, fiat)
	if err != nil {
		return err
	}
	if last.IsZero() {
		return s.BackfillHistory(ctx, assetSymbol)
	}

	apiKey, err := s.system.FiatAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("recent provider key unavailable: %w", err)
	}
	client := s.newRecentClient(apiKey)

	from := last.Add(-refreshLookback)
	to := time.Now().UTC()

	cryptoObs, err := client.CryptoDailyHistory(ctx, assetSymbol, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch recent %s prices: %w", assetSymbol, err)
	}
	forexObs, err := client.ForexDailyHistory(ctx, fiat, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch USD/%s rates: %w", fiat, err)
	}

	prices := convertToFiat(assetSymbol, fiat, cryptoObs, forexObs)
	return s.priceRepo.UpsertPrices(ctx, prices)
}

// convertToFiat multiplies each USD crypto close by the USD/fiat rate of
// the same calendar day, falling back to the most recent earlier rate when
// the forex market was closed. Crypto days older than every known rate are
// dropped.
func convertToFiat(assetSymbol, fiat string, cryptoObs, forexObs []marketdata.Observation) []model.Price {
	if len(forexObs) == 0 {
		return nil
	}

	var prices []model.Price
	for _, obs := range cryptoObs {
		// forexObs is sorted ascending; take the last rate not after the
		// crypto observation.
		rateIdx := -1
		for i, rate := range forexObs {
			if rate.Timestamp.After(obs.Timestamp) {
				break
			}
			rateIdx = i
		}
		if rateIdx < 0 {
			continue
		}
		prices = append(prices, model.Price{
			Timestamp:   obs.Timestamp,
			AssetSymbol: assetSymbol,
			FiatSymbol:  fiat,
			Price:       obs.Close.Mul(forexObs[rateIdx].Close),
		})
	}
	return prices
}
