package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/validation"
)

// AssetService handles tracked-asset business logic.
type AssetService struct {
	assetRepo    *repository.AssetRepository
	priceService *PriceService
}

// NewAssetService creates a new AssetService with the provided dependencies.
func NewAssetService(assetRepo *repository.AssetRepository, priceService *PriceService) *AssetService {
	return &AssetService{
		assetRepo:    assetRepo,
		priceService: priceService,
	}
}

// GetAssets retrieves all tracked assets.
func (s *AssetService) GetAssets(ctx context.Context) ([]model.Asset, error) {
	return s.assetRepo.GetAssets(ctx)
}

// GetAsset retrieves a single asset by symbol.
func (s *AssetService) GetAsset(ctx context.Context, symbol string) (model.Asset, error) {
	return s.assetRepo.GetAsset(ctx, symbol)
}

// CreateAsset validates and stores a new tracked asset. For blockchain
// assets a full price history backfill is attempted; a backfill failure
// (typically a missing provider key) is logged but does not fail the
// creation, since RefreshPrices will retry later.
func (s *AssetService) CreateAsset(ctx context.Context, req request.CreateAssetRequest) (*model.Asset, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := validation.ValidateCreateAsset(req); err != nil {
		return nil, err
	}

	asset := model.Asset{
		Symbol:  req.Symbol,
		Name:    strings.TrimSpace(req.Name),
		Type:    model.AssetType(req.Type),
		LogoURL: req.LogoURL,
	}
	if err := s.assetRepo.CreateAsset(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	if asset.Type == model.AssetTypeBlockchain {
		if err := s.priceService.BackfillHistory(ctx, asset.Symbol); err != nil {
			log.Printf("Price backfill deferred for %s: %v", asset.Symbol, err)
		}
	}
	return &asset, nil
}

// DeleteAsset removes an asset and its price history.
func (s *AssetService) DeleteAsset(ctx context.Context, symbol string) error {
	return s.assetRepo.DeleteAsset(ctx, symbol)
}

// ReportingCurrency returns the configured fiat symbol.
func (s *AssetService) ReportingCurrency(ctx context.Context) (string, error) {
	return s.assetRepo.ReportingCurrency(ctx)
}
