package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/acb"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
)

// maxConcurrentCalculations bounds the portfolio fan-out so a large asset
// list does not exhaust SQLite connections.
const maxConcurrentCalculations = 4

// ACBService runs adjusted cost base calculations over the stored ledger.
type ACBService struct {
	calculator *acb.Calculator
	assetRepo  *repository.AssetRepository
}

// NewACBService creates a new ACBService wired to the ledger repositories.
func NewACBService(
	transactionRepo *repository.TransactionRepository,
	priceRepo *repository.PriceRepository,
	assetRepo *repository.AssetRepository,
) *ACBService {
	return &ACBService{
		calculator: acb.NewCalculator(feedAdapter{transactionRepo}, priceRepo, assetRepo),
		assetRepo:  assetRepo,
	}
}

// feedAdapter exposes the transaction repository under the calculator's
// feed interface.
type feedAdapter struct {
	repo *repository.TransactionRepository
}

func (f feedAdapter) TransactionsForAsset(ctx context.Context, symbol string) ([]model.Transaction, error) {
	return f.repo.GetTransactionsForAsset(ctx, symbol)
}

// Calculate computes the ACB report for a single asset.
func (s *ACBService) Calculate(ctx context.Context, symbol string) (model.Report, error) {
	return s.calculator.Calculate(ctx, symbol)
}

// PortfolioReport holds per-asset ACB reports alongside per-asset failures.
// A failing asset never suppresses its siblings' reports.
type PortfolioReport struct {
	Reports map[string]model.Report `json:"reports"`
	Errors  map[string]string       `json:"errors,omitempty"`
}

// CalculatePortfolio computes reports for every blockchain asset
// concurrently. Asset failures are collected into the result rather than
// aborting the run; only listing the assets can fail outright.
func (s *ACBService) CalculatePortfolio(ctx context.Context) (*PortfolioReport, error) {
	assets, err := s.assetRepo.GetAssets(ctx)
	if err != nil {
		return nil, err
	}

	result := &PortfolioReport{
		Reports: make(map[string]model.Report),
		Errors:  make(map[string]string),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCalculations)

	for _, asset := range assets {
		if asset.Type != model.AssetTypeBlockchain {
			continue
		}
		symbol := asset.Symbol
		g.Go(func() error {
			report, err := s.calculator.Calculate(gctx, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[symbol] = err.Error()
			} else {
				result.Reports[symbol] = report
			}
			return nil
		})
	}

	// Workers report failures through the result map, so Wait only fails on
	// context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result, nil
}
