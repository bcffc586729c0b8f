// Package acb computes Adjusted Cost Base reports for tracked assets using
// average-cost accounting with the CRA superficial-loss rule. A calculation
// is a single forward walk over an asset's chronological transaction feed:
// every acquisition folds cost into one running basis, every disposition
// removes a proportional share of it, and per-calendar-year buckets record
// the deltas alongside independently accumulated lifetime totals.
package acb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

// TransactionFeed supplies every transaction referencing an asset (on its
// send, receive, or fee leg), ordered ascending by timestamp.
type TransactionFeed interface {
	TransactionsForAsset(ctx context.Context, symbol string) ([]model.Transaction, error)
}

// PriceResolver answers "latest price at or before" queries against the
// price store. It must never return a future-dated price, and must return an
// error wrapping apperrors.ErrPriceNotFound when no observation exists.
type PriceResolver interface {
	LatestPrice(ctx context.Context, assetSymbol, fiatSymbol string, atOrBefore time.Time) (model.Price, error)
}

// ReportingCurrencySource yields the configured fiat reporting currency, or
// an error wrapping apperrors.ErrNoReportingCurrency.
type ReportingCurrencySource interface {
	ReportingCurrency(ctx context.Context) (string, error)
}

// Calculator wires the engine to its read-only collaborators. Calculations
// share no mutable state, so a single Calculator is safe for concurrent use
// across assets.
type Calculator struct {
	feed      TransactionFeed
	prices    PriceResolver
	reporting ReportingCurrencySource
}

// NewCalculator creates a Calculator with the provided collaborators.
func NewCalculator(feed TransactionFeed, prices PriceResolver, reporting ReportingCurrencySource) *Calculator {
	return &Calculator{
		feed:      feed,
		prices:    prices,
		reporting: reporting,
	}
}

// Calculate computes the full ACB report for one asset: a bucket of deltas
// per calendar year (UTC) touched by the asset's transactions, plus a TOTALS
// entry holding the lifetime accumulators. All failures abort the
// calculation and are returned as a *CalculationError naming the asset and,
// where applicable, the offending transaction.
func (c *Calculator) Calculate(ctx context.Context, symbol string) (model.Report, error) {
	if symbol == "" {
		return nil, &CalculationError{Asset: symbol, Err: apperrors.ErrInvalidSymbol}
	}

	fiat, err := c.reporting.ReportingCurrency(ctx)
	if err != nil {
		return nil, &CalculationError{Asset: symbol, Err: err}
	}
	if symbol == fiat {
		return nil, &CalculationError{Asset: symbol, Err: apperrors.ErrReportingCurrencyAsset}
	}

	txs, err := c.feed.TransactionsForAsset(ctx, symbol)
	if err != nil {
		return nil, &CalculationError{Asset: symbol, Err: err}
	}

	w := newWalk(symbol, fiat)
	for i := range txs {
		if err := w.step(ctx, c.prices, txs, i); err != nil {
			return nil, err
		}
	}
	return w.report(), nil
}

// walk is the running state of one calculation: the mutable basis and unit
// balance, the five lifetime totals, and the per-year delta buckets. It is
// constructed fresh per Calculate call and discarded with the report.
type walk struct {
	asset string
	fiat  string

	basis decimal.Decimal
	units decimal.Decimal

	proceeds    decimal.Decimal
	costs       decimal.Decimal
	outlays     decimal.Decimal
	gainLoss    decimal.Decimal
	superficial decimal.Decimal
	income      decimal.Decimal

	years map[string]*model.YearBucket
}

func newWalk(asset, fiat string) *walk {
	return &walk{
		asset: asset,
		fiat:  fiat,
		years: make(map[string]*model.YearBucket),
	}
}

// bucket returns the delta bucket for the transaction's UTC calendar year,
// creating it zeroed on first touch.
func (w *walk) bucket(ts time.Time) *model.YearBucket {
	year := strconv.Itoa(ts.UTC().Year())
	b, ok := w.years[year]
	if !ok {
		b = &model.YearBucket{}
		w.years[year] = b
	}
	return b
}

func (w *walk) step(ctx context.Context, resolver PriceResolver, txs []model.Transaction, i int) error {
	tx := txs[i]
	b := w.bucket(tx.Timestamp)
	prices := newTxPriceCache(resolver, w.fiat, tx.Timestamp)

	if tx.SendAssetSymbol == w.asset {
		switch tx.Type {
		case model.TransactionTypeSell, model.TransactionTypeSend, model.TransactionTypeTrade:
			if err := w.disposition(ctx, prices, txs, i, b); err != nil {
				return err
			}
		}
	}

	if tx.ReceiveAssetSymbol == w.asset {
		switch tx.Type {
		case model.TransactionTypeBuy, model.TransactionTypeReceive, model.TransactionTypeTrade:
			if err := w.acquisition(ctx, prices, tx, b); err != nil {
				return err
			}
		}
	}

	if tx.FeeAssetSymbol == w.asset && tx.FeeAssetQuantity != nil &&
		tx.SendAssetSymbol != w.asset && tx.ReceiveAssetSymbol != w.asset {
		if err := w.feeDisposition(ctx, prices, txs, i, b); err != nil {
			return err
		}
	}

	return w.checkInvariants(tx)
}

// disposition applies the send leg of a Sell, Send, or Trade: realize
// proceeds and a proportional share of the basis, apply the outlay, and run
// the superficial-loss rule on any resulting loss.
func (w *walk) disposition(ctx context.Context, prices *txPriceCache, txs []model.Transaction, i int, b *model.YearBucket) error {
	tx := txs[i]
	if tx.SendAssetQuantity == nil || tx.SendAssetQuantity.Sign() <= 0 {
		return w.malformed(tx, "send quantity is required")
	}
	if tx.Type == model.TransactionTypeSell && tx.ReceiveAssetSymbol != w.fiat {
		return w.malformed(tx, "sell must receive the reporting currency")
	}
	if tx.Type != model.TransactionTypeSend &&
		(tx.ReceiveAssetSymbol == "" || tx.ReceiveAssetQuantity == nil) {
		return w.malformed(tx, "receive asset and quantity are required")
	}
	if w.units.Sign() <= 0 {
		return w.fail(tx, apperrors.ErrDepletedHoldings)
	}
	sendQty := *tx.SendAssetQuantity

	var proceeds decimal.Decimal
	switch tx.Type {
	case model.TransactionTypeSell:
		// Already denominated in the reporting currency.
		proceeds = *tx.ReceiveAssetQuantity
	case model.TransactionTypeSend:
		// FMV of what was given up; nothing is received.
		price, err := prices.get(ctx, tx.SendAssetSymbol)
		if err != nil {
			return w.fail(tx, err)
		}
		proceeds = sendQty.Mul(price)
	case model.TransactionTypeTrade:
		// FMV of what was acquired in exchange.
		price, err := prices.get(ctx, tx.ReceiveAssetSymbol)
		if err != nil {
			return w.fail(tx, err)
		}
		proceeds = tx.ReceiveAssetQuantity.Mul(price)
	}

	// A Trade's fee is folded into the acquired asset's basis instead of
	// being realized as an outlay here.
	fee := decimal.Zero
	if tx.Type != model.TransactionTypeTrade && tx.FeeAssetQuantity != nil {
		v, err := w.fiatValue(ctx, prices, tx.FeeAssetSymbol, *tx.FeeAssetQuantity)
		if err != nil {
			return w.fail(tx, err)
		}
		fee = v
	}

	cost := w.basis.Mul(sendQty).Div(w.units)
	w.basis = w.basis.Sub(cost)
	w.units = w.units.Sub(sendQty)
	w.proceeds = w.proceeds.Add(proceeds)
	w.costs = w.costs.Add(cost)
	w.outlays = w.outlays.Add(fee)
	b.Basis = b.Basis.Sub(cost)
	b.Units = b.Units.Sub(sendQty)
	b.Proceeds = b.Proceeds.Add(proceeds)
	b.Costs = b.Costs.Add(cost)
	b.Outlays = b.Outlays.Add(fee)

	w.realize(proceeds.Sub(cost).Sub(fee), txs, i, b)
	return nil
}

// acquisition applies the receive leg of a Buy, Receive, or Trade: fold the
// cost plus any fee into the running basis and increase the unit balance.
func (w *walk) acquisition(ctx context.Context, prices *txPriceCache, tx model.Transaction, b *model.YearBucket) error {
	if tx.ReceiveAssetQuantity == nil || tx.ReceiveAssetQuantity.Sign() <= 0 {
		return w.malformed(tx, "receive quantity is required")
	}
	if tx.Type == model.TransactionTypeBuy && tx.SendAssetSymbol != w.fiat {
		return w.malformed(tx, "buy must send the reporting currency")
	}
	if tx.Type != model.TransactionTypeReceive &&
		(tx.SendAssetSymbol == "" || tx.SendAssetQuantity == nil) {
		return w.malformed(tx, "send asset and quantity are required")
	}
	recvQty := *tx.ReceiveAssetQuantity

	var cost decimal.Decimal
	switch {
	case tx.Type == model.TransactionTypeBuy:
		// Already denominated in the reporting currency.
		cost = *tx.SendAssetQuantity
	case tx.Type == model.TransactionTypeReceive && tx.IsIncome:
		// FMV on receipt is both the cost basis and recognized income.
		price, err := prices.get(ctx, tx.ReceiveAssetSymbol)
		if err != nil {
			return w.fail(tx, err)
		}
		cost = recvQty.Mul(price)
		w.income = w.income.Add(cost)
		b.Income = b.Income.Add(cost)
	case tx.Type == model.TransactionTypeTrade:
		// FMV of what was given up.
		price, err := prices.get(ctx, tx.SendAssetSymbol)
		if err != nil {
			return w.fail(tx, err)
		}
		cost = tx.SendAssetQuantity.Mul(price)
	}
	// A non-income Receive (gift, airdrop) carries no recognized cost basis.

	fee := decimal.Zero
	if tx.FeeAssetQuantity != nil {
		v, err := w.fiatValue(ctx, prices, tx.FeeAssetSymbol, *tx.FeeAssetQuantity)
		if err != nil {
			return w.fail(tx, err)
		}
		fee = v
	}

	w.basis = w.basis.Add(cost).Add(fee)
	w.units = w.units.Add(recvQty)
	b.Basis = b.Basis.Add(cost).Add(fee)
	b.Units = b.Units.Add(recvQty)
	return nil
}

// feeDisposition handles a fee paid in the tracked asset when that asset is
// on neither the send nor the receive leg: a miniature disposition of the
// fee quantity at FMV. The fee itself is the disposed value, so no separate
// outlay is recorded.
func (w *walk) feeDisposition(ctx context.Context, prices *txPriceCache, txs []model.Transaction, i int, b *model.YearBucket) error {
	tx := txs[i]
	feeQty := *tx.FeeAssetQuantity
	if feeQty.Sign() <= 0 {
		return w.malformed(tx, "fee quantity is required")
	}
	if w.units.Sign() <= 0 {
		return w.fail(tx, apperrors.ErrDepletedHoldings)
	}

	price, err := prices.get(ctx, tx.FeeAssetSymbol)
	if err != nil {
		return w.fail(tx, err)
	}
	proceeds := feeQty.Mul(price)

	cost := w.basis.Mul(feeQty).Div(w.units)
	w.basis = w.basis.Sub(cost)
	w.units = w.units.Sub(feeQty)
	w.proceeds = w.proceeds.Add(proceeds)
	w.costs = w.costs.Add(cost)
	b.Basis = b.Basis.Sub(cost)
	b.Units = b.Units.Sub(feeQty)
	b.Proceeds = b.Proceeds.Add(proceeds)
	b.Costs = b.Costs.Add(cost)

	w.realize(proceeds.Sub(cost), txs, i, b)
	return nil
}

// realize books a gain or loss. A loss disallowed by the superficial-loss
// rule is added back onto the basis and removed from realized costs instead
// of reducing the gain/loss totals.
func (w *walk) realize(gainLoss decimal.Decimal, txs []model.Transaction, i int, b *model.YearBucket) {
	if gainLoss.Sign() < 0 && isSuperficialLoss(txs, i, w.asset) {
		loss := gainLoss.Abs()
		w.superficial = w.superficial.Add(loss)
		w.basis = w.basis.Add(loss)
		w.costs = w.costs.Sub(loss)
		b.SuperficialLosses = b.SuperficialLosses.Add(loss)
		b.Basis = b.Basis.Add(loss)
		b.Costs = b.Costs.Sub(loss)
		return
	}
	w.gainLoss = w.gainLoss.Add(gainLoss)
	b.GainLoss = b.GainLoss.Add(gainLoss)
}

// checkInvariants asserts the non-negativity of every accumulator that must
// never go below zero. A violation is upstream-data corruption or an
// algorithm defect and aborts the calculation rather than being clamped.
func (w *walk) checkInvariants(tx model.Transaction) error {
	for _, c := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"basis", w.basis},
		{"units", w.units},
		{"costs", w.costs},
		{"outlays", w.outlays},
		{"income", w.income},
	} {
		if c.value.Sign() < 0 {
			return w.fail(tx, fmt.Errorf("%w: %s went negative (%s)",
				apperrors.ErrInconsistentState, c.name, c.value))
		}
	}
	return nil
}

func (w *walk) report() model.Report {
	report := make(model.Report, len(w.years)+1)
	for year, b := range w.years {
		report[year] = *b
	}
	report[model.ReportTotalsKey] = model.YearBucket{
		Basis:             w.basis,
		Units:             w.units,
		Proceeds:          w.proceeds,
		Costs:             w.costs,
		Outlays:           w.outlays,
		GainLoss:          w.gainLoss,
		SuperficialLosses: w.superficial,
		Income:            w.income,
	}
	return report
}

// fiatValue converts a quantity of some asset into the reporting currency,
// passing reporting-currency quantities through unchanged.
func (w *walk) fiatValue(ctx context.Context, prices *txPriceCache, symbol string, qty decimal.Decimal) (decimal.Decimal, error) {
	if symbol == w.fiat {
		return qty, nil
	}
	price, err := prices.get(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return qty.Mul(price), nil
}

func (w *walk) malformed(tx model.Transaction, msg string) error {
	return w.fail(tx, fmt.Errorf("%w: %s", apperrors.ErrMalformedTransaction, msg))
}

func (w *walk) fail(tx model.Transaction, err error) error {
	return &CalculationError{
		Asset:  w.asset,
		TxID:   tx.ID,
		TxType: string(tx.Type),
		Err:    err,
	}
}

// txPriceCache memoizes price resolutions within a single transaction's
// processing. Lookups are lazy: a missing price is only an error when a rule
// body actually asks for that symbol.
type txPriceCache struct {
	resolver PriceResolver
	fiat     string
	at       time.Time
	cache    map[string]decimal.Decimal
}

func newTxPriceCache(resolver PriceResolver, fiat string, at time.Time) *txPriceCache {
	return &txPriceCache{
		resolver: resolver,
		fiat:     fiat,
		at:       at,
		cache:    make(map[string]decimal.Decimal, 3),
	}
}

func (p *txPriceCache) get(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if cached, ok := p.cache[symbol]; ok {
		return cached, nil
	}
	price, err := p.resolver.LatestPrice(ctx, symbol, p.fiat, p.at)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("resolving %s/%s at %s: %w",
			symbol, p.fiat, p.at.UTC().Format(time.RFC3339), err)
	}
	p.cache[symbol] = price.Price
	return price.Price, nil
}
