package acb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/apperrors"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

type staticFeed struct {
	txs []model.Transaction
}

func (f staticFeed) TransactionsForAsset(_ context.Context, symbol string) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, tx := range f.txs {
		if tx.References(symbol) {
			out = append(out, tx)
		}
	}
	return out, nil
}

type staticPrices struct {
	prices map[string]decimal.Decimal
	err    error
}

func (p staticPrices) LatestPrice(_ context.Context, assetSymbol, _ string, _ time.Time) (model.Price, error) {
	if p.err != nil {
		return model.Price{}, p.err
	}
	price, ok := p.prices[assetSymbol]
	if !ok {
		return model.Price{}, fmt.Errorf("%s: %w", assetSymbol, apperrors.ErrPriceNotFound)
	}
	return model.Price{AssetSymbol: assetSymbol, Price: price}, nil
}

type fiatSource string

func (s fiatSource) ReportingCurrency(context.Context) (string, error) {
	if s == "" {
		return "", apperrors.ErrNoReportingCurrency
	}
	return string(s), nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// day returns a UTC timestamp n days after an arbitrary fixed origin.
func day(n int) time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func buy(id string, ts time.Time, fiatQty, symbol, qty string) model.Transaction {
	return model.Transaction{
		ID: id, Timestamp: ts, Type: model.TransactionTypeBuy,
		SendAssetSymbol: "CAD", SendAssetQuantity: decp(fiatQty),
		ReceiveAssetSymbol: symbol, ReceiveAssetQuantity: decp(qty),
	}
}

func sell(id string, ts time.Time, symbol, qty, fiatQty string) model.Transaction {
	return model.Transaction{
		ID: id, Timestamp: ts, Type: model.TransactionTypeSell,
		SendAssetSymbol: symbol, SendAssetQuantity: decp(qty),
		ReceiveAssetSymbol: "CAD", ReceiveAssetQuantity: decp(fiatQty),
	}
}

func calculate(t *testing.T, txs []model.Transaction, prices map[string]decimal.Decimal, symbol string) model.Report {
	t.Helper()
	calc := NewCalculator(staticFeed{txs: txs}, staticPrices{prices: prices}, fiatSource("CAD"))
	report, err := calc.Calculate(context.Background(), symbol)
	if err != nil {
		t.Fatalf("Calculate(%s) returned error: %v", symbol, err)
	}
	return report
}

func wantDec(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestCalculateAverageCost(t *testing.T) {
	txs := []model.Transaction{
		buy("t1", day(0), "200", "BTC", "2"),
		sell("t2", day(40), "BTC", "1", "150"),
	}
	report := calculate(t, txs, nil, "BTC")

	totals := report[model.ReportTotalsKey]
	wantDec(t, "basis", totals.Basis, dec("100"))
	wantDec(t, "units", totals.Units, dec("1"))
	wantDec(t, "proceeds", totals.Proceeds, dec("150"))
	wantDec(t, "costs", totals.Costs, dec("100"))
	wantDec(t, "gain/loss", totals.GainLoss, dec("50"))
	wantDec(t, "superficial losses", totals.SuperficialLosses, decimal.Zero)
}

func TestCalculateSuperficialLossBackwardWindow(t *testing.T) {
	// The acquisition 10 days before the losing sale disallows the loss.
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		sell("t2", day(10), "BTC", "1", "40"),
	}
	report := calculate(t, txs, nil, "BTC")

	totals := report[model.ReportTotalsKey]
	wantDec(t, "superficial losses", totals.SuperficialLosses, dec("60"))
	wantDec(t, "gain/loss", totals.GainLoss, decimal.Zero)
	wantDec(t, "basis", totals.Basis, dec("60"))
	wantDec(t, "costs", totals.Costs, dec("40"))
	wantDec(t, "units", totals.Units, decimal.Zero)
}

func TestCalculateSuperficialLossForwardWindow(t *testing.T) {
	// The original purchase is outside the window; only the reacquisition
	// 20 days after the sale makes the loss superficial. The disallowed
	// loss stays on the basis through the rebuy.
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		sell("t2", day(40), "BTC", "1", "40"),
		buy("t3", day(60), "90", "BTC", "1"),
	}
	report := calculate(t, txs, nil, "BTC")

	totals := report[model.ReportTotalsKey]
	wantDec(t, "superficial losses", totals.SuperficialLosses, dec("60"))
	wantDec(t, "gain/loss", totals.GainLoss, decimal.Zero)
	wantDec(t, "basis", totals.Basis, dec("150"))
	wantDec(t, "units", totals.Units, dec("1"))
}

func TestCalculateLossOutsideWindowIsRealized(t *testing.T) {
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		sell("t2", day(40), "BTC", "1", "40"),
		buy("t3", day(80), "90", "BTC", "1"),
	}
	report := calculate(t, txs, nil, "BTC")

	totals := report[model.ReportTotalsKey]
	wantDec(t, "superficial losses", totals.SuperficialLosses, decimal.Zero)
	wantDec(t, "gain/loss", totals.GainLoss, dec("-60"))
	wantDec(t, "basis", totals.Basis, dec("90"))
}

func TestCalculateIncomeReceive(t *testing.T) {
	txs := []model.Transaction{
		{
			ID: "t1", Timestamp: day(0), Type: model.TransactionTypeReceive,
			ReceiveAssetSymbol: "BTC", ReceiveAssetQuantity: decp("1"),
			IsIncome: true,
		},
	}
	prices := map[string]decimal.Decimal{"BTC": dec("500")}
	report := calculate(t, txs, prices, "BTC")

	totals := report[model.ReportTotalsKey]
	wantDec(t, "income", totals.Income, dec("500"))
	wantDec(t, "basis", totals.Basis, dec("500"))
	wantDec(t, "units", totals.Units, dec("1"))
}

func TestCalculateNonIncomeReceiveHasZeroCost(t *testing.T) {
	txs := []model.Transaction{
		{
			ID: "t1", Timestamp: day(0), Type: model.TransactionTypeReceive,
			ReceiveAssetSymbol: "BTC", ReceiveAssetQuantity: decp("1"),
		},
	}
	report := calculate(t, txs, nil, "BTC")

	totals := report[model.ReportTotalsKey]
	wantDec(t, "income", totals.Income, decimal.Zero)
	wantDec(t, "basis", totals.Basis, decimal.Zero)
	wantDec(t, "units", totals.Units, dec("1"))
}

func TestCalculateDepletedHoldings(t *testing.T) {
	txs := []model.Transaction{
		sell("t1", day(0), "BTC", "1", "150"),
	}
	calc := NewCalculator(staticFeed{txs: txs}, staticPrices{}, fiatSource("CAD"))

	_, err := calc.Calculate(context.Background(), "BTC")
	if !errors.Is(err, apperrors.ErrDepletedHoldings) {
		t.Fatalf("Calculate error = %v, want ErrDepletedHoldings", err)
	}
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("Calculate error = %T, want *CalculationError", err)
	}
	if calcErr.TxID != "t1" || calcErr.Asset != "BTC" {
		t.Errorf("CalculationError identifies tx %q asset %q, want t1/BTC", calcErr.TxID, calcErr.Asset)
	}
}

func TestCalculateInconsistentState(t *testing.T) {
	// A disallowed superficial loss larger than the realized costs to date
	// drives the lifetime costs accumulator negative. That must abort the
	// calculation naming the transaction, never be clamped to zero.
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		{
			ID: "t2", Timestamp: day(10), Type: model.TransactionTypeSell,
			SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
			ReceiveAssetSymbol: "CAD", ReceiveAssetQuantity: decp("1"),
			FeeAssetSymbol: "CAD", FeeAssetQuantity: decp("200"),
		},
	}
	calc := NewCalculator(staticFeed{txs: txs}, staticPrices{}, fiatSource("CAD"))

	_, err := calc.Calculate(context.Background(), "BTC")
	if !errors.Is(err, apperrors.ErrInconsistentState) {
		t.Fatalf("Calculate error = %v, want ErrInconsistentState", err)
	}
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("Calculate error = %T, want *CalculationError", err)
	}
	if calcErr.TxID != "t2" || calcErr.Asset != "BTC" {
		t.Errorf("CalculationError identifies tx %q asset %q, want t2/BTC", calcErr.TxID, calcErr.Asset)
	}
}

func TestCalculateTradeFeePlacement(t *testing.T) {
	// Trading BTC for ETH with a CAD fee: the fee belongs to the acquired
	// asset's basis, never to the disposed asset's outlays.
	txs := []model.Transaction{
		buy("t1", day(0), "1000", "BTC", "1"),
		{
			ID: "t2", Timestamp: day(40), Type: model.TransactionTypeTrade,
			SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
			ReceiveAssetSymbol: "ETH", ReceiveAssetQuantity: decp("10"),
			FeeAssetSymbol: "CAD", FeeAssetQuantity: decp("5"),
		},
	}
	prices := map[string]decimal.Decimal{"BTC": dec("1200"), "ETH": dec("120")}

	btc := calculate(t, txs, prices, "BTC")[model.ReportTotalsKey]
	wantDec(t, "btc proceeds", btc.Proceeds, dec("1200"))
	wantDec(t, "btc outlays", btc.Outlays, decimal.Zero)
	wantDec(t, "btc gain/loss", btc.GainLoss, dec("200"))

	eth := calculate(t, txs, prices, "ETH")[model.ReportTotalsKey]
	wantDec(t, "eth basis", eth.Basis, dec("1205"))
	wantDec(t, "eth units", eth.Units, dec("10"))
}

func TestCalculateSellFeeIsOutlay(t *testing.T) {
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		{
			ID: "t2", Timestamp: day(40), Type: model.TransactionTypeSell,
			SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
			ReceiveAssetSymbol: "CAD", ReceiveAssetQuantity: decp("150"),
			FeeAssetSymbol: "CAD", FeeAssetQuantity: decp("10"),
		},
	}
	totals := calculate(t, txs, nil, "BTC")[model.ReportTotalsKey]
	wantDec(t, "outlays", totals.Outlays, dec("10"))
	wantDec(t, "gain/loss", totals.GainLoss, dec("40"))
}

func TestCalculateSendProceedsAtMarketValue(t *testing.T) {
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "2"),
		{
			ID: "t2", Timestamp: day(40), Type: model.TransactionTypeSend,
			SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
		},
	}
	prices := map[string]decimal.Decimal{"BTC": dec("80")}
	totals := calculate(t, txs, prices, "BTC")[model.ReportTotalsKey]
	wantDec(t, "proceeds", totals.Proceeds, dec("80"))
	wantDec(t, "costs", totals.Costs, dec("50"))
	wantDec(t, "gain/loss", totals.GainLoss, dec("30"))
	wantDec(t, "units", totals.Units, dec("1"))
}

func TestCalculateFeeOnlyDisposition(t *testing.T) {
	// A BTC fee on an ETH-for-LTC trade disposes of the fee quantity at
	// market value without recording an outlay.
	txs := []model.Transaction{
		buy("t1", day(0), "1000", "BTC", "1"),
		{
			ID: "t2", Timestamp: day(40), Type: model.TransactionTypeTrade,
			SendAssetSymbol: "ETH", SendAssetQuantity: decp("10"),
			ReceiveAssetSymbol: "LTC", ReceiveAssetQuantity: decp("20"),
			FeeAssetSymbol: "BTC", FeeAssetQuantity: decp("0.1"),
		},
	}
	prices := map[string]decimal.Decimal{"BTC": dec("2000")}
	totals := calculate(t, txs, prices, "BTC")[model.ReportTotalsKey]
	wantDec(t, "proceeds", totals.Proceeds, dec("200"))
	wantDec(t, "costs", totals.Costs, dec("100"))
	wantDec(t, "gain/loss", totals.GainLoss, dec("100"))
	wantDec(t, "outlays", totals.Outlays, decimal.Zero)
	wantDec(t, "units", totals.Units, dec("0.9"))
	wantDec(t, "basis", totals.Basis, dec("900"))
}

func TestCalculateFeeOnlyDepletedHoldings(t *testing.T) {
	txs := []model.Transaction{
		{
			ID: "t1", Timestamp: day(0), Type: model.TransactionTypeTrade,
			SendAssetSymbol: "ETH", SendAssetQuantity: decp("10"),
			ReceiveAssetSymbol: "LTC", ReceiveAssetQuantity: decp("20"),
			FeeAssetSymbol: "BTC", FeeAssetQuantity: decp("0.1"),
		},
	}
	calc := NewCalculator(staticFeed{txs: txs}, staticPrices{}, fiatSource("CAD"))
	_, err := calc.Calculate(context.Background(), "BTC")
	if !errors.Is(err, apperrors.ErrDepletedHoldings) {
		t.Fatalf("Calculate error = %v, want ErrDepletedHoldings", err)
	}
}

func TestCalculateYearBucketsSumToTotals(t *testing.T) {
	txs := []model.Transaction{
		buy("t1", time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), "100", "BTC", "2"),
		sell("t2", time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), "BTC", "1", "150"),
		buy("t3", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), "300", "BTC", "1"),
		sell("t4", time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), "BTC", "1", "120"),
	}
	report := calculate(t, txs, nil, "BTC")

	for _, year := range []string{"2022", "2023", "2024"} {
		if _, ok := report[year]; !ok {
			t.Fatalf("report is missing year %s", year)
		}
	}
	if len(report) != 4 {
		t.Fatalf("report has %d entries, want 3 years plus totals", len(report))
	}

	var sum model.YearBucket
	for year, b := range report {
		if year == model.ReportTotalsKey {
			continue
		}
		sum.Basis = sum.Basis.Add(b.Basis)
		sum.Units = sum.Units.Add(b.Units)
		sum.Proceeds = sum.Proceeds.Add(b.Proceeds)
		sum.Costs = sum.Costs.Add(b.Costs)
		sum.Outlays = sum.Outlays.Add(b.Outlays)
		sum.GainLoss = sum.GainLoss.Add(b.GainLoss)
		sum.SuperficialLosses = sum.SuperficialLosses.Add(b.SuperficialLosses)
		sum.Income = sum.Income.Add(b.Income)
	}

	totals := report[model.ReportTotalsKey]
	wantDec(t, "sum of basis deltas", sum.Basis, totals.Basis)
	wantDec(t, "sum of unit deltas", sum.Units, totals.Units)
	wantDec(t, "sum of proceeds deltas", sum.Proceeds, totals.Proceeds)
	wantDec(t, "sum of cost deltas", sum.Costs, totals.Costs)
	wantDec(t, "sum of outlay deltas", sum.Outlays, totals.Outlays)
	wantDec(t, "sum of gain/loss deltas", sum.GainLoss, totals.GainLoss)
	wantDec(t, "sum of superficial deltas", sum.SuperficialLosses, totals.SuperficialLosses)
	wantDec(t, "sum of income deltas", sum.Income, totals.Income)
}

func TestCalculateDeterministic(t *testing.T) {
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "3"),
		sell("t2", day(10), "BTC", "1", "20"),
		buy("t3", day(20), "50", "BTC", "1"),
		sell("t4", day(90), "BTC", "2", "400"),
	}
	first := calculate(t, txs, nil, "BTC")
	second := calculate(t, txs, nil, "BTC")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calculations disagree:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestCalculateMissingPriceFatalOnlyWhenNeeded(t *testing.T) {
	// A Buy and a Sell carry literal fiat amounts and never consult the
	// price store, so an empty store is fine.
	txs := []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		sell("t2", day(40), "BTC", "1", "150"),
	}
	calculate(t, txs, nil, "BTC")

	// A Send values the disposed units at market, so the same empty store
	// is fatal.
	txs = []model.Transaction{
		buy("t1", day(0), "100", "BTC", "1"),
		{
			ID: "t2", Timestamp: day(40), Type: model.TransactionTypeSend,
			SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
		},
	}
	calc := NewCalculator(staticFeed{txs: txs}, staticPrices{}, fiatSource("CAD"))
	_, err := calc.Calculate(context.Background(), "BTC")
	if !errors.Is(err, apperrors.ErrPriceNotFound) {
		t.Fatalf("Calculate error = %v, want ErrPriceNotFound", err)
	}
}

func TestCalculateNoReportingCurrency(t *testing.T) {
	calc := NewCalculator(staticFeed{}, staticPrices{}, fiatSource(""))
	_, err := calc.Calculate(context.Background(), "BTC")
	if !errors.Is(err, apperrors.ErrNoReportingCurrency) {
		t.Fatalf("Calculate error = %v, want ErrNoReportingCurrency", err)
	}
}

func TestCalculateReportingCurrencyAsset(t *testing.T) {
	calc := NewCalculator(staticFeed{}, staticPrices{}, fiatSource("CAD"))
	_, err := calc.Calculate(context.Background(), "CAD")
	if !errors.Is(err, apperrors.ErrReportingCurrencyAsset) {
		t.Fatalf("Calculate error = %v, want ErrReportingCurrencyAsset", err)
	}
}

func TestCalculateMalformedTransaction(t *testing.T) {
	txs := []model.Transaction{
		{
			ID: "t1", Timestamp: day(0), Type: model.TransactionTypeSell,
			SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
			ReceiveAssetSymbol: "USD", ReceiveAssetQuantity: decp("150"),
		},
	}
	calc := NewCalculator(staticFeed{txs: txs}, staticPrices{}, fiatSource("CAD"))
	_, err := calc.Calculate(context.Background(), "BTC")
	if !errors.Is(err, apperrors.ErrMalformedTransaction) {
		t.Fatalf("Calculate error = %v, want ErrMalformedTransaction", err)
	}
}

func TestCalculateEmptyFeed(t *testing.T) {
	report := calculate(t, nil, nil, "BTC")
	if len(report) != 1 {
		t.Fatalf("report has %d entries, want only totals", len(report))
	}
	totals := report[model.ReportTotalsKey]
	wantDec(t, "basis", totals.Basis, decimal.Zero)
	wantDec(t, "units", totals.Units, decimal.Zero)
}
