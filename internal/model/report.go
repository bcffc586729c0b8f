package model

import "github.com/shopspring/decimal"

// ReportTotalsKey is the synthetic report entry holding lifetime totals.
const ReportTotalsKey = "TOTALS"

// YearBucket holds one calendar year's deltas of the ACB accumulators, or,
// under the TOTALS key, the lifetime running totals. All fields are exact
// decimals; summing every year's deltas must reproduce TOTALS field by field.
type YearBucket struct {
	Basis             decimal.Decimal `json:"basis"`
	Units             decimal.Decimal `json:"units"`
	Proceeds          decimal.Decimal `json:"proceeds"`
	Costs             decimal.Decimal `json:"costs"`
	Outlays           decimal.Decimal `json:"outlays"`
	GainLoss          decimal.Decimal `json:"gain_loss"`
	SuperficialLosses decimal.Decimal `json:"superficial_losses"`
	Income            decimal.Decimal `json:"income"`
}

// Report maps calendar years (as strings) to their buckets, plus the TOTALS
// entry. It is rebuilt from scratch on every calculation.
type Report map[string]YearBucket
