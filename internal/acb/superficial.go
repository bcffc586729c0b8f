package acb

import (
	"time"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

// superficialLossWindow is the CRA 30-day window on each side of a
// disposition within which a reacquisition disallows the loss.
const superficialLossWindow = 30 * 24 * time.Hour

// isAcquisitionOf reports whether tx acquires a positive quantity of symbol.
func isAcquisitionOf(tx model.Transaction, symbol string) bool {
	switch tx.Type {
	case model.TransactionTypeBuy, model.TransactionTypeReceive, model.TransactionTypeTrade:
	default:
		return false
	}
	return tx.ReceiveAssetSymbol == symbol &&
		tx.ReceiveAssetQuantity != nil &&
		tx.ReceiveAssetQuantity.Sign() > 0
}

// isSuperficialLoss decides whether a loss realized by txs[i] on symbol is
// disallowed: true when any other transaction acquires the same asset within
// 30 days before or after the disposition. txs must be sorted ascending by
// timestamp, which lets both scans exit early at the window boundary.
func isSuperficialLoss(txs []model.Transaction, i int, symbol string) bool {
	ts := txs[i].Timestamp

	// Reacquisition within 30 days after the disposition.
	upper := ts.Add(superficialLossWindow)
	for j := i + 1; j < len(txs); j++ {
		next := txs[j]
		if next.Timestamp.After(upper) {
			break
		}
		if isAcquisitionOf(next, symbol) && next.Timestamp.After(ts) {
			return true
		}
	}

	// Reacquisition within 30 days before the disposition.
	lower := ts.Add(-superficialLossWindow)
	for j := i - 1; j >= 0; j-- {
		prev := txs[j]
		if prev.Timestamp.Before(lower) {
			break
		}
		if isAcquisitionOf(prev, symbol) && prev.Timestamp.Before(ts) {
			return true
		}
	}

	return false
}
