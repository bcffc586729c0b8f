package acb

import (
	"testing"
	"time"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

func acquisitionAt(ts time.Time) model.Transaction {
	return model.Transaction{
		Timestamp: ts, Type: model.TransactionTypeBuy,
		SendAssetSymbol: "CAD", SendAssetQuantity: decp("100"),
		ReceiveAssetSymbol: "BTC", ReceiveAssetQuantity: decp("1"),
	}
}

func dispositionAt(ts time.Time) model.Transaction {
	return model.Transaction{
		Timestamp: ts, Type: model.TransactionTypeSell,
		SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
		ReceiveAssetSymbol: "CAD", ReceiveAssetQuantity: decp("40"),
	}
}

func TestIsSuperficialLossWindowBoundaries(t *testing.T) {
	sellAt := day(0)

	tests := []struct {
		name  string
		other model.Transaction
		want  bool
	}{
		{"acquisition exactly 30 days after", acquisitionAt(sellAt.Add(superficialLossWindow)), true},
		{"acquisition just over 30 days after", acquisitionAt(sellAt.Add(superficialLossWindow + time.Second)), false},
		{"acquisition exactly 30 days before", acquisitionAt(sellAt.Add(-superficialLossWindow)), true},
		{"acquisition just over 30 days before", acquisitionAt(sellAt.Add(-superficialLossWindow - time.Second)), false},
		{"acquisition at the same instant", acquisitionAt(sellAt), false},
		{"acquisition of a different asset", func() model.Transaction {
			tx := acquisitionAt(sellAt.Add(time.Hour))
			tx.ReceiveAssetSymbol = "ETH"
			return tx
		}(), false},
		{"disposition inside the window", dispositionAt(sellAt.Add(time.Hour)), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			txs := []model.Transaction{tc.other, dispositionAt(sellAt)}
			i := 1
			if tc.other.Timestamp.After(sellAt) {
				txs = []model.Transaction{dispositionAt(sellAt), tc.other}
				i = 0
			}
			if got := isSuperficialLoss(txs, i, "BTC"); got != tc.want {
				t.Errorf("isSuperficialLoss = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsAcquisitionOf(t *testing.T) {
	trade := model.Transaction{
		Type:            model.TransactionTypeTrade,
		SendAssetSymbol: "ETH", SendAssetQuantity: decp("10"),
		ReceiveAssetSymbol: "BTC", ReceiveAssetQuantity: decp("1"),
	}
	if !isAcquisitionOf(trade, "BTC") {
		t.Error("trade receiving BTC should count as an acquisition of BTC")
	}
	if isAcquisitionOf(trade, "ETH") {
		t.Error("trade sending ETH should not count as an acquisition of ETH")
	}

	send := model.Transaction{
		Type:            model.TransactionTypeSend,
		SendAssetSymbol: "BTC", SendAssetQuantity: decp("1"),
	}
	if isAcquisitionOf(send, "BTC") {
		t.Error("send should never count as an acquisition")
	}
}
