package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of a ledger transaction.
type TransactionType string

const (
	TransactionTypeBuy     TransactionType = "Buy"
	TransactionTypeSell    TransactionType = "Sell"
	TransactionTypeTrade   TransactionType = "Trade"
	TransactionTypeSend    TransactionType = "Send"
	TransactionTypeReceive TransactionType = "Receive"
)

// TransactionTypes lists all valid transaction types, in display order.
var TransactionTypes = []TransactionType{
	TransactionTypeBuy,
	TransactionTypeSell,
	TransactionTypeTrade,
	TransactionTypeSend,
	TransactionTypeReceive,
}

// Valid reports whether the type is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeTrade,
		TransactionTypeSend, TransactionTypeReceive:
		return true
	}
	return false
}

// Transaction is a single ledger event. The send, receive, and fee legs are
// optional symbol/quantity pairs; which pairs are required depends on the
// type (Buy/Sell/Trade need send and receive, Send needs only send, Receive
// needs only receive, and the fee pair is always all-or-nothing). These
// invariants are enforced at the API boundary; the ACB engine assumes them.
type Transaction struct {
	ID                   string           `json:"id"`
	Timestamp            time.Time        `json:"timestamp"`
	Type                 TransactionType  `json:"type"`
	SendAssetSymbol      string           `json:"send_asset_symbol,omitempty"`
	SendAssetQuantity    *decimal.Decimal `json:"send_asset_quantity,omitempty"`
	ReceiveAssetSymbol   string           `json:"receive_asset_symbol,omitempty"`
	ReceiveAssetQuantity *decimal.Decimal `json:"receive_asset_quantity,omitempty"`
	FeeAssetSymbol       string           `json:"fee_asset_symbol,omitempty"`
	FeeAssetQuantity     *decimal.Decimal `json:"fee_asset_quantity,omitempty"`
	IsIncome             bool             `json:"is_income"`
	Notes                string           `json:"notes,omitempty"`
	CreatedAt            time.Time        `json:"created_at,omitempty"`
}

// References reports whether the transaction touches the given asset symbol
// on any leg.
func (t Transaction) References(symbol string) bool {
	return t.SendAssetSymbol == symbol ||
		t.ReceiveAssetSymbol == symbol ||
		t.FeeAssetSymbol == symbol
}
