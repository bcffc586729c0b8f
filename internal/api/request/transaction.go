package request

// TransactionRequest is the payload for creating or replacing a ledger
// transaction. Quantities are decimal strings to avoid float rounding on
// the wire; timestamps are unix milliseconds.
type TransactionRequest struct {
	Timestamp            int64   `json:"timestamp"`
	Type                 string  `json:"type"`
	SendAssetSymbol      string  `json:"send_asset_symbol,omitempty"`
	SendAssetQuantity    *string `json:"send_asset_quantity,omitempty"`
	ReceiveAssetSymbol   string  `json:"receive_asset_symbol,omitempty"`
	ReceiveAssetQuantity *string `json:"receive_asset_quantity,omitempty"`
	FeeAssetSymbol       string  `json:"fee_asset_symbol,omitempty"`
	FeeAssetQuantity     *string `json:"fee_asset_quantity,omitempty"`
	IsIncome             bool    `json:"is_income"`
	Notes                string  `json:"notes,omitempty"`
}
