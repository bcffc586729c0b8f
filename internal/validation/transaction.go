package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

// legsByType describes which symbol/quantity pairs each transaction type
// requires and forbids. The fee pair is always optional.
var legsByType = map[model.TransactionType]struct {
	needsSend    bool
	needsReceive bool
}{
	model.TransactionTypeBuy:     {needsSend: true, needsReceive: true},
	model.TransactionTypeSell:    {needsSend: true, needsReceive: true},
	model.TransactionTypeTrade:   {needsSend: true, needsReceive: true},
	model.TransactionTypeSend:    {needsSend: true},
	model.TransactionTypeReceive: {needsReceive: true},
}

// ValidateTransaction validates a transaction create or replace request.
// Checks the type, the presence of the legs that type requires, the absence
// of legs it forbids, and that every present quantity is a positive decimal.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateTransaction(req request.TransactionRequest) error {
	errors := make(map[string]string)

	txType := model.TransactionType(req.Type)
	legs, known := legsByType[txType]
	if req.Type == "" {
		errors["type"] = "type is required"
	} else if !known {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if req.Timestamp <= 0 {
		errors["timestamp"] = "timestamp is required"
	}

	validateLeg(errors, "send_asset", req.SendAssetSymbol, req.SendAssetQuantity, legs.needsSend && known)
	validateLeg(errors, "receive_asset", req.ReceiveAssetSymbol, req.ReceiveAssetQuantity, legs.needsReceive && known)
	validateLeg(errors, "fee_asset", req.FeeAssetSymbol, req.FeeAssetQuantity, false)

	if known && !legs.needsSend && req.SendAssetSymbol != "" {
		errors["send_asset_symbol"] = fmt.Sprintf("%s transactions cannot have a send leg", req.Type)
	}
	if known && !legs.needsReceive && req.ReceiveAssetSymbol != "" {
		errors["receive_asset_symbol"] = fmt.Sprintf("%s transactions cannot have a receive leg", req.Type)
	}

	if req.SendAssetSymbol != "" && req.SendAssetSymbol == req.ReceiveAssetSymbol {
		errors["receive_asset_symbol"] = "send and receive assets must differ"
	}

	if req.IsIncome && txType != model.TransactionTypeReceive {
		errors["is_income"] = "only Receive transactions can be income"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// validateLeg checks one symbol/quantity pair: both present or both absent,
// symbol well formed, quantity a positive decimal.
func validateLeg(errors map[string]string, prefix, symbol string, quantity *string, required bool) {
	symbolField := prefix + "_symbol"
	quantityField := prefix + "_quantity"

	if symbol == "" && quantity == nil {
		if required {
			errors[symbolField] = prefix + " is required for this type"
		}
		return
	}
	if symbol == "" {
		errors[symbolField] = "symbol is required when a quantity is given"
		return
	}
	if err := ValidateSymbol(symbol); err != nil {
		errors[symbolField] = err.Error()
		return
	}
	if quantity == nil {
		errors[quantityField] = "quantity is required when a symbol is given"
		return
	}

	d, err := decimal.NewFromString(*quantity)
	if err != nil {
		errors[quantityField] = fmt.Sprintf("invalid decimal: %s", *quantity)
		return
	}
	if d.Sign() <= 0 {
		errors[quantityField] = "quantity must be positive"
	}
}
