package validation

import (
	"fmt"
	"strings"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/model"
)

// ValidateCreateAsset validates an asset creation request.
//
// Required fields:
//   - symbol: 1 to 10 uppercase letters or digits
//   - name: non-empty
//   - type: one of: blockchain, fiat
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateAsset(req request.CreateAssetRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if !model.AssetType(req.Type).Valid() {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
