package request

// SetAPIKeysRequest is the payload for storing market data provider API
// keys. Keys are encrypted before they reach the settings table. A nil
// field leaves the stored key unchanged.
type SetAPIKeysRequest struct {
	CryptoAPIKey *string `json:"crypto_api_key,omitempty"`
	FiatAPIKey   *string `json:"fiat_api_key,omitempty"`
}
