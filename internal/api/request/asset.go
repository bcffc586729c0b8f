package request

// CreateAssetRequest is the payload for adding a tracked asset. Adding a
// fiat asset sets the reporting currency, replacing any previous one.
type CreateAssetRequest struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	LogoURL string `json:"logo_url,omitempty"`
}
