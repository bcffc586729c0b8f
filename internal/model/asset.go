package model

import "time"

// AssetType distinguishes tracked blockchain assets from the single fiat
// reporting currency.
type AssetType string

const (
	AssetTypeBlockchain AssetType = "blockchain"
	AssetTypeFiat       AssetType = "fiat"
)

// Valid reports whether the asset type is one of the known values.
func (t AssetType) Valid() bool {
	return t == AssetTypeBlockchain || t == AssetTypeFiat
}

// Asset represents a tracked asset. Exactly one fiat asset may exist at a
// time; it acts as the reporting currency for all ACB calculations.
type Asset struct {
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Type       AssetType  `json:"asset_type"`
	LaunchDate *time.Time `json:"launch_date,omitempty"`
	LogoURL    string     `json:"logo_url,omitempty"`
}
