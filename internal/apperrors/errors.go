package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAssetNotFound indicates that an asset with the given symbol does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrPriceNotFound indicates that no price is recorded for an asset/fiat
	// pair at or before the queried timestamp.
	ErrPriceNotFound = errors.New("price not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSettingNotFound indicates that a system setting key has no stored value.
	ErrSettingNotFound = errors.New("setting not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrNoReportingCurrency indicates that no fiat asset has been configured.
	// ACB calculations cannot run without a reporting currency.
	ErrNoReportingCurrency = errors.New("no reporting currency configured")

	// ErrReportingCurrencyAsset indicates that an ACB calculation was requested
	// for the reporting currency itself.
	ErrReportingCurrencyAsset = errors.New("asset is the reporting currency")

	// ErrDepletedHoldings indicates a disposition of an asset with zero
	// recorded units.
	ErrDepletedHoldings = errors.New("cannot dispose of an asset with zero recorded units")

	// ErrMalformedTransaction indicates that a required symbol/quantity pair
	// is missing or invalid for the transaction's type.
	ErrMalformedTransaction = errors.New("malformed transaction")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidSymbol indicates a missing or malformed asset symbol.
	ErrInvalidSymbol = errors.New("symbol is required")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrInconsistentState indicates that an ACB accumulator went negative
	// during a calculation. This is a defect in upstream data or in the
	// algorithm itself and is never silently clamped.
	ErrInconsistentState = errors.New("internal consistency violation")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data.
var (
	ErrFailedToRetrieveAssets       = errors.New("failed to retrieve assets")
	ErrFailedToRetrievePrices       = errors.New("failed to retrieve prices")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToImportTransactions   = errors.New("failed to import transactions")
	ErrFailedToRefreshPrices        = errors.New("failed to refresh price history")
	ErrFailedToCalculateACB         = errors.New("failed to calculate adjusted cost base")
)
