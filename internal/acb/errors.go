package acb

import "fmt"

// CalculationError is the typed failure returned by Calculate. It carries the
// asset being calculated and, when the failure is tied to a specific ledger
// event, the offending transaction's id and type so the upstream data can be
// corrected and the calculation re-run.
type CalculationError struct {
	Asset  string
	TxID   string
	TxType string
	Err    error
}

func (e *CalculationError) Error() string {
	if e.TxID == "" {
		return fmt.Sprintf("acb calculation for %s: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("acb calculation for %s: transaction %s (%s): %v",
		e.Asset, e.TxID, e.TxType, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }
