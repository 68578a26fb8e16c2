package engine

import "errors"

// Global error declarations.
var (
	// InvalidOrderErr rejects a malformed order submission. The order is
	// dropped and the run continues.
	InvalidOrderErr = errors.New("invalid order")

	// OrderNotFoundErr is returned by cancel for an unknown or already
	// terminal order id.
	OrderNotFoundErr = errors.New("order not found or terminal")

	// DataGapErr is fatal: the feed produced a non-increasing timestamp,
	// so simulation ordering can no longer be trusted.
	DataGapErr = errors.New("non-monotonic bar sequence")

	// ConfigErr rejects an invalid run configuration before any bar is
	// processed.
	ConfigErr = errors.New("invalid run configuration")
)
