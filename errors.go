package cointax

import "errors"

// Fatal conditions abort the whole evaluation: a partially correct tax
// report must never be emitted. Recoverable conditions (missing deposit
// link, missing price for an unrealized valuation) degrade into warnings
// instead.
var (
	// ErrInsufficientBalance signals a ledger inconsistency: coins were
	// disposed that were never recorded as acquired.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNegativeBalance signals an internal invariant breach: a lot ended
	// up with a negative remaining amount.
	ErrNegativeBalance = errors.New("negative balance")

	// ErrUnsupportedFeeStructure signals more than two distinct fee coins
	// on a single operation.
	ErrUnsupportedFeeStructure = errors.New("unsupported fee structure")

	// ErrUnsupportedOperation signals an operation kind the taxation rule
	// does not know how to handle.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrPostDeadlineOperation signals an operation timestamped after the
	// tax period's deadline.
	ErrPostDeadlineOperation = errors.New("operation after tax deadline")

	// ErrPriceUnavailable signals that no price could be determined for a
	// coin at a given time. Fatal for realized sells; unrealized deadline
	// valuations fall back to zero with a warning.
	ErrPriceUnavailable = errors.New("price unavailable")
)
