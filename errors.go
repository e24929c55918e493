package cgt

import "errors"

// ErrInvalidOperation reports an upstream data error: an operation that is
// meaningless against the current state (gifting more than held, cash in
// lieu without a fractional share, a transfer receipt without a cost).
// It aborts the whole calculation pass, no partial results are returned.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrCurrencyMismatch reports arithmetic across incompatible currencies.
// Amounts are never silently coerced.
var ErrCurrencyMismatch = errors.New("currency mismatch")
