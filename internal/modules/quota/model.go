package quota

import "errors"

// ErrExhausted is returned when a user has no drafts remaining for the current month.
var ErrExhausted = errors.New("monthly draft allowance exhausted")

// DefaultMonthly is the number of drafts granted per month.
const DefaultMonthly = 100
