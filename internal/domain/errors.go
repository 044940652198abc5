package domain

import "errors"

var (
	// ErrDataUnavailable means the rule-set store is unreachable, a referenced
	// document is missing, or the data is malformed
	ErrDataUnavailable = errors.New("rule-set data unavailable")

	// ErrUnknownFamily means no rule family is registered under a name
	ErrUnknownFamily = errors.New("unknown rule family")
)
