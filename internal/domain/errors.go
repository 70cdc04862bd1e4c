package domain

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStatementNotFound   = errors.New("statement not found")
	ErrInvalidPeriod       = errors.New("invalid period")
)
