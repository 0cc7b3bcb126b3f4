package host

import "errors"

var (
	ErrInvalidSignature     = errors.New("invalid transaction signature")
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrDuplicateTransaction = errors.New("transaction already executed")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already exists")
	ErrInvalidCapacity      = errors.New("invalid account capacity")
	ErrStoreClosed          = errors.New("account store is closed")
)
