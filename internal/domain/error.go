package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyActivated  = errors.New("trial already activated for this agent")
	ErrSignatureMismatch = errors.New("signature verification failed")
	ErrGateway           = errors.New("payment gateway error")
	ErrSweepInProgress   = errors.New("sweep already in progress")
	ErrLockNotAcquired   = errors.New("lock not acquired")
	ErrPaymentConflict   = errors.New("payment already resolved with a different outcome")

	// Storage errors
	ErrStorage            = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)
