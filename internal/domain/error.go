package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrUpstreamFailure     = errors.New("upstream provider failure")
	ErrCheckoutInFlight    = errors.New("checkout already in progress")
	ErrRateLimited         = errors.New("rate limit exceeded")

	// Storage-layer errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
