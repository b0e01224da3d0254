// Package apperrors defines the sentinel errors shared by the store,
// service and HTTP layers. Callers wrap them with fmt.Errorf("...: %w")
// and test with errors.Is.
package apperrors

import "errors"

// Order errors
var (
	ErrInvalidLineItem      = errors.New("invalid line item")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrOrderNotFound        = errors.New("order not found")
	ErrConcurrentUpdate     = errors.New("order was modified concurrently")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrOrderClosed          = errors.New("order is closed")
)

// Store errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
)
