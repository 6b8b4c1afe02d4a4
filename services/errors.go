// services/errors.go
package services

import "errors"

var (
	// ErrInsufficientBalance is returned when a withdrawal is requested below
	// the minimum threshold.
	ErrInsufficientBalance = errors.New("available balance is below the minimum withdrawal amount")

	// ErrInvalidPayoutKey is returned when the payout destination is empty.
	ErrInvalidPayoutKey = errors.New("payout key must not be empty")

	// ErrInvalidStateTransition is returned when a commission or withdrawal
	// request is not in the state the operation expects.
	ErrInvalidStateTransition = errors.New("record is not in the expected state")

	// ErrInsufficientStock is returned when an order asks for more units than
	// the product has left.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound is returned when a referenced commission or withdrawal
	// request does not exist.
	ErrNotFound = errors.New("record not found")
)
