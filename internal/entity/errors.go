package domain

import "errors"

var (
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrStaleCart              = errors.New("cart is stale")
	ErrSignature              = errors.New("signature mismatch")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrOrderNotFound          = errors.New("order not found")
	ErrProductNotFound        = errors.New("product not found")
)
