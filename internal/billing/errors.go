package billing

import "errors"

var (
	// ErrInvalidLineItemValue indicates a quantity, unit price or discount outside its domain.
	ErrInvalidLineItemValue = errors.New("invalid line item value")
	// ErrIllegalTransition indicates a status transition or mutation the lifecycle forbids.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrDuplicateReference indicates a reference collision detected at persistence time.
	ErrDuplicateReference = errors.New("duplicate reference")
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("record not found")
)
