package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoContract       = errors.New("customer has no contract configured")
	ErrNoSchedule       = errors.New("customer has no schedule configured")
	ErrDuplicateInvoice = errors.New("invoice already exists for this period")
	// ErrInvalidStatusChange rejects a status move that is not forward-only.
	ErrInvalidStatusChange = errors.New("status change not allowed")
	// ErrConflict means a concurrent writer won the race for the same invoice
	// number or billing period; the operation is safe to retry.
	ErrConflict = errors.New("conflicting concurrent invoice generation")
)
