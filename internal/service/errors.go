package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")
)

// Not-found errors for the record store. Each wraps ErrNotFound.
var (
	ErrLeadNotFound         = notFound("lead not found")
	ErrCustomerNotFound     = notFound("customer not found")
	ErrOfferNotFound        = notFound("offer not found")
	ErrInvoiceNotFound      = notFound("invoice not found")
	ErrSubscriptionNotFound = notFound("subscription not found or inactive")
	ErrProjectNotFound      = notFound("project not found")
	ErrMilestoneNotFound    = notFound("milestone not found")
)

// ErrDuplicateEmail is returned when a lead with the same email already exists
var ErrDuplicateEmail = withKind("a lead with this email already exists", ErrConflict)

type wrappedError struct {
	msg  string
	kind error
}

func (e *wrappedError) Error() string { return e.msg }

func (e *wrappedError) Unwrap() error { return e.kind }

func withKind(msg string, kind error) error {
	return &wrappedError{msg: msg, kind: kind}
}

func notFound(msg string) error {
	return withKind(msg, ErrNotFound)
}
