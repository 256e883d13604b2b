package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Handlers map these to status codes with errors.Is;
// every reason error below wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrAuthRequired       = fmt.Errorf("%w: authentication required", ErrUnauthorized)
	ErrAdminRequired      = fmt.Errorf("%w: admin access required", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

	ErrOrderNotFound   = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("%w: message not found", ErrNotFound)
	ErrCartItemMissing = fmt.Errorf("%w: cart item not found", ErrNotFound)

	ErrNotOrderOwner     = fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	ErrOrderNotDelivered = fmt.Errorf("%w: order has not been delivered", ErrNotFound)
	ErrProductNotInOrder = fmt.Errorf("%w: product is not part of the order", ErrNotFound)

	ErrDuplicateReview      = fmt.Errorf("%w: review already exists for this order and product", ErrConflict)
	ErrOrderNumberCollision = fmt.Errorf("%w: order number collision", ErrConflict)
	ErrInvalidTransition    = fmt.Errorf("%w: status transition not allowed", ErrConflict)
	ErrEmailTaken           = fmt.Errorf("%w: email already registered", ErrConflict)
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(details ...string) error {
	return &ValidationError{Details: details}
}

func invalidf(format string, args ...any) error {
	return invalid(fmt.Sprintf(format, args...))
}

// Reason codes reported by the review eligibility check.
const (
	ReasonOrderNotFound     = "order_not_found"
	ReasonNotOwner          = "not_owner"
	ReasonNotDelivered      = "not_delivered"
	ReasonProductNotInOrder = "product_not_in_order"
	ReasonAlreadyReviewed   = "already_reviewed"
)

// IneligibilityReason returns the reason code for an eligibility failure,
// or "" when err is not one.
func IneligibilityReason(err error) string {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return ReasonOrderNotFound
	case errors.Is(err, ErrNotOrderOwner):
		return ReasonNotOwner
	case errors.Is(err, ErrOrderNotDelivered):
		return ReasonNotDelivered
	case errors.Is(err, ErrProductNotInOrder):
		return ReasonProductNotInOrder
	case errors.Is(err, ErrDuplicateReview):
		return ReasonAlreadyReviewed
	}
	return ""
}
