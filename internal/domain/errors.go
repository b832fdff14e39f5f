package domain

import "errors"

// Kind classifies an error for callers that need to decide how to react to it.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidArgument      Kind = "invalid_argument"
	KindInsufficientResource Kind = "insufficient_resource"
	KindIllegalState         Kind = "illegal_state"
	KindConcurrencyConflict  Kind = "concurrency_conflict"
	KindStoreFailure         Kind = "store_failure"
	KindPermissionDenied     Kind = "permission_denied"
)

// Error is a domain error with a stable kind.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

var (
	// Not found
	ErrStockNotFound   = newError(KindNotFound, "stock not found")
	ErrAccountNotFound = newError(KindNotFound, "account not found")
	ErrOfferNotFound   = newError(KindNotFound, "offer not found")
	ErrPriceNotFound   = newError(KindNotFound, "average price not found")

	// Invalid argument
	ErrInvalidArgument  = newError(KindInvalidArgument, "invalid argument")
	ErrInvalidAmount    = newError(KindInvalidArgument, "amount must be positive")
	ErrInvalidPrice     = newError(KindInvalidArgument, "price must be positive")
	ErrInvalidOfferType = newError(KindInvalidArgument, "invalid offer type")
	ErrMissingReference = newError(KindInvalidArgument, "required reference is missing")
	ErrSelfTrade        = newError(KindInvalidArgument, "cannot trade with yourself")
	ErrDuplicateTicker  = newError(KindInvalidArgument, "ticker already listed")

	// Insufficient resource
	ErrInsufficientFunds       = newError(KindInsufficientResource, "insufficient funds")
	ErrInsufficientShares      = newError(KindInsufficientResource, "insufficient shares")
	ErrInsufficientPublicFloat = newError(KindInsufficientResource, "insufficient public float")

	// Illegal state
	ErrBankruptStock               = newError(KindIllegalState, "stock is bankrupt")
	ErrPublicOfferingNotCancelable = newError(KindIllegalState, "public offerings cannot be canceled")
	ErrNoStocksAvailable           = newError(KindIllegalState, "no stocks available to bankrupt")

	// Access
	ErrForbidden      = newError(KindPermissionDenied, "operation not permitted for caller")
	ErrNotOfferWriter = newError(KindPermissionDenied, "only the offer writer can cancel it")

	// Concurrency
	ErrConcurrencyConflict = newError(KindConcurrencyConflict, "concurrent update conflict, retry the request")
)

// KindOf reports the kind of err. Errors that do not originate in the domain
// are treated as store failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}

	return KindStoreFailure
}

// IsRetryable reports whether the caller may safely retry the failed request.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConcurrencyConflict
}
