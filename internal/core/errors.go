package core

import "errors"

// Kind classifies an Error for callers deciding how to react
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindState
	KindArithmetic
	KindUniqueness
	KindLookup
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindArithmetic:
		return "arithmetic"
	case KindUniqueness:
		return "uniqueness"
	case KindLookup:
		return "lookup"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified timelock error. Two Errors match under errors.Is
// when their codes are equal.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidDuration        = &Error{Code: "InvalidDuration", Kind: KindValidation, Message: "invalid lock duration"}
	ErrInvalidAmount          = &Error{Code: "InvalidAmount", Kind: KindValidation, Message: "invalid amount"}
	ErrUnauthorized           = &Error{Code: "Unauthorized", Kind: KindAuthorization, Message: "caller is not the admin"}
	ErrNotInitialized         = &Error{Code: "NotInitialized", Kind: KindState, Message: "timelock not initialized"}
	ErrNoLockedTokens         = &Error{Code: "NoLockedTokens", Kind: KindState, Message: "no tokens locked"}
	ErrLockPeriodNotOver      = &Error{Code: "LockPeriodNotOver", Kind: KindState, Message: "lock period not over yet"}
	ErrOverflow               = &Error{Code: "Overflow", Kind: KindArithmetic, Message: "arithmetic overflow"}
	ErrAlreadyInitialized     = &Error{Code: "AlreadyInitialized", Kind: KindUniqueness, Message: "timelock already initialized"}
	ErrAssetAlreadyRegistered = &Error{Code: "AssetAlreadyRegistered", Kind: KindUniqueness, Message: "asset already registered"}
	ErrAssetNotSupported      = &Error{Code: "AssetNotSupported", Kind: KindLookup, Message: "asset not supported"}
	ErrCustodyMismatch        = &Error{Code: "CustodyMismatch", Kind: KindInternal, Message: "custody account inconsistent with vault"}
)

// KindOf returns the classification of err, KindUnknown for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of err, or "" for unclassified errors
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
