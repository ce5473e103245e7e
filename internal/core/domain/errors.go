package domain

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can pick a status code
// without inspecting messages.
type Kind int

const (
	KindComputation      Kind = iota // unexpected internal failure
	KindInvalidArgument              // malformed or out-of-range input
	KindUnauthorized                 // missing credential
	KindForbidden                    // wrong credential
	KindRateLimited                  // client quota exceeded
	KindNotFound                     // legitimate empty result
	KindUpstreamNotFound             // single-result lookup with no match
	KindUpstreamFailure              // collaborator error
	KindUpstreamTimeout              // collaborator did not answer in time
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindUpstreamNotFound:
		return "upstream_not_found"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	default:
		return "computation_failure"
	}
}

// Error is the error type returned across the core.
type Error struct {
	Kind Kind
	Msg  string
	// Status is the upstream HTTP status, when the failure came from one.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Invalid builds an InvalidArgument error.
func Invalid(msg string) error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// NotFound builds a NotFound error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Unauthorized builds the error for a missing credential.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Forbidden builds the error for a credential that does not match.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// UpstreamTimeout marks err as a collaborator that did not answer in time.
func UpstreamTimeout(msg string, err error) error {
	return &Error{Kind: KindUpstreamTimeout, Msg: msg, Err: err}
}

// UpstreamNotFound builds the 404 used by single-result lookups.
func UpstreamNotFound(msg string) error {
	return &Error{Kind: KindUpstreamNotFound, Msg: msg}
}

// Upstream wraps a collaborator failure. A context deadline is classified as
// a timeout.
func Upstream(msg string, status int, err error) error {
	kind := KindUpstreamFailure
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindUpstreamTimeout
	}
	return &Error{Kind: kind, Msg: msg, Status: status, Err: err}
}

// Computation wraps an unexpected internal failure.
func Computation(msg string, err error) error {
	return &Error{Kind: KindComputation, Msg: msg, Err: err}
}

// KindOf extracts the Kind of err. Unclassified errors are computation
// failures, except bare context deadlines which are timeouts.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUpstreamTimeout
	}
	return KindComputation
}

// StatusOf returns the upstream status attached to err, or 0.
func StatusOf(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.Status
	}
	return 0
}

// IsKind reports whether err is of kind k.
func IsKind(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}
