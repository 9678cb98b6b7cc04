// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package identity

import "net/http"

// FailureKind classifies why an operation did not succeed. Kinds stay
// distinguishable to callers even where the suggested status collapses
// them for security reasons.
type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureDuplicate
	FailureAuthentication
	FailureAuthorization
	FailureNotFound
	FailurePersistence
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureValidation:
		return "validation"
	case FailureDuplicate:
		return "duplicate"
	case FailureAuthentication:
		return "authentication"
	case FailureAuthorization:
		return "authorization"
	case FailureNotFound:
		return "not_found"
	case FailurePersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// StatusHint suggests a coarse protocol status for callers bridging
// to a request/response transport. Authentication and authorization
// collapse to one unauthorized status so the failing sub-check is not
// leaked; user-correctable failures map to bad request.
func (k FailureKind) StatusHint() int {
	switch k {
	case FailureNone:
		return http.StatusOK
	case FailureValidation, FailureDuplicate, FailureNotFound:
		return http.StatusBadRequest
	case FailureAuthentication, FailureAuthorization:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// SoftFailure is a named best-effort step that did not stick. The
// surrounding operation still succeeded; the failure is surfaced for
// telemetry instead of being silently swallowed.
type SoftFailure struct {
	Step string
	Err  error
}

// Result is the structured outcome of a lifecycle operation.
type Result struct {
	Success      bool
	Kind         FailureKind
	Status       int
	Messages     []string
	Payload      any
	SoftFailures []SoftFailure
}

// Operation result payloads.
type (
	// AuthenticatedPayload is returned by Authenticate.
	AuthenticatedPayload struct {
		IdentityID int64
	}

	// LoginPayload is returned by Login. Token is the plaintext
	// session token; it is never stored.
	LoginPayload struct {
		Identity *Identity
		Session  *Session
		Token    string
	}

	// IdentityPayload is returned by ResetCredential and
	// UpdateIdentity.
	IdentityPayload struct {
		Identity *Identity
	}
)

func success(payload any) *Result {
	return &Result{
		Success: true,
		Kind:    FailureNone,
		Status:  FailureNone.StatusHint(),
		Payload: payload,
	}
}

func failure(kind FailureKind, msg string) *Result {
	return &Result{
		Kind:     kind,
		Status:   kind.StatusHint(),
		Messages: []string{msg},
	}
}

// soft records a best-effort step that failed without failing the
// operation.
func (r *Result) soft(step string, err error) *Result {
	r.SoftFailures = append(r.SoftFailures, SoftFailure{Step: step, Err: err})
	return r
}
