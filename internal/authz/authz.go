// Package authz declares the authorization validator contract from
// spec.md §6. No concrete implementation (JWT, OAuth introspection) is
// provided — that is an explicit spec.md Non-goal ("Concrete authorization
// validators"). No code in this module calls a Validator: the protocol
// engine dispatches every request without an authorization check.
package authz

import "context"

// ErrorKind enumerates the failure reasons a Validator can report.
type ErrorKind string

const (
	ErrInvalidToken     ErrorKind = "invalid_token"
	ErrExpiredToken     ErrorKind = "expired_token"
	ErrInvalidIssuer    ErrorKind = "invalid_issuer"
	ErrInvalidAudience  ErrorKind = "invalid_audience"
	ErrInvalidSignature ErrorKind = "invalid_signature"
)

// ValidationError wraps a failed validation with its kind.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TokenInfo is whatever claims a Validator extracts from a valid token.
// The protocol engine does not read it, and nothing in the module places
// it on a registry.Frame.
type TokenInfo map[string]any

// Config is the opaque configuration a Validator is given; its shape is
// implementation-specific (issuer URL, audience, JWKS endpoint, etc.) and
// deliberately not specified here.
type Config map[string]any

// Validator authorizes an inbound token before request dispatch.
type Validator interface {
	ValidateToken(ctx context.Context, token string, cfg Config) (TokenInfo, error)
}
