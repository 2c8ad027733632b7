package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so the transport can pick a status.
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota + 1
	KindUnauthorized
	KindNotFound
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Field values carried by ServiceError.
const (
	FieldID               = "id"
	FieldTitle            = "title"
	FieldMessage          = "message"
	FieldStartDate        = "start_date"
	FieldExpirationDate   = "expiration_date"
	FieldEmpty            = "empty"
	FieldUpdateNotApplied = "update_not_applied"
	FieldDeleteNotApplied = "delete_not_applied"
)

// ServiceError is returned by the announcement service for every failure the
// caller can act on. Message is safe to show to clients.
type ServiceError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s(%s): %s: %v", e.Kind, e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s(%s): %s", e.Kind, e.Field, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func invalidInput(field, message string) error {
	return &ServiceError{Kind: KindInvalidInput, Field: field, Message: message}
}

func notFound(message string) error {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func internalError(field, message string, err error) error {
	return &ServiceError{Kind: KindInternal, Field: field, Message: message, Err: err}
}

// KindOf returns the kind of a ServiceError in err's chain, or zero.
func KindOf(err error) ErrorKind {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		if authErr.Reason == AuthStoreUnavailable {
			return KindInternal
		}
		return KindUnauthorized
	}
	return 0
}

func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsInternal(err error) bool { return KindOf(err) == KindInternal }

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// FieldOf returns the field of a ServiceError in err's chain.
func FieldOf(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Field
	}
	return ""
}

// AuthReason tells why a credential was rejected.
type AuthReason int

const (
	AuthMissingCredentials AuthReason = iota + 1
	AuthInvalidEncoding
	AuthMalformedToken
	AuthInvalidCredentials
	AuthStoreUnavailable
)

func (r AuthReason) String() string {
	switch r {
	case AuthMissingCredentials:
		return "missing_credentials"
	case AuthInvalidEncoding:
		return "invalid_encoding"
	case AuthMalformedToken:
		return "malformed_token"
	case AuthInvalidCredentials:
		return "invalid_credentials"
	case AuthStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// AuthError is returned by the Authenticator.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// AuthReasonOf returns the reason of an AuthError in err's chain, or zero.
func AuthReasonOf(err error) AuthReason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return 0
}
