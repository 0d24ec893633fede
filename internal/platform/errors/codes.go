// Package errors provides structured error handling with i18n support.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Account errors
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeUserAlreadyExists  Code = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidToken       Code = "INVALID_TOKEN"

	// Post errors
	CodePostNotFound Code = "POST_NOT_FOUND"
	CodeForbidden    Code = "FORBIDDEN"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidArgument:
		return codes.InvalidArgument

	// Unauthenticated - missing or bad credentials. An unknown username
	// maps here too so a login probe cannot distinguish it from a wrong
	// password.
	case CodeUserNotFound,
		CodeInvalidCredentials,
		CodeInvalidToken:
		return codes.Unauthenticated

	// PermissionDenied - authenticated but not the owner
	case CodeForbidden:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodePostNotFound,
		CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeUserAlreadyExists,
		CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes. The table mirrors
// GRPCCode so both transports report the same outcome for the same error.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUserNotFound,
		CodeInvalidCredentials,
		CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodePostNotFound,
		CodeNotFound:
		return http.StatusNotFound
	case CodeUserAlreadyExists,
		CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
