package contract

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type ErrorCode string

const (
	ErrorCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrorCodeBadRequest             ErrorCode = "BAD_REQUEST"
	ErrorCodeInvalidParameterValue  ErrorCode = "INVALID_PARAMETER_VALUE"
	ErrorCodeUnauthenticated        ErrorCode = "UNAUTHENTICATED"
	ErrorCodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	ErrorCodeResourceDoesNotExist   ErrorCode = "RESOURCE_DOES_NOT_EXIST"
	ErrorCodeEndpointNotFound       ErrorCode = "ENDPOINT_NOT_FOUND"
	ErrorCodeResourceAlreadyExists  ErrorCode = "RESOURCE_ALREADY_EXISTS"
	ErrorCodeTemporarilyUnavailable ErrorCode = "TEMPORARILY_UNAVAILABLE"
)

type Error struct {
	Code    ErrorCode `json:"error_code"`
	Message string    `json:"message"`
	Inner   error     `json:"-"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewErrorWith(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Inner:   err,
	}
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Inner)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) StatusCode() int {
	switch e.Code {
	case ErrorCodeBadRequest, ErrorCodeInvalidParameterValue:
		return fiber.StatusBadRequest
	case ErrorCodeUnauthenticated:
		return fiber.StatusUnauthorized
	case ErrorCodePermissionDenied:
		return fiber.StatusForbidden
	case ErrorCodeResourceDoesNotExist, ErrorCodeEndpointNotFound:
		return fiber.StatusNotFound
	case ErrorCodeResourceAlreadyExists:
		return fiber.StatusConflict
	case ErrorCodeTemporarilyUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
