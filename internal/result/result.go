// Package result defines the single outcome type returned by every action.
package result

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
)

// User-facing messages for failures the backend did not describe
const (
	MessageSessionExpired = "Your session has expired. Please sign in again."
	MessageForbidden      = "You do not have permission to do that."
	MessageNotFound       = "The requested resource was not found."
	MessageServer         = "The service is temporarily unavailable. Please try again later."
	MessageTimeout        = "The request timed out. Please try again."
	MessageCancelled      = "The request was cancelled."
	MessageNetwork        = "Something went wrong. Please check your connection and try again."
)

// Result is either a success carrying Data or a failure carrying Err.
// Message is always safe to show to the user.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// OK builds a successful result
func OK[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

// Fail builds a failed result with a normalized message
func Fail[T any](err error) Result[T] {
	return Result[T]{Message: MessageFor(err), Err: err}
}

// AsError returns nil for a success, otherwise an error whose text is Message
func (r Result[T]) AsError() error {
	if r.Success {
		return nil
	}
	return &Failure{Message: r.Message, Err: r.Err}
}

// Failure adapts a failed result to the error interface
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// MessageFor turns any error from the action layer into a user-facing message
func MessageFor(err error) string {
	if err == nil {
		return ""
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationMessage(validationErrs)
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiMessage(apiErr)
	}

	if errors.Is(err, context.Canceled) {
		return MessageCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MessageTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return MessageTimeout
	}

	if errors.Is(err, apiclient.ErrTokenDecode) {
		return MessageSessionExpired
	}

	var msgErr *MessageError
	if errors.As(err, &msgErr) {
		return msgErr.Message
	}

	return MessageNetwork
}

// MessageError is a client-side failure whose text is meant for the user
type MessageError struct {
	Message string
}

func (e *MessageError) Error() string {
	return e.Message
}

// Errorf builds a MessageError
func Errorf(format string, args ...any) error {
	return &MessageError{Message: fmt.Sprintf(format, args...)}
}

func apiMessage(apiErr *apiclient.APIError) string {
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return MessageSessionExpired
	case apiErr.Message != "":
		return apiErr.Message
	case apiErr.StatusCode == http.StatusForbidden:
		return MessageForbidden
	case apiErr.StatusCode == http.StatusNotFound:
		return MessageNotFound
	case apiErr.StatusCode >= 500:
		return MessageServer
	default:
		return MessageNetwork
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fieldMessage(fe))
	}
	return strings.Join(messages, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
