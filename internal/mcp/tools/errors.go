package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/usestring/pairdiff/internal/engine"
	"github.com/usestring/pairdiff/internal/normalize"
	"github.com/usestring/pairdiff/pkg/types"
)

// Error codes for MCP tool responses.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeFetchError   = "FETCH_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeNotFound     = "NOT_FOUND"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// ErrorCode classifies err for tool output.
func ErrorCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	if isTimeout(err) {
		return ErrCodeTimeout
	}
	// An upstream answering with HTML or broken JSON is a fetch problem; a
	// filter that fails on the response is the caller's.
	switch {
	case errors.Is(err, types.ErrInvalidSpec),
		errors.Is(err, normalize.ErrInvalidFilter):
		return ErrCodeInvalidInput
	default:
		return ErrCodeFetchError
	}
}

// WrapError converts an engine or fetch error to a coded error.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	coded = &CodedError{Code: ErrorCode(err), Message: err.Error(), Cause: err}
	switch {
	case coded.Code == ErrCodeTimeout:
		coded.Message = "request timed out"
	case errors.Is(err, engine.ErrClosed):
		coded.Message = "server is shutting down"
	}

	slog.Warn("tool error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
