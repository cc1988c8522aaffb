package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"market-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type MarketDashboardError struct {
	Message string
	Cause   error
}

func (e *MarketDashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *MarketDashboardError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ MarketDashboardError }
type NetworkError struct{ MarketDashboardError }
type ValidationError struct{ MarketDashboardError }
type StateError struct{ MarketDashboardError }

// BackendError is a non-2xx answer of the chart backend.
type BackendError struct {
	MarketDashboardError
	StatusCode int
}

func NewConfigurationError(msg string, cause error) *ConfigurationError {
	return &ConfigurationError{MarketDashboardError{Message: msg, Cause: cause}}
}

func NewNetworkError(msg string, cause error) *NetworkError {
	return &NetworkError{MarketDashboardError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string, cause error) *ValidationError {
	return &ValidationError{MarketDashboardError{Message: msg, Cause: cause}}
}

func NewStateError(msg string, cause error) *StateError {
	return &StateError{MarketDashboardError{Message: msg, Cause: cause}}
}

func NewBackendError(status int, msg string) *BackendError {
	return &BackendError{MarketDashboardError: MarketDashboardError{Message: msg}, StatusCode: status}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// -----------------------------------------------------------------------------
// Sentinels
// -----------------------------------------------------------------------------

var (
	// ErrStaleResult marks a fetch superseded by a newer request. Never shown to users.
	ErrStaleResult        = errors.New("stale result discarded")
	ErrUnknownRetracement = errors.New("unknown retracement")
	ErrUnknownEmaPeriod   = errors.New("ema period not configured")
	ErrUnknownGroup       = errors.New("unknown group")
)

// IsStale reports whether err is a superseded-fetch signal.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResult)
}

// UserMessage renders err as the message a dashboard user should see.
func UserMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		if be.Message != "" {
			return be.Message
		}
		return fmt.Sprintf("HTTP error! status: %d", be.StatusCode)
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return "Network error: " + ne.Message
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with
// exponential backoff. Waiting stops as soon as ctx is done.
func RetryWithBackoff(ctx context.Context, operation string, maxRetries int, baseDelay time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 || !Retryable(err) {
			break
		}

		delay := baseDelay * (1 << attempt)
		retryLogger.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

var retryLogger = logger.NewLogger(nil, "Retry")

// Retryable reports whether another attempt could succeed. Cancellation and
// 4xx backend answers are final.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode >= 500
	}
	return true
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger                 *logger.Logger
	ErrorCount             int
	MaxErrorsBeforeRestart int
}

func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		Logger:                 logger.NewLogger(nil, "ErrorHandler"),
		ErrorCount:             0,
		MaxErrorsBeforeRestart: 10,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// Classify wraps a failed operation into the matching error type.
func (e *ErrorHandler) Classify(operation string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	lowerOp := strings.ToLower(operation)
	msg := fmt.Sprintf("%s failed", operation)
	switch {
	case strings.Contains(lowerOp, "fetch") || strings.Contains(lowerOp, "network"):
		return NewNetworkError(msg, err)
	case strings.Contains(lowerOp, "config"):
		return NewConfigurationError(msg, err)
	default:
		return &MarketDashboardError{Message: msg, Cause: err}
	}
}

// -----------------------------------------------------------------------------

// Handle logs err unless it is a stale-result signal.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	if IsStale(err) {
		e.Logger.Debug("Discarded stale result in %s", context)
		return
	}
	e.ErrorCount++
	e.Logger.Error("Error in %s: %v", context, err)
}
