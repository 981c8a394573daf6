package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors (timeouts, connection failures, bad status)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePersistence represents storage-layer errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeAlert represents alert-evaluation errors
	ErrorTypeAlert ErrorType = "alert"
	// ErrorTypeNotification represents notification-dispatch errors
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// TrackerError represents a typed error raised by a tracker component
type TrackerError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *TrackerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *TrackerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeRateLimit:
		return false
	case ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// New creates a new TrackerError
func New(errType ErrorType, component, message string, err error) *TrackerError {
	return &TrackerError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *TrackerError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *TrackerError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *TrackerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(component, message string, err error) *TrackerError {
	return New(ErrorTypePersistence, component, message, err)
}

// NewAlert creates a new alert-evaluation error
func NewAlert(component, message string, err error) *TrackerError {
	return New(ErrorTypeAlert, component, message, err)
}

// NewNotification creates a new notification error
func NewNotification(component, message string, err error) *TrackerError {
	return New(ErrorTypeNotification, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *TrackerError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *TrackerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// Classify returns the error type of err, or "unknown" for untyped errors
func Classify(err error) string {
	var te *TrackerError
	if errors.As(err, &te) {
		return string(te.Type)
	}
	return "unknown"
}
