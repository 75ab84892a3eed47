// Package apperr defines the application error taxonomy and the centralized
// handler that turns failures into user-facing fallback messages.
package apperr

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewUserInputError marks input the user can fix on retry. The flow stays at
// the current step.
func NewUserInputError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Неверный формат данных. %s", msg),
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       nil,
	}
}

// NewNotFoundError marks a lookup miss that should surface as a "no results"
// reply with a recovery keyboard.
func NewNotFoundError(what string, cause error) *AppError {
	return &AppError{
		Code:        "E110",
		Message:     fmt.Sprintf("%s not found", what),
		UserMessage: "Ничего не нашлось. Попробуйте другой запрос",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewUpstreamError wraps a network or parse failure from an external client.
func NewUpstreamError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("upstream error: %s", apiName),
		UserMessage: "Сервис временно недоступен",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewFlowError marks a programming error in the conversation machinery
// (step overflow, transfer to an unregistered flow, malformed directive).
// Fatal to the current dispatch only.
func NewFlowError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "Что-то пошло не так. Напишите «Начать», чтобы продолжить",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       nil,
	}
}

// NewRateLimitError reports that the user exceeded the inbound message limit.
func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Слишком много запросов. Попробуйте через %d секунд", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
