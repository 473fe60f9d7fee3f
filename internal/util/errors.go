package util

import (
	"errors"
	"fmt"
)

// ValidationError 用户输入不合法，指明出错字段，调用方修正后可重试
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrPlanNotFound     = errors.New("no plan found for the given date")
	ErrFeedbackNotFound = errors.New("no feedback found for the given date")
	ErrDeadlineNotFound = errors.New("deadline not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTrackingNotFound = errors.New("tracking record not found")

	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrSessionAlreadyOpen = errors.New("an open tracking session already exists, clock out first")
	ErrSessionClosed      = errors.New("tracking session already clocked out")

	// ErrModelsNotTrained 预测模型制品缺失或未加载
	ErrModelsNotTrained = errors.New("prediction models not trained, run training first")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrFeedbackNotFound) ||
		errors.Is(err, ErrDeadlineNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTrackingNotFound)
}

func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelsNotTrained)
}
