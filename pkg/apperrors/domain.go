package apperrors

import (
	"net/http"
)

// ErrNotFound converts a repository "not found" error into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func NotFound(domain, message string) *AppError {
	return New(CodeNotFound, domain, message, http.StatusNotFound)
}

func Conflict(domain, message string) *AppError {
	return New(CodeConflict, domain, message, http.StatusConflict)
}

func Forbidden(domain, message string) *AppError {
	return New(CodeForbidden, domain, message, http.StatusForbidden)
}

func Validation(domain, message string) *AppError {
	return New(CodeValidationFailed, domain, message, http.StatusBadRequest)
}

// PaymentFailed is returned when the wallet/payment collaborator declines a transfer.
func PaymentFailed(reason string) *AppError {
	return New(CodePaymentFailed, "payment", "Payment was not completed", http.StatusPaymentRequired).
		WithDetails(map[string]string{"reason": reason})
}

func ExternalServiceError(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusBadGateway)
}

// --- Subscriptions ---

var ErrSelfSubscription = New(
	CodeValidationFailed,
	"subscription",
	"Cannot subscribe to yourself",
	http.StatusBadRequest,
)

var ErrAlreadySubscribed = New(
	CodeConflict,
	"subscription",
	"already subscribed",
	http.StatusConflict,
)

var ErrInvalidAmount = New(
	CodeValidationFailed,
	"subscription",
	"Amount must be greater than zero",
	http.StatusBadRequest,
)

var ErrInvalidSubscriptionType = New(
	CodeValidationFailed,
	"subscription",
	"Subscription type must be one of: monthly, yearly, one_time",
	http.StatusBadRequest,
)

var ErrNotSubscriptionOwner = New(
	CodeForbidden,
	"subscription",
	"Only the subscriber can manage this subscription",
	http.StatusForbidden,
)

// --- Content ---

var ErrNotContentOwner = New(
	CodeForbidden,
	"content",
	"Only the owner can modify this content",
	http.StatusForbidden,
)

var ErrInvalidContentKind = New(
	CodeValidationFailed,
	"content",
	"Content kind must be one of: article, video, audio",
	http.StatusBadRequest,
)

var ErrFileTooLarge = New(
	CodeValidationFailed,
	"upload",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"upload",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

// --- Auth ---

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)
