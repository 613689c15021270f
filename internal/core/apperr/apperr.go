// Package apperr mendefinisikan taksonomi error aplikasi dan pemetaannya ke status HTTP.
package apperr

import (
	"errors"
	"net/http"
)

// Kind adalah kategori error.
type Kind string

const (
	Validation    Kind = "validation"
	Unauthorized  Kind = "unauthorized"
	NotFound      Kind = "not_found"
	Conflict      Kind = "conflict"
	Upstream      Kind = "upstream"
	Configuration Kind = "configuration"
	Storage       Kind = "storage"
)

// Error membawa Kind, pesan yang aman untuk user, dan error asal (hanya untuk log).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New membuat Error tanpa penyebab.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap membuat Error dengan penyebab err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf mengembalikan Kind dari error terluar bertipe *Error, atau "" jika tidak ada.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message mengembalikan pesan aman dari err, atau fallback jika err bukan *Error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// HTTPStatus memetakan Kind ke status default.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation, Conflict:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
