// pkg/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Codes shared by every layer. Handlers map them to HTTP status codes.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeUpstream   = "upstream_error"
)

type E struct {
	Code    string
	Message string
	Err     error
}

func (e E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e E) Unwrap() error { return e.Err }

func Wrap(code, msg string, err error) error {
	return E{Code: code, Message: msg, Err: err}
}

func Validation(msg string) error { return E{Code: CodeValidation, Message: msg} }

func NotFound(msg string, err error) error { return Wrap(CodeNotFound, msg, err) }

func Conflict(msg string, err error) error { return Wrap(CodeConflict, msg, err) }

func Upstream(msg string, err error) error { return Wrap(CodeUpstream, msg, err) }

// As returns the first E in err's chain.
func As(err error) (E, bool) {
	var e E
	if stderrors.As(err, &e) {
		return e, true
	}
	return E{}, false
}

// CodeOf reports the code of err. Errors that never passed through this
// package are treated as upstream failures.
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUpstream
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// Message is the client-facing text: the E message when present, otherwise
// the raw error text.
func Message(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
