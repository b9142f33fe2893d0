// Package apierr implements the error taxonomy shared by every pipeline
// stage and HTTP handler: a small set of kinds (not types) that the
// handlers map onto HTTP status codes, per spec §7.
package apierr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is one of the taxonomy buckets from §7. It is never compared
// directly by callers outside this package; use Is/KindOf instead.
type Kind string

const (
	// KindNotFound is an entity id/path missing from the catalog.
	KindNotFound Kind = "not_found"
	// KindConflict is a concurrent-operation refusal (scan already running,
	// read-only file on permanent delete, clear-while-scanning).
	KindConflict Kind = "conflict"
	// KindBadRequest is a malformed parameter (non-absolute path, rotation
	// not a 90° multiple, empty bulk list).
	KindBadRequest Kind = "bad_request"
	// KindUpstream is an external tool (ffmpeg/ffprobe) failure or timeout.
	KindUpstream Kind = "upstream"
	// KindStorage is a catalog or filesystem I/O failure.
	KindStorage Kind = "storage"
	// KindTransient is a dropped non-blocking enqueue; logged, not surfaced
	// to any caller as a hard failure — it exists so call sites can
	// recognize and count it distinctly from KindStorage.
	KindTransient Kind = "transient"
)

// apiError wraps an underlying cause with a taxonomy kind.
type apiError struct {
	kind Kind
	msg  string
	err  error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *apiError) Unwrap() error { return e.err }

// New creates a bare apierr of the given kind.
func New(kind Kind, msg string) error {
	return &apiError{kind: kind, msg: msg}
}

// Newf creates a bare apierr of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &apiError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error, preserving it as the cause
// via github.com/pkg/errors so %+v still prints a stack trace.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &apiError{kind: kind, msg: msg, err: errors.Wrap(err, msg)}
}

// KindOf returns the taxonomy kind of err, or KindStorage if err does not
// carry one — an unclassified error is treated as an opaque backend
// failure rather than silently becoming a 200.
func KindOf(err error) Kind {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.kind
	}
	return KindStorage
}

// Is reports whether err (or something it wraps) was constructed with kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// NotFound, Conflict, BadRequest, Upstream, Storage, Transient are the
// taxonomy constructors call sites reach for directly.
func NotFound(format string, args ...interface{}) error {
	return Newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return Newf(KindConflict, format, args...)
}

func BadRequest(format string, args ...interface{}) error {
	return Newf(KindBadRequest, format, args...)
}

func Upstream(format string, args ...interface{}) error {
	return Newf(KindUpstream, format, args...)
}

func Storage(format string, args ...interface{}) error {
	return Newf(KindStorage, format, args...)
}

// HTTPStatus maps a Kind to the status code §7 specifies.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	case KindStorage:
		return http.StatusInternalServerError
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor is a convenience wrapper: HTTPStatus(KindOf(err)).
func StatusFor(err error) int {
	return HTTPStatus(KindOf(err))
}
