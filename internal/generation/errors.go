package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/af-corp/tourdesk/internal/llm"
	"github.com/af-corp/tourdesk/internal/schema"
	"github.com/af-corp/tourdesk/internal/store"
)

// Kind classifies a pipeline failure. Each kind has one HTTP status.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindRateLimited
	KindUpstreamEmpty
	KindUpstreamMalformed
	KindUpstreamSchema
	KindUpstreamTimeout
	KindUpstreamUnavailable
	KindNotFound
	KindDuplicate
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamEmpty:
		return "upstream_empty"
	case KindUpstreamMalformed:
		return "upstream_malformed"
	case KindUpstreamSchema:
		return "upstream_schema"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamEmpty:
		return http.StatusInternalServerError
	case KindUpstreamMalformed, KindUpstreamSchema, KindUpstreamUnavailable:
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure every pipeline step returns.
type Error struct {
	Kind    Kind
	Message string
	Issues  []schema.Issue
	// Preview is a truncated copy of the generator text, for 502s.
	Preview string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify turns any error into an *Error. Errors that are already typed
// pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}

	var persistErr *store.PersistenceError
	var upstreamErr *llm.UpstreamError
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindDuplicate, Message: "A record with the same unique value already exists", Err: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "Record not found", Err: err}
	case errors.As(err, &persistErr):
		return &Error{Kind: KindPersistence, Message: "Database is temporarily unavailable", Err: err}
	case errors.Is(err, llm.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUpstreamTimeout, Message: "AI service did not respond in time", Err: err}
	case errors.Is(err, llm.ErrNoProvider), errors.As(err, &upstreamErr):
		return &Error{Kind: KindUpstreamUnavailable, Message: "AI service is unavailable", Err: err}
	default:
		return &Error{Kind: KindUnknown, Message: "Internal server error", Err: err}
	}
}
