package httputil

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"strconv"
	"time"
)

const HeaderRequestID = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID returns a correlation id of the form req_<base36 millis><base36 random>.
func NewRequestID() string {
	var b [8]byte
	rand.Read(b[:])
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(b[:])%(36*36*36*36*36*36), 36)
	for len(suffix) < 6 {
		suffix = "0" + suffix
	}
	return "req_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + suffix
}

// ContextWithRequestID stores the correlation id in ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID assigns a correlation id at handler entry. An incoming
// X-Request-ID header is honoured so callers can thread their own.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = NewRequestID()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), reqID)))
	})
}
