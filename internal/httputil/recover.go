package httputil

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a panic into a 500 carrying the request id, so no
// failure reaches the client as a dropped connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			reqID := RequestIDFromContext(r.Context())
			slog.Error("panic recovered",
				"request_id", reqID,
				"error", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			WriteInternalError(w, reqID, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
