package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/af-corp/tourdesk/internal/httputil"
	"github.com/af-corp/tourdesk/internal/telemetry"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"
)

// ClientKey derives the limiter key from the request's remote address.
// chi's RealIP middleware has already replaced RemoteAddr with the
// forwarded client address when one is present.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware returns chi middleware that enforces the per-client limit.
func Middleware(limiter Limiter, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := httputil.RequestIDFromContext(r.Context())
			client := ClientKey(r)

			result := limiter.Check(r.Context(), client)

			// Always set rate limit headers
			w.Header().Set(headerRateLimitLimit, strconv.FormatInt(result.Limit, 10))
			w.Header().Set(headerRateLimitRemaining, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"client", client,
					"limit", result.Limit,
					"path", r.URL.Path,
				)
				if metrics != nil {
					metrics.RecordRateLimitHit()
				}
				retry := int(math.Ceil(result.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set(headerRetryAfter, strconv.Itoa(retry))
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Too many requests. Please try again in %d seconds.", retry))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
