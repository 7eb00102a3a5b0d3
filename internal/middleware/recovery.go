package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/fitwise/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a panicking handler into a 500. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(recovered)
				}

				requestID := RequestIDFromContext(r.Context())
				log.WithFields(log.Fields{
					"request_id": requestID,
					"method":     r.Method,
					"path":       r.URL.Path,
				}).Errorf("panic serving request: %v\n%s", recovered, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
