package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogRequest logs every served request at debug level, once the handler is done.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !log.IsLevelEnabled(log.DebugLevel) {
				next.ServeHTTP(w, r)
				return
			}

			begin := time.Now()
			resp := &responseWriter{w, http.StatusOK}
			next.ServeHTTP(resp, r)

			log.WithFields(log.Fields{
				"request_id":  RequestIDFromContext(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"user_agent":  r.Header.Get("User-Agent"),
				"status":      resp.statusCode,
				"duration_ms": time.Since(begin).Milliseconds(),
			}).Debug("request")
		})
	}
}
