package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var DefaultAllowedOrigins = []string{
	"https://fitwise.app",
	"https://www.fitwise.app",
	"http://localhost:3000",
	"http://localhost:8080",
}

// native clients and tooling don't send an Origin
var allowedUserAgentPrefixes = []string{
	"FitWise/1",
	"curl/",
	"test-agent",
}

const (
	corsAllowedHeaders = "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-FITWISE-TOKEN, " + RequestIDHeader
	corsAllowedMethods = "POST, GET, OPTIONS, PUT, PATCH, DELETE"
)

// Cors rejects requests with 403 unless they come from one of the allowed
// origins or from a known client user agent. No origins means DefaultAllowedOrigins.
func Cors(origins ...string) func(next http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}
	allowedOrigins := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowedOrigins[strings.TrimSuffix(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, originAllowed := allowedOrigins[origin]
			if !originAllowed && !hasAllowedUserAgent(r.Header.Get("User-Agent")) {
				log.Warnf("cors: rejected origin [%s] for path [%s]", origin, r.URL.Path)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			next.ServeHTTP(w, r)
		})
	}
}

func hasAllowedUserAgent(userAgent string) bool {
	for _, prefix := range allowedUserAgentPrefixes {
		if strings.HasPrefix(userAgent, prefix) {
			return true
		}
	}
	return false
}
