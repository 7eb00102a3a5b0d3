package misc

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is a dependency the health check pings, e.g. the db pool or redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type Handler struct {
	versionInfo  string
	dependencies map[string]Pinger
}

func NewHandler(versionInfo string, dependencies map[string]Pinger) *Handler {
	return &Handler{
		versionInfo:  versionInfo,
		dependencies: dependencies,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

// handleHealth pings every dependency, answering 503 if any of them fails.
func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(handler.dependencies))
	for name, dep := range handler.dependencies {
		if err := dep.Ping(ctx); err != nil {
			log.Errorf("health check, ping %s: %s", name, err)
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	pkg.WriteJSON(w, results, status)
}
