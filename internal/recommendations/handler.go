package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/2beens/fitwise/internal/auth"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxQueryBodyBytes = 4 * 1024

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=recommendations_test

type service interface {
	List(ctx context.Context, userID int, raw RawQuery) ([]Recommendation, RecommendationQuery, error)
	MarkRead(ctx context.Context, userID, id int, isRead bool) error
	Generate(ctx context.Context, userID int) ([]Recommendation, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
}

type ListResponse struct {
	Recommendations []Recommendation    `json:"recommendations"`
	Query           RecommendationQuery `json:"query"`
}

type MarkReadRequest struct {
	IsRead *bool `json:"isRead"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("recommendations-list")
	router.HandleFunc("/query", handler.HandleQuery).Methods("POST", "OPTIONS").Name("recommendations-query")
	router.HandleFunc("/generate", handler.HandleGenerate).Methods("POST", "OPTIONS").Name("recommendations-generate")
	router.HandleFunc("/unread/count", handler.HandleUnreadCount).Methods("GET", "OPTIONS").Name("recommendations-unread-count")
	router.HandleFunc("/{id}/read", handler.HandleMarkRead).Methods("PATCH", "OPTIONS").Name("recommendations-mark-read")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommendations.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.list(ctx, w, userID, RawQueryFromValues(r.URL.Query()))
}

// HandleQuery is HandleList with the parameters in a JSON body, where isRead and
// limit can also be sent as a bool and a number.
func (handler *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommendations.query")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxQueryBodyBytes))
	if err != nil {
		log.Errorf("recommendations query, read body: %s", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	raw, err := RawQueryFromJSON(body)
	if err != nil {
		log.Tracef("recommendations query: %s", err)
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}

	handler.list(ctx, w, userID, raw)
}

func (handler *Handler) list(ctx context.Context, w http.ResponseWriter, userID int, raw RawQuery) {
	recs, q, err := handler.service.List(ctx, userID, raw)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			pkg.WriteJSON(w, validationErr, http.StatusBadRequest)
			return
		}
		log.Errorf("list recommendations for user %d: %s", userID, err)
		http.Error(w, "failed to get recommendations", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, ListResponse{
		Recommendations: recs,
		Query:           q,
	}, http.StatusOK)
}

func (handler *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommendations.markRead")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsRead == nil {
		http.Error(w, "isRead must be a boolean", http.StatusBadRequest)
		return
	}

	if err := handler.service.MarkRead(ctx, userID, id, *req.IsRead); err != nil {
		if errors.Is(err, ErrRecommendationNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Errorf("mark recommendation %d read: %s", id, err)
		http.Error(w, "failed to update recommendation", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, map[string]any{"id": id, "isRead": *req.IsRead}, http.StatusOK)
}

func (handler *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommendations.generate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	recs, err := handler.service.Generate(ctx, userID)
	if err != nil {
		log.Errorf("generate recommendations for user %d: %s", userID, err)
		http.Error(w, "failed to generate recommendations", http.StatusInternalServerError)
		return
	}

	log.Debugf("generated %d recommendations for user %d", len(recs), userID)
	pkg.WriteJSON(w, recs, http.StatusCreated)
}

func (handler *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommendations.unreadCount")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	count, err := handler.service.UnreadCount(ctx, userID)
	if err != nil {
		log.Errorf("count unread recommendations for user %d: %s", userID, err)
		http.Error(w, "failed to count recommendations", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, UnreadCountResponse{Unread: count}, http.StatusOK)
}
