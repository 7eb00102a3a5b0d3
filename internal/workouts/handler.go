package workouts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/2beens/fitwise/internal/auth"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type service interface {
	AddTrainingStart(ctx context.Context, userID int, ts TrainingStart) (int, error)
	AddTrainingFinish(ctx context.Context, userID int, tf TrainingFinish) (int, error)
	AddWeightReport(ctx context.Context, userID int, wr WeightReport) (int, error)
	List(ctx context.Context, params ListParams) ([]*Event, int, error)
}

type ListResponse struct {
	Events []*Event `json:"events"`
	Total  int      `json:"total"`
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/start", h.HandleTrainingStart).Methods("POST", "OPTIONS").Name("workouts-start")
	router.HandleFunc("/finish", h.HandleTrainingFinish).Methods("POST", "OPTIONS").Name("workouts-finish")
	router.HandleFunc("/weight", h.HandleWeightReport).Methods("POST", "OPTIONS").Name("workouts-weight")
	router.HandleFunc("/list/page/{page}/size/{size}", h.HandleList).Methods("GET", "OPTIONS").Name("workouts-list")
}

func (h *Handler) HandleTrainingStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new.trainingstart")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var trainingStart TrainingStart
	if !decodeJSONBody(w, r, &trainingStart, "training start") {
		return
	}

	id, err := h.service.AddTrainingStart(ctx, userID, trainingStart)
	if err != nil {
		log.Errorf("new training start: %s", err)
		http.Error(w, "add training start failed", http.StatusInternalServerError)
		return
	}
	trainingStart.ID = id

	pkg.WriteJSON(w, trainingStart, http.StatusCreated)
}

func (h *Handler) HandleTrainingFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new.trainingfinish")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var trainingFinish TrainingFinish
	if !decodeJSONBody(w, r, &trainingFinish, "training finish") {
		return
	}

	id, err := h.service.AddTrainingFinish(ctx, userID, trainingFinish)
	if err != nil {
		log.Errorf("new training finish: %s", err)
		http.Error(w, "add training finish failed", http.StatusInternalServerError)
		return
	}
	trainingFinish.ID = id

	pkg.WriteJSON(w, trainingFinish, http.StatusCreated)
}

func (h *Handler) HandleWeightReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new.weightreport")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var weightReport WeightReport
	if !decodeJSONBody(w, r, &weightReport, "weight report") {
		return
	}

	id, err := h.service.AddWeightReport(ctx, userID, weightReport)
	if err != nil {
		log.Errorf("new weight report: %s", err)
		http.Error(w, "add weight report failed", http.StatusInternalServerError)
		return
	}
	weightReport.ID = id

	pkg.WriteJSON(w, weightReport, http.StatusCreated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil || page < 1 {
		http.Error(w, "invalid <page> param", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil || size < 1 || size > 500 {
		http.Error(w, "invalid <size> param", http.StatusBadRequest)
		return
	}

	params := ListParams{
		EventParams: EventParams{UserID: userID},
		Page:        page,
		Size:        size,
	}
	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		eventType := EventType(typeStr)
		if !eventType.IsValid() {
			http.Error(w, "invalid <type> param", http.StatusBadRequest)
			return
		}
		params.Type = &eventType
	}

	events, total, err := h.service.List(ctx, params)
	if err != nil {
		log.Errorf("list workout events: %s", err)
		http.Error(w, "failed to list workout events", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, ListResponse{Events: events, Total: total}, http.StatusOK)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, what string) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Errorf("new %s, unmarshal json params: %s", what, err)
		http.Error(w, "add "+what+" failed", http.StatusBadRequest)
		return false
	}

	if err := pkg.ValidateStruct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
