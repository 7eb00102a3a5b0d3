package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitwise/internal/auth"
	"github.com/2beens/fitwise/internal/telemetry/metrics"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, userID, id int) (*Exercise, error)
	List(ctx context.Context, params ListParams) (_ []Exercise, total int, err error)
	ListAll(ctx context.Context, params ExerciseParams) (_ []Exercise, err error)
	Update(ctx context.Context, exercise *Exercise) error
	Delete(ctx context.Context, userID, id int) error
}

type DeleteExerciseResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdateExerciseResponse struct {
	UpdatedID int `json:"updatedId"`
}

type AddExerciseResponse struct {
	Exercise
	CountToday int `json:"countToday"`
}

type ListResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
}

type Handler struct {
	repo           exercisesRepo
	analyzer       *Analyzer
	metricsManager *metrics.Manager
}

func NewHandler(repo exercisesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		analyzer:       NewAnalyzer(repo),
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("exercises-add")
	router.HandleFunc("", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("exercises-update")
	router.HandleFunc("/percentages", handler.HandlePercentages).Methods("GET", "OPTIONS").Name("exercises-percentages")
	router.HandleFunc("/history/{exid}", handler.HandleHistory).Methods("GET", "OPTIONS").Name("exercises-history")
	router.HandleFunc("/list/page/{page}/size/{size}", handler.HandleList).Methods("GET", "OPTIONS").Name("exercises-list")
	router.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("exercises-get")
	router.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("exercises-delete")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.new")
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

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Tracef("new exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	if err := pkg.ValidateStruct(exercise); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exercise.UserID = userID
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = time.Now()
	}

	addedExercise, err := handler.repo.Add(ctx, exercise)
	if err != nil {
		log.Errorf("failed to add new exercise [%s], [%s]: %s", exercise.MuscleGroup, exercise.ExerciseID, err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}
	handler.metricsManager.CounterExercises.Inc()

	todayMidnight := time.Now().UTC().Truncate(24 * time.Hour)
	tomorrowMidnight := todayMidnight.Add(24 * time.Hour)
	exercisesToday, err := handler.repo.ListAll(ctx, ExerciseParams{
		UserID:      userID,
		ExerciseID:  addedExercise.ExerciseID,
		MuscleGroup: addedExercise.MuscleGroup,
		From:        &todayMidnight,
		To:          &tomorrowMidnight,
	})
	if err != nil {
		// just log the error, no need to return error to the client
		log.Errorf("failed to get exercises today [%s] [%s]: %s", addedExercise.ExerciseID, addedExercise.MuscleGroup, err)
	}

	log.Debugf("new exercise added: %d", addedExercise.ID)
	pkg.WriteJSON(w, AddExerciseResponse{
		Exercise:   *addedExercise,
		CountToday: len(exercisesToday),
	}, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	e, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, e, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete exercise %d: %s", id, err)
		http.Error(w, "exercise not deleted", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, DeleteExerciseResponse{DeletedID: id}, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
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

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}

	if err := pkg.ValidateStruct(exercise); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exercise.UserID = userID
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = time.Now()
	}

	if err := handler.repo.Update(ctx, &exercise); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update exercise [%d], [%s]: %s", exercise.ID, exercise.ExerciseID, err)
		http.Error(w, "error, failed to update exercise", http.StatusInternalServerError)
		return
	}

	log.Debugf("exercise updated: [%s] [%s]: %d", exercise.MuscleGroup, exercise.ExerciseID, exercise.ID)
	pkg.WriteJSON(w, UpdateExerciseResponse{UpdatedID: exercise.ID}, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		log.Tracef("handle get exercises page, from <page> param: %s", err)
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		log.Tracef("handle get exercises page, from <size> param: %s", err)
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}

	if page < 1 {
		http.Error(w, "invalid page (has to be non-zero value)", http.StatusBadRequest)
		return
	}
	if size < 1 || size > 500 {
		http.Error(w, "invalid size (has to be between 1 and 500)", http.StatusBadRequest)
		return
	}

	exerciseParams, err := exerciseParamsFromQuery(r, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exercises, total, err := handler.repo.List(ctx, ListParams{
		ExerciseParams: exerciseParams,
		Page:           page,
		Size:           size,
	})
	if err != nil {
		log.Errorf("list exercises error: %s", err)
		http.Error(w, "failed to get exercises", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, ListResponse{
		Exercises: exercises,
		Total:     total,
	}, http.StatusOK)
}

func (handler *Handler) HandlePercentages(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.percentages")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseParams, err := exerciseParamsFromQuery(r, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	shares, err := handler.analyzer.MuscleGroupPercentages(ctx, exerciseParams)
	if err != nil {
		log.Errorf("failed to get muscle group percentages: %s", err)
		http.Error(w, "failed to get muscle group percentages", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, shares, http.StatusOK)
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.history")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseParams, err := exerciseParamsFromQuery(r, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	exerciseParams.ExerciseID = mux.Vars(r)["exid"]

	history, err := handler.analyzer.ExerciseHistory(ctx, exerciseParams)
	if err != nil {
		log.Errorf("failed to get exercise history [%s]: %s", exerciseParams.ExerciseID, err)
		http.Error(w, "failed to get exercise history", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, history, http.StatusOK)
}

// exerciseParamsFromQuery reads the optional group, exercise_id, from and to (RFC 3339) filters.
func exerciseParamsFromQuery(r *http.Request, userID int) (ExerciseParams, error) {
	query := r.URL.Query()
	params := ExerciseParams{
		UserID:      userID,
		MuscleGroup: query.Get("group"),
		ExerciseID:  query.Get("exercise_id"),
	}

	if fromStr := query.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return ExerciseParams{}, errors.New("invalid <from> param")
		}
		params.From = &from
	}
	if toStr := query.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return ExerciseParams{}, errors.New("invalid <to> param")
		}
		params.To = &to
	}

	return params, nil
}
