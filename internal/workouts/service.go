package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/metrics"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts

type eventsRepo interface {
	Add(ctx context.Context, event Event) (*Event, error)
	List(ctx context.Context, params ListParams) ([]*Event, error)
	Count(ctx context.Context, params EventParams) (int, error)
}

type Service struct {
	repo           eventsRepo
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(repo eventsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (s *Service) AddTrainingStart(ctx context.Context, userID int, ts TrainingStart) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.add.trainingstart")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.add(ctx, userID, ts)
}

func (s *Service) AddTrainingFinish(ctx context.Context, userID int, tf TrainingFinish) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.add.trainingfinish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.add(ctx, userID, tf)
}

func (s *Service) AddWeightReport(ctx context.Context, userID int, wr WeightReport) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.add.weightreport")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.add(ctx, userID, wr)
}

// add stores the report as an event, stamped with the current time when the
// client sent none.
func (s *Service) add(ctx context.Context, userID int, r report) (int, error) {
	event := r.toEvent(userID)
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	added, err := s.repo.Add(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("add %s event: %w", event.Type, err)
	}
	s.metricsManager.CounterWorkoutEvents.WithLabelValues(event.Type.String()).Inc()
	return added.ID, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (_ []*Event, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	total, err = s.repo.Count(ctx, params.EventParams)
	if err != nil {
		return nil, -1, err
	}

	events, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, -1, err
	}
	return events, total, nil
}

// TrainingsSince returns the user's training_started events since the given time.
func (s *Service) TrainingsSince(ctx context.Context, userID int, since time.Time) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.trainingsSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	started := EventTypeTrainingStarted
	return s.repo.Count(ctx, EventParams{
		UserID: userID,
		Type:   &started,
		From:   &since,
	})
}
