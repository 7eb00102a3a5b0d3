package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout event not found")

type EventParams struct {
	UserID int
	Type   *EventType
	From   *time.Time
	To     *time.Time
}

type ListParams struct {
	EventParams
	Page int
	Size int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, event Event) (_ *Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("type", event.Type.String()))

	if event.Data == nil {
		event.Data = map[string]string{}
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO workout_event (user_id, type, data, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;`,
		event.UserID,
		event.Type,
		event.Data,
		event.Timestamp,
	).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("insert workout event: %w", err)
	}
	return &event, nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	event := &Event{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, user_id, type, data, created_at
			FROM workout_event
			WHERE id = $1 AND user_id = $2;`,
			id, userID,
		).
		Scan(&event.ID, &event.UserID, &event.Type, &event.Data, &event.Timestamp)
	if err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return event, nil
}

// List returns the requested page of user's events, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []*Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", params.UserID))
	if params.Type != nil {
		span.SetAttributes(attribute.String("type", params.Type.String()))
	}
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	if params.Page < 1 || params.Size < 1 {
		return nil, errors.New("page and size must be greater than 0")
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, data, created_at
		FROM workout_event
		WHERE user_id = $1
		  AND ($2::text IS NULL OR type = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6;`,
		params.UserID,
		params.Type,
		params.From, params.To,
		params.Size, params.Size*(params.Page-1),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		event := &Event{}
		if err := rows.Scan(&event.ID, &event.UserID, &event.Type, &event.Data, &event.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *Repo) Count(ctx context.Context, params EventParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM workout_event
		WHERE user_id = $1
		  AND ($2::text IS NULL OR type = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4);`,
		params.UserID,
		params.Type,
		params.From, params.To,
	).Scan(&count)
	if err != nil {
		return -1, fmt.Errorf("count workout events: %w", err)
	}

	return count, nil
}
