package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type ExerciseParams struct {
	UserID      int
	ExerciseID  string
	MuscleGroup string
	From        *time.Time
	To          *time.Time
}

type ListParams struct {
	ExerciseParams
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

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	metadataJson, err := marshalMetadata(exercise.Metadata)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercise
				(user_id, exercise_id, muscle_group, kilos, reps, metadata, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		exercise.UserID, exercise.ExerciseID, exercise.MuscleGroup, exercise.Kilos, exercise.Reps, metadataJson, exercise.CreatedAt,
	).Scan(&exercise.ID)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, fmt.Errorf("unknown user %d: %w", exercise.UserID, err)
		}
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))
	return &exercise, nil
}

func (r *Repo) Update(ctx context.Context, exercise *Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", exercise.ID))

	metadataJson, err := marshalMetadata(exercise.Metadata)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise
			SET exercise_id = $1, muscle_group = $2, kilos = $3, reps = $4, metadata = $5, created_at = $6
			WHERE id = $7 AND user_id = $8;`,
		exercise.ExerciseID, exercise.MuscleGroup, exercise.Kilos, exercise.Reps, metadataJson, exercise.CreatedAt,
		exercise.ID, exercise.UserID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_id, muscle_group, kilos, reps, metadata, created_at
			FROM exercise
			WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}

	return &exercises[0], nil
}

// ListAll returns all user's exercises matching the params, newest first.
func (r *Repo) ListAll(ctx context.Context, params ExerciseParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	setParamsAttributes(span, params)

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_id, muscle_group, kilos, reps, metadata, created_at
			FROM exercise
			WHERE user_id = $1
				AND ($2::text = '' OR exercise_id = $2)
				AND ($3::text = '' OR muscle_group = $3)
				AND ($4::timestamptz IS NULL OR created_at >= $4)
				AND ($5::timestamptz IS NULL OR created_at <= $5)
			ORDER BY created_at DESC;`,
		params.UserID, params.ExerciseID, params.MuscleGroup,
		params.From, params.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	return exercises, nil
}

// List is like ListAll, but it returns the specific page, together with the total count.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Exercise, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", params.Page))
	span.SetAttributes(attribute.Int("size", params.Size))
	setParamsAttributes(span, params.ExerciseParams)

	if params.Page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if params.Size < 1 {
		return nil, -1, errors.New("size must be greater than 0")
	}

	countAll, err := r.Count(ctx, params.ExerciseParams)
	if err != nil {
		return nil, -1, err
	}

	limit := params.Size
	offset := (params.Page - 1) * params.Size
	span.SetAttributes(attribute.Int("count_all", countAll))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_id, muscle_group, kilos, reps, metadata, created_at
			FROM exercise
			WHERE user_id = $1
				AND ($2::text = '' OR exercise_id = $2)
				AND ($3::text = '' OR muscle_group = $3)
				AND ($4::timestamptz IS NULL OR created_at >= $4)
				AND ($5::timestamptz IS NULL OR created_at <= $5)
			ORDER BY created_at DESC
			LIMIT $6
			OFFSET $7;`,
		params.UserID, params.ExerciseID, params.MuscleGroup,
		params.From, params.To,
		limit, offset,
	)
	if err != nil {
		return nil, -1, err
	}
	defer rows.Close()

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, -1, err
	}
	return exercises, countAll, nil
}

func (r *Repo) Count(ctx context.Context, params ExerciseParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM exercise
			WHERE user_id = $1
				AND ($2::text = '' OR exercise_id = $2)
				AND ($3::text = '' OR muscle_group = $3)
				AND ($4::timestamptz IS NULL OR created_at >= $4)
				AND ($5::timestamptz IS NULL OR created_at <= $5);`,
		params.UserID, params.ExerciseID, params.MuscleGroup,
		params.From, params.To,
	).Scan(&count)
	if err != nil {
		return -1, fmt.Errorf("count exercises: %w", err)
	}

	return count, nil
}

func setParamsAttributes(span trace.Span, params ExerciseParams) {
	span.SetAttributes(
		attribute.Int("user_id", params.UserID),
		attribute.String("exercise_id", params.ExerciseID),
		attribute.String("muscle_group", params.MuscleGroup),
	)
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJson, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return metadataJson, nil
}

func rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	exercises := make([]Exercise, 0)
	for rows.Next() {
		var e Exercise
		var metadataBytes []byte
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.ExerciseID, &e.MuscleGroup, &e.Kilos, &e.Reps, &metadataBytes, &e.CreatedAt,
		); err != nil {
			return nil, err
		}

		e.Metadata = make(map[string]string)
		if len(metadataBytes) > 0 {
			if err := json.Unmarshal(metadataBytes, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for exercise %d: %w", e.ID, err)
			}
		}

		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}
