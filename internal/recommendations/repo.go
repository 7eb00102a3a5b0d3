package recommendations

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitwise/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrRecommendationNotFound = errors.New("recommendation not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, rec Recommendation) (_ *Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recommendations.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO recommendation (user_id, title, content, category, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;`,
		rec.UserID, rec.Title, rec.Content, rec.Category, rec.IsRead, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}

	span.SetAttributes(attribute.Int("recommendation.id", rec.ID))
	return &rec, nil
}

// List returns the user's recommendations, newest first, filtered by read status
// when q.IsRead is set.
func (r *Repo) List(ctx context.Context, userID int, q RecommendationQuery) (_ []Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recommendations.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))
	span.SetAttributes(attribute.Int("limit", q.PageSize()))
	if q.IsRead != nil {
		span.SetAttributes(attribute.Bool("is_read", *q.IsRead))
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, title, content, category, is_read, created_at
			FROM recommendation
			WHERE user_id = $1
				AND ($2::boolean IS NULL OR is_read = $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3;`,
		userID, q.IsRead, q.PageSize(),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	recs := make([]Recommendation, 0)
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Title, &rec.Content, &rec.Category, &rec.IsRead, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

func (r *Repo) MarkRead(ctx context.Context, userID, id int, isRead bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recommendations.markRead")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE recommendation SET is_read = $1 WHERE id = $2 AND user_id = $3;`,
		isRead, id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecommendationNotFound
	}
	return nil
}

func (r *Repo) CountUnread(ctx context.Context, userID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recommendations.countUnread")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM recommendation WHERE user_id = $1 AND is_read = FALSE;`,
		userID,
	).Scan(&count)
	if err != nil {
		return -1, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
