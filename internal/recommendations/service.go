package recommendations

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/fitwise/internal/cache"
	"github.com/2beens/fitwise/internal/telemetry/metrics"
	"github.com/2beens/fitwise/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const unreadCountTTL = 5 * time.Minute

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=recommendations

type recommendationsRepo interface {
	Add(ctx context.Context, rec Recommendation) (*Recommendation, error)
	List(ctx context.Context, userID int, q RecommendationQuery) ([]Recommendation, error)
	MarkRead(ctx context.Context, userID, id int, isRead bool) error
	CountUnread(ctx context.Context, userID int) (int, error)
}

type summarizer interface {
	Summarize(ctx context.Context, userID int, now time.Time) (*TrainingSummary, error)
}

type Service struct {
	repo           recommendationsRepo
	summarizer     summarizer
	advisors       []Advisor
	unreadCache    cache.Cache
	metricsManager *metrics.Manager
	now            func() time.Time
}

// NewService creates the recommendations service. Advisors are asked in order,
// the first one that does not fail wins.
func NewService(
	repo recommendationsRepo,
	summarizer summarizer,
	unreadCache cache.Cache,
	metricsManager *metrics.Manager,
	advisors ...Advisor,
) *Service {
	return &Service{
		repo:           repo,
		summarizer:     summarizer,
		advisors:       advisors,
		unreadCache:    unreadCache,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// List normalizes the raw query and lists the user's recommendations.
// A *ValidationError is returned as is for invalid queries.
func (s *Service) List(ctx context.Context, userID int, raw RawQuery) (_ []Recommendation, _ RecommendationQuery, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.recommendations.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	q, err := NormalizeQuery(raw)
	if err != nil {
		return nil, RecommendationQuery{}, err
	}

	recs, err := s.repo.List(ctx, userID, q)
	if err != nil {
		return nil, q, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, q, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id int, isRead bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.recommendations.markRead")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.repo.MarkRead(ctx, userID, id, isRead); err != nil {
		return err
	}
	s.unreadCache.Del(unreadCountKey(userID))
	return nil
}

// Generate builds a training summary for the user, asks the advisors and stores
// the new recommendations. Drafts with the same title as an existing unread
// recommendation are skipped.
func (s *Service) Generate(ctx context.Context, userID int) (_ []Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.recommendations.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := s.now()
	summary, err := s.summarizer.Summarize(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	drafts, err := s.advise(ctx, *summary)
	if err != nil {
		return nil, err
	}

	isRead := false
	unread, err := s.repo.List(ctx, userID, RecommendationQuery{IsRead: &isRead, Limit: MaxLimit})
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	unreadTitles := make(map[string]bool, len(unread))
	for _, rec := range unread {
		unreadTitles[rec.Title] = true
	}

	added := make([]Recommendation, 0, len(drafts))
	for _, draft := range drafts {
		if unreadTitles[draft.Title] {
			continue
		}
		unreadTitles[draft.Title] = true

		draft.UserID = userID
		draft.IsRead = false
		draft.CreatedAt = now
		rec, err := s.repo.Add(ctx, draft)
		if err != nil {
			return nil, fmt.Errorf("add recommendation: %w", err)
		}
		added = append(added, *rec)
	}

	span.SetAttributes(attribute.Int("generated", len(added)))
	if len(added) > 0 {
		s.unreadCache.Del(unreadCountKey(userID))
		s.metricsManager.CounterRecommendationsGenerated.Add(float64(len(added)))
	}

	return added, nil
}

func (s *Service) advise(ctx context.Context, summary TrainingSummary) ([]Recommendation, error) {
	var lastErr error
	for _, advisor := range s.advisors {
		drafts, err := advisor.Advise(ctx, summary)
		if err != nil {
			log.Warnf("advisor %s failed, trying next: %s", advisor.Name(), err)
			lastErr = err
			continue
		}
		return drafts, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all advisors failed: %w", lastErr)
	}
	return nil, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.recommendations.unreadCount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := unreadCountKey(userID)
	if cached, found := s.unreadCache.Get(key); found {
		if count, err := strconv.Atoi(string(cached)); err == nil {
			span.SetAttributes(attribute.Bool("cached", true))
			return count, nil
		}
		log.Errorf("invalid cached unread count for user %d: %q", userID, cached)
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.unreadCache.Set(key, []byte(strconv.Itoa(count)), unreadCountTTL); err != nil {
		log.Errorf("cache unread count for user %d: %s", userID, err)
	}
	return count, nil
}

func unreadCountKey(userID int) string {
	return fmt.Sprintf("recommendations::unread::%d", userID)
}
