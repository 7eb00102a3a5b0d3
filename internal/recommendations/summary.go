package recommendations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/fitwise/internal/exercises"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
)

const (
	SummaryWindow   = 30 * 24 * time.Hour
	FrequencyWindow = 14 * 24 * time.Hour
	RecentWindow    = 7 * 24 * time.Hour
)

//go:generate mockgen -source=$GOFILE -destination=summary_mocks_test.go -package=recommendations

type exerciseHistory interface {
	ListAll(ctx context.Context, params exercises.ExerciseParams) ([]exercises.Exercise, error)
}

type trainingCounter interface {
	TrainingsSince(ctx context.Context, userID int, since time.Time) (int, error)
}

// TrainingSummary is what advisors get to look at: the last 30 days of sets
// and the number of trainings started in the last 14 days.
type TrainingSummary struct {
	UserID       int                          `json:"userId"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
	TotalSets    int                          `json:"totalSets"`
	MuscleGroups []exercises.MuscleGroupShare `json:"muscleGroups"`
	Progress     []ExerciseProgress           `json:"progress"`
	Trainings    int                          `json:"trainingsLast14Days"`
}

// ExerciseProgress compares the heaviest set of the last 7 days with the
// heaviest set before that, within the summary window.
type ExerciseProgress struct {
	ExerciseID       string `json:"exerciseId"`
	MuscleGroup      string `json:"muscleGroup"`
	Sets             int    `json:"sets"`
	RecentMaxKilos   int    `json:"recentMaxKilos"`
	PreviousMaxKilos int    `json:"previousMaxKilos"`
}

type Summarizer struct {
	exercises exerciseHistory
	trainings trainingCounter
}

func NewSummarizer(exercises exerciseHistory, trainings trainingCounter) *Summarizer {
	return &Summarizer{
		exercises: exercises,
		trainings: trainings,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, userID int, now time.Time) (_ *TrainingSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "summarizer.recommendations.summarize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	from := now.Add(-SummaryWindow)
	sets, err := s.exercises.ListAll(ctx, exercises.ExerciseParams{
		UserID: userID,
		From:   &from,
		To:     &now,
	})
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}

	trainings, err := s.trainings.TrainingsSince(ctx, userID, now.Add(-FrequencyWindow))
	if err != nil {
		return nil, fmt.Errorf("count trainings: %w", err)
	}

	return &TrainingSummary{
		UserID:       userID,
		GeneratedAt:  now,
		TotalSets:    len(sets),
		MuscleGroups: exercises.MuscleGroupShares(sets),
		Progress:     exerciseProgress(sets, now),
		Trainings:    trainings,
	}, nil
}

// exerciseProgress is sorted by set count (desc), then exercise id.
func exerciseProgress(sets []exercises.Exercise, now time.Time) []ExerciseProgress {
	recentFrom := now.Add(-RecentWindow)
	exID2progress := make(map[string]*ExerciseProgress)
	for _, ex := range sets {
		p, ok := exID2progress[ex.ExerciseID]
		if !ok {
			p = &ExerciseProgress{
				ExerciseID:  ex.ExerciseID,
				MuscleGroup: ex.MuscleGroup,
			}
			exID2progress[ex.ExerciseID] = p
		}
		p.Sets++
		if ex.CreatedAt.After(recentFrom) {
			p.RecentMaxKilos = max(p.RecentMaxKilos, ex.Kilos)
		} else {
			p.PreviousMaxKilos = max(p.PreviousMaxKilos, ex.Kilos)
		}
	}

	progress := make([]ExerciseProgress, 0, len(exID2progress))
	for _, p := range exID2progress {
		progress = append(progress, *p)
	}
	sort.Slice(progress, func(i, j int) bool {
		if progress[i].Sets != progress[j].Sets {
			return progress[i].Sets > progress[j].Sets
		}
		return progress[i].ExerciseID < progress[j].ExerciseID
	})
	return progress
}
