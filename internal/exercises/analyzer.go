package exercises

import (
	"context"
	"sort"
	"time"

	"github.com/2beens/fitwise/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ExerciseHistory represents the history of an exercise
// so that, for each day, we get the average kilos and reps per set
type ExerciseHistory struct {
	ExerciseID string          `json:"exerciseId"`
	Days       []ExerciseStats `json:"days"`
}

type ExerciseStats struct {
	Day      time.Time `json:"day"`
	AvgKilos int       `json:"avgKilos"`
	MaxKilos int       `json:"maxKilos"`
	AvgReps  int       `json:"avgReps"`
	Sets     int       `json:"sets"`
}

type MuscleGroupShare struct {
	MuscleGroup string  `json:"muscleGroup"`
	Sets        int     `json:"sets"`
	Percentage  float64 `json:"percentage"`
}

type Analyzer struct {
	repo exercisesRepo
}

func NewAnalyzer(repo exercisesRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

// ExerciseHistory groups the matching sets per day, oldest day first.
func (a *Analyzer) ExerciseHistory(ctx context.Context, params ExerciseParams) (_ *ExerciseHistory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.exercises.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exercises, err := a.repo.ListAll(ctx, params)
	if err != nil {
		return nil, err
	}

	return &ExerciseHistory{
		ExerciseID: params.ExerciseID,
		Days:       DailyStats(exercises),
	}, nil
}

// DailyStats aggregates sets per UTC day, oldest day first.
func DailyStats(exercises []Exercise) []ExerciseStats {
	day2exercises := make(map[time.Time][]Exercise)
	for _, ex := range exercises {
		day := ex.CreatedAt.UTC().Truncate(24 * time.Hour)
		day2exercises[day] = append(day2exercises[day], ex)
	}

	stats := make([]ExerciseStats, 0, len(day2exercises))
	for day, dayExercises := range day2exercises {
		s := ExerciseStats{Day: day, Sets: len(dayExercises)}
		for _, ex := range dayExercises {
			s.AvgKilos += ex.Kilos
			s.AvgReps += ex.Reps
			if ex.Kilos > s.MaxKilos {
				s.MaxKilos = ex.Kilos
			}
		}
		s.AvgKilos /= len(dayExercises)
		s.AvgReps /= len(dayExercises)
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Day.Before(stats[j].Day)
	})
	return stats
}

// MuscleGroupPercentages returns the share of sets per muscle group. Every known
// muscle group is present in the result, even without sets.
func (a *Analyzer) MuscleGroupPercentages(ctx context.Context, params ExerciseParams) (_ []MuscleGroupShare, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.exercises.percentages")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", params.UserID))

	exercises, err := a.repo.ListAll(ctx, params)
	if err != nil {
		return nil, err
	}

	return MuscleGroupShares(exercises), nil
}

func MuscleGroupShares(exercises []Exercise) []MuscleGroupShare {
	group2count := make(map[string]int)
	for _, ex := range exercises {
		group2count[ex.MuscleGroup]++
	}

	shares := make([]MuscleGroupShare, 0, len(MuscleGroups))
	for _, group := range MuscleGroups {
		share := MuscleGroupShare{
			MuscleGroup: group,
			Sets:        group2count[group],
		}
		if len(exercises) > 0 {
			p := float64(share.Sets) / float64(len(exercises)) * 100
			// leave only 2 decimals
			share.Percentage = float64(int(p*100)) / 100
		}
		shares = append(shares, share)
	}
	return shares
}
