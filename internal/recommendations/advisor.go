package recommendations

import (
	"context"
	"fmt"
	"strings"
)

const (
	// below this many sets in the window, balance and progression rules stay quiet
	minSetsForAnalysis       = 20
	neglectedGroupPercentage = 10
	minSetsForProgression    = 6
	maxProgressionAdvice     = 3
	lowFrequencyTrainings    = 4
	highFrequencyTrainings   = 12
)

// Advisor turns a training summary into recommendation drafts. Drafts carry
// only title, content and category; the service fills the rest in.
type Advisor interface {
	Name() string
	Advise(ctx context.Context, summary TrainingSummary) ([]Recommendation, error)
}

// RuleAdvisor is the built-in advisor, working only off the summary numbers.
type RuleAdvisor struct{}

func NewRuleAdvisor() *RuleAdvisor {
	return &RuleAdvisor{}
}

func (a *RuleAdvisor) Name() string {
	return "rules"
}

func (a *RuleAdvisor) Advise(_ context.Context, summary TrainingSummary) ([]Recommendation, error) {
	if summary.TotalSets == 0 && summary.Trainings == 0 {
		return []Recommendation{{
			Title:    "Log your first training",
			Content:  "Start a workout and log a few sets. Suggestions get better as your history grows.",
			Category: CategoryGettingStarted,
		}}, nil
	}

	var recs []Recommendation
	if summary.TotalSets >= minSetsForAnalysis {
		if rec, ok := balanceAdvice(summary); ok {
			recs = append(recs, rec)
		}
		recs = append(recs, progressionAdvice(summary)...)
	}

	switch {
	case summary.Trainings < lowFrequencyTrainings:
		recs = append(recs, Recommendation{
			Title: "Train more often",
			Content: fmt.Sprintf(
				"You trained %d times in the last two weeks. Aim for at least %d sessions to keep making progress.",
				summary.Trainings, lowFrequencyTrainings,
			),
			Category: CategoryFrequency,
		})
	case summary.Trainings >= highFrequencyTrainings:
		recs = append(recs, Recommendation{
			Title: "Plan a rest day",
			Content: fmt.Sprintf(
				"You trained %d times in the last two weeks. Muscles grow while resting, so schedule a day off.",
				summary.Trainings,
			),
			Category: CategoryRecovery,
		})
	}

	return recs, nil
}

func balanceAdvice(summary TrainingSummary) (Recommendation, bool) {
	var neglected []string
	for _, share := range summary.MuscleGroups {
		if share.Percentage < neglectedGroupPercentage {
			neglected = append(neglected, share.MuscleGroup)
		}
	}
	if len(neglected) == 0 {
		return Recommendation{}, false
	}

	return Recommendation{
		Title: "Balance your training",
		Content: fmt.Sprintf(
			"Less than %d%% of your sets in the last 30 days went to: %s.",
			neglectedGroupPercentage, strings.Join(neglected, ", "),
		),
		Category: CategoryBalance,
	}, true
}

func progressionAdvice(summary TrainingSummary) []Recommendation {
	var recs []Recommendation
	for _, p := range summary.Progress {
		if len(recs) == maxProgressionAdvice {
			break
		}
		if p.Sets < minSetsForProgression || p.RecentMaxKilos == 0 || p.PreviousMaxKilos == 0 {
			continue
		}
		if p.RecentMaxKilos > p.PreviousMaxKilos {
			continue
		}
		recs = append(recs, Recommendation{
			Title: fmt.Sprintf("Push your %s", p.ExerciseID),
			Content: fmt.Sprintf(
				"Your heaviest %s set this week (%d kg) did not beat the earlier %d kg. Try adding a little weight or a rep.",
				p.ExerciseID, p.RecentMaxKilos, p.PreviousMaxKilos,
			),
			Category: CategoryProgression,
		})
	}
	return recs
}
