package services

import (
	"sort"
	"time"

	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

// GoalProgress is the computed state of a goal at a point in time.
type GoalProgress struct {
	Progress      float64  `json:"progress"`
	DerivedStatus string   `json:"derived_status"`
	StartValue    *float64 `json:"start_value"`
	CurrentValue  *float64 `json:"current_value"`
}

// CalculateGoalProgress returns the completion percentage in [0,100].
//
// Records are ordered by RecordedAt. The baseline is the goal's StartValue when
// set, otherwise the earliest record; the current value is the latest record.
// For weight_loss and fat_loss the value has to go down.
func CalculateGoalProgress(g models.Goal, records []models.ProgressRecord) float64 {
	p, _, _ := goalProgress(g, records)
	return p
}

func goalProgress(g models.Goal, records []models.ProgressRecord) (progress float64, start, current *float64) {
	if len(records) == 0 {
		return 0, g.StartValue, nil
	}
	sorted := make([]models.ProgressRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordedAt.Before(sorted[j].RecordedAt) })

	s := sorted[0].Value
	if g.StartValue != nil {
		s = *g.StartValue
	}
	c := sorted[len(sorted)-1].Value
	start, current = &s, &c

	target := g.TargetValue
	var ratio float64
	switch {
	case target == s:
		// Nothing to travel: reached iff current sits on the target side.
		if (g.IsDecrease() && c <= target) || (!g.IsDecrease() && c >= target) {
			ratio = 1
		}
	case g.IsDecrease():
		ratio = (s - c) / (s - target)
	default:
		ratio = (c - s) / (target - s)
	}

	progress = round2(clamp(ratio*100, 0, 100))
	return progress, start, current
}

// DeriveGoalStatus picks the first that applies: completed, overdue, upcoming, in-progress.
func DeriveGoalStatus(g models.Goal, progress float64, now time.Time) string {
	now = now.UTC()
	switch {
	case progress >= 100 || g.Status == models.GoalStatusCompleted:
		return models.GoalDerivedCompleted
	case now.After(dayEnd(g.EndDate)):
		return models.GoalDerivedOverdue
	case g.StartDate.After(now):
		return models.GoalDerivedUpcoming
	default:
		return models.GoalDerivedInProgress
	}
}

// EvaluateGoal bundles progress, derived status and the values they came from.
func EvaluateGoal(g models.Goal, records []models.ProgressRecord, now time.Time) GoalProgress {
	p, start, current := goalProgress(g, records)
	return GoalProgress{
		Progress:      p,
		DerivedStatus: DeriveGoalStatus(g, p, now),
		StartValue:    start,
		CurrentValue:  current,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
