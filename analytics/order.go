package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/GoCodeAlone/taskvoice/task"
)

// Recommendation is a pending task with the score that ranked it and the
// reasons behind that score.
type Recommendation struct {
	Task    task.Task `json:"task"`
	Score   int       `json:"score"`
	Reasons []string  `json:"reasons"`
}

const quickTaskMinutes = 30

// Order scores every pending task and returns them highest score first. The
// current energy level adjusts the score; tasks without an estimate are
// estimated from records.
func Order(tasks []task.Task, records []TaskAnalytics, level EnergyLevel, now time.Time) []Recommendation {
	var out []Recommendation
	for _, t := range tasks {
		if t.Status != task.StatusPending {
			continue
		}
		out = append(out, score(t, records, level, now))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func score(t task.Task, records []TaskAnalytics, level EnergyLevel, now time.Time) Recommendation {
	r := Recommendation{Task: t, Reasons: []string{}}

	r.Score = t.Priority.Weight() * 25
	if t.Priority == task.PriorityHigh || t.Priority == task.PriorityUrgent {
		r.Reasons = append(r.Reasons, fmt.Sprintf("%s priority", t.Priority))
	}

	if t.DueDate != nil {
		switch until := t.DueDate.Sub(now); {
		case until < 24*time.Hour:
			r.Score += 30
			r.Reasons = append(r.Reasons, "due within 24 hours")
		case until < 72*time.Hour:
			r.Score += 15
			r.Reasons = append(r.Reasons, "due within 3 days")
		}
	}

	switch {
	case level == EnergyHigh && (t.Priority == task.PriorityHigh || t.Priority == task.PriorityUrgent):
		r.Score += 20
		r.Reasons = append(r.Reasons, "matches your high-energy time")
	case level == EnergyLow && t.Priority == task.PriorityLow:
		r.Score += 10
		r.Reasons = append(r.Reasons, "light task for a low-energy period")
	}

	var minutes int
	if t.EstimatedMinutes != nil {
		minutes = *t.EstimatedMinutes
	} else {
		minutes = Estimate(records, t).EstimatedMinutes
	}
	if minutes <= quickTaskMinutes {
		r.Score += 10
		r.Reasons = append(r.Reasons, fmt.Sprintf("quick win (~%d min)", minutes))
	}
	return r
}
