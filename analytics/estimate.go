package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/GoCodeAlone/taskvoice/task"
)

// Factors describe what shaped an estimate. Only Complexity scales the
// minutes; the others are reported so callers can explain the number.
// Priority is the priority's fallback minutes relative to medium.
// ProjectFamiliarity and TagSimilarity drop below 1 as more of the similar
// history shares the task's project or tags.
type Factors struct {
	Priority           float64 `json:"priority"`
	Complexity         float64 `json:"complexity"`
	ProjectFamiliarity float64 `json:"projectFamiliarity"`
	TagSimilarity      float64 `json:"tagSimilarity"`
}

// TaskEstimation is a predicted duration for a task.
type TaskEstimation struct {
	TaskID           string   `json:"taskId"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
	Confidence       float64  `json:"confidence"`
	BasedOnSimilar   []string `json:"basedOnSimilar"`
	Factors          Factors  `json:"factors"`
}

const (
	similarityThreshold = 0.3
	maxSimilar          = 5
	minEstimate         = 5
	fallbackConfidence  = 0.4
	familiarityWeight   = 0.2
)

// Fallback minutes by priority when no similar history exists.
var defaultMinutes = map[task.Priority]float64{
	task.PriorityLow:    20,
	task.PriorityMedium: 45,
	task.PriorityHigh:   75,
	task.PriorityUrgent: 120,
}

// Similarity scores a historical record against t:
// 0.3 for equal priority, 0.3 for the same non-empty project and up to 0.4
// for shared tags.
func Similarity(r TaskAnalytics, t task.Task) float64 {
	score := 0.0
	if r.Priority == t.Priority {
		score += 0.3
	}
	if t.Project != "" && strings.EqualFold(r.Project, t.Project) {
		score += 0.3
	}
	score += 0.4 * tagOverlap(r.Tags, t.Tags)
	return score
}

// tagOverlap is the number of shared tags over the larger tag set.
func tagOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, tag := range a {
		set[strings.ToLower(tag)] = true
	}
	shared := 0
	seen := map[string]bool{}
	for _, tag := range b {
		k := strings.ToLower(tag)
		if set[k] && !seen[k] {
			shared++
			seen[k] = true
		}
	}
	return float64(shared) / float64(max(len(a), len(b)))
}

func priorityFactor(p task.Priority) float64 {
	m, ok := defaultMinutes[p]
	if !ok {
		return 1
	}
	return m / defaultMinutes[task.PriorityMedium]
}

// complexity scales estimates by the length of the task's text.
func complexity(t task.Task) float64 {
	text := strings.TrimSpace(t.Title + " " + t.Description)
	switch n := len(text); {
	case n == 0:
		return 1
	case n > 100:
		return 1.4
	case n < 30:
		return 0.7
	default:
		return 1
	}
}

// Estimate predicts t's duration from the up to five most similar records
// scoring above 0.3, or from the priority table when none qualify.
func Estimate(records []TaskAnalytics, t task.Task) TaskEstimation {
	type scored struct {
		rec   TaskAnalytics
		score float64
	}
	var similar []scored
	for _, r := range records {
		if s := Similarity(r, t); s > similarityThreshold {
			similar = append(similar, scored{r, s})
		}
	}
	sort.SliceStable(similar, func(i, j int) bool { return similar[i].score > similar[j].score })
	if len(similar) > maxSimilar {
		similar = similar[:maxSimilar]
	}

	est := TaskEstimation{
		TaskID:         t.ID,
		BasedOnSimilar: []string{},
		Factors: Factors{
			Priority:           priorityFactor(t.Priority),
			Complexity:         complexity(t),
			ProjectFamiliarity: 1,
			TagSimilarity:      1,
		},
	}

	var base float64
	if len(similar) > 0 {
		total := 0
		for _, s := range similar {
			total += s.rec.ActualMinutes
			est.BasedOnSimilar = append(est.BasedOnSimilar, s.rec.ID)
		}
		base = float64(total) / float64(len(similar))

		var sameProject, overlap float64
		for _, s := range similar {
			if t.Project != "" && strings.EqualFold(s.rec.Project, t.Project) {
				sameProject++
			}
			overlap += tagOverlap(s.rec.Tags, t.Tags)
		}
		n := float64(len(similar))
		est.Factors.ProjectFamiliarity = 1 - familiarityWeight*sameProject/n
		est.Factors.TagSimilarity = 1 - familiarityWeight*overlap/n
		est.Confidence = math.Min(0.9, 0.4+0.1*float64(len(similar)))
	} else {
		m, ok := defaultMinutes[t.Priority]
		if !ok {
			m = defaultMinutes[task.PriorityMedium]
		}
		base = m
		est.Confidence = fallbackConfidence
	}

	est.EstimatedMinutes = max(minEstimate, int(math.Round(base*est.Factors.Complexity)))
	return est
}
