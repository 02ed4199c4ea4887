package command

import (
	"sort"
	"strings"

	"github.com/GoCodeAlone/taskvoice/task"
)

// Match is a task scored against a spoken identifier.
type Match struct {
	Task  task.Task
	Score float64
}

const matchThreshold = 0.3

// FindTasksByIdentifier scores every task against identifier and returns those
// scoring above 0.3, best first. The score adds 1.0 when the identifier occurs
// in the title, up to 0.8 for the share of identifier words found in title
// words, 0.4 for a description hit, 0.6 for a project hit and up to 0.3 for
// the share of identifier words that are tags, capped at 1.0.
func FindTasksByIdentifier(tasks []task.Task, identifier string) []Match {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" {
		return nil
	}
	idWords := strings.Fields(id)

	var out []Match
	for _, t := range tasks {
		if s := scoreTask(t, id, idWords); s > matchThreshold {
			out = append(out, Match{Task: t, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func scoreTask(t task.Task, id string, idWords []string) float64 {
	title := strings.ToLower(t.Title)
	score := 0.0

	if strings.Contains(title, id) {
		score += 1.0
	}

	titleWords := strings.Fields(title)
	found := 0
	for _, w := range idWords {
		for _, tw := range titleWords {
			if strings.Contains(tw, w) {
				found++
				break
			}
		}
	}
	score += 0.8 * float64(found) / float64(len(idWords))

	if t.Description != "" && strings.Contains(strings.ToLower(t.Description), id) {
		score += 0.4
	}
	if t.Project != "" && strings.Contains(strings.ToLower(t.Project), id) {
		score += 0.6
	}

	if len(t.Tags) > 0 {
		tagHits := 0
		for _, w := range idWords {
			if t.HasTag(w) {
				tagHits++
			}
		}
		score += 0.3 * float64(tagHits) / float64(len(idWords))
	}

	return min(score, 1.0)
}
