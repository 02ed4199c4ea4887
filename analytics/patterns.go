package analytics

import "sort"

// ProductivityPattern aggregates completions recorded at one hour of day.
type ProductivityPattern struct {
	HourOfDay         int     `json:"hourOfDay"`
	CompletionRate    float64 `json:"completionRate"`
	AvgCompletionTime float64 `json:"avgCompletionTime"`
	TaskCount         int     `json:"taskCount"`
}

// EnergyLevel is the qualitative productivity of an hour range.
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// EnergyWindow is a run of hours sharing one energy level. EndHour is
// inclusive.
type EnergyWindow struct {
	StartHour  int         `json:"startHour"`
	EndHour    int         `json:"endHour"`
	Level      EnergyLevel `json:"energyLevel"`
	Confidence float64     `json:"confidence"`
}

// Contains reports whether hour falls inside w.
func (w EnergyWindow) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// Patterns groups records by hour of day. All 24 hours are always present.
//
// Only completions are ever recorded, so CompletionRate is 1.0 for every hour
// with at least one record and 0 otherwise.
func Patterns(records []TaskAnalytics) []ProductivityPattern {
	var counts, completed [24]int
	var minutes [24]int
	for _, r := range records {
		if r.HourOfDay < 0 || r.HourOfDay > 23 {
			continue
		}
		counts[r.HourOfDay]++
		completed[r.HourOfDay]++
		minutes[r.HourOfDay] += r.ActualMinutes
	}

	out := make([]ProductivityPattern, 24)
	for h := range out {
		p := ProductivityPattern{HourOfDay: h, TaskCount: counts[h]}
		if counts[h] > 0 {
			p.CompletionRate = float64(completed[h]) / float64(counts[h])
			p.AvgCompletionTime = float64(minutes[h]) / float64(counts[h])
		}
		out[h] = p
	}
	return out
}

// Windows classifies each active hour against the averages over active hours
// and merges consecutive equal levels. Hours without records are skipped: they
// neither open nor close a window.
func Windows(patterns []ProductivityPattern) []EnergyWindow {
	var active []ProductivityPattern
	var rateSum, timeSum float64
	for _, p := range patterns {
		if p.TaskCount > 0 {
			active = append(active, p)
			rateSum += p.CompletionRate
			timeSum += p.AvgCompletionTime
		}
	}
	if len(active) == 0 {
		return nil
	}
	avgRate := rateSum / float64(len(active))
	avgTime := timeSum / float64(len(active))

	var windows []EnergyWindow
	for _, p := range active {
		level := classify(p, avgRate, avgTime)
		if n := len(windows); n > 0 && windows[n-1].Level == level {
			windows[n-1].EndHour = p.HourOfDay
			continue
		}
		windows = append(windows, EnergyWindow{
			StartHour:  p.HourOfDay,
			EndHour:    p.HourOfDay,
			Level:      level,
			Confidence: min(1, float64(p.TaskCount)/10),
		})
	}
	return windows
}

func classify(p ProductivityPattern, avgRate, avgTime float64) EnergyLevel {
	switch {
	case p.CompletionRate > 1.2*avgRate && p.AvgCompletionTime < 0.8*avgTime:
		return EnergyHigh
	case p.CompletionRate < 0.8*avgRate || p.AvgCompletionTime > 1.2*avgTime:
		return EnergyLow
	default:
		return EnergyMedium
	}
}

// LevelAt returns the level of the window containing hour, or medium when no
// window covers it.
func LevelAt(windows []EnergyWindow, hour int) EnergyLevel {
	for _, w := range windows {
		if w.Contains(hour) {
			return w.Level
		}
	}
	return EnergyMedium
}

// Summary totals the completion history.
type Summary struct {
	TotalCompleted     int            `json:"totalCompleted"`
	TotalMinutes       int            `json:"totalMinutes"`
	AverageMinutes     float64        `json:"averageMinutes"`
	MostProductiveHour int            `json:"mostProductiveHour"` // -1 without history
	ByProject          map[string]int `json:"byProject"`
}

// TopProject returns the project with the most completions, ties broken by
// name.
func (s Summary) TopProject() string {
	names := make([]string, 0, len(s.ByProject))
	for name := range s.ByProject {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByProject[names[i]] != s.ByProject[names[j]] {
			return s.ByProject[names[i]] > s.ByProject[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Summarize computes a Summary over records.
func Summarize(records []TaskAnalytics) Summary {
	s := Summary{MostProductiveHour: -1, ByProject: map[string]int{}}
	for _, r := range records {
		s.TotalCompleted++
		s.TotalMinutes += r.ActualMinutes
		if r.Project != "" {
			s.ByProject[r.Project]++
		}
	}
	if s.TotalCompleted == 0 {
		return s
	}
	s.AverageMinutes = float64(s.TotalMinutes) / float64(s.TotalCompleted)
	best := 0
	for _, p := range Patterns(records) {
		if p.TaskCount > best {
			best = p.TaskCount
			s.MostProductiveHour = p.HourOfDay
		}
	}
	return s
}
