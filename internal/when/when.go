// Package when resolves the small relative-date vocabulary used in spoken
// task descriptions ("tomorrow", "by Friday", "next week") into instants.
package when

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	todayRe     = regexp.MustCompile(`\b(today|tonight)\b`)
	tomorrowRe  = regexp.MustCompile(`\btomorrow\b`)
	nextWeekRe  = regexp.MustCompile(`\bnext\s+week\b`)
	endOfWeekRe = regexp.MustCompile(`\b(this\s+week|end\s+of\s+(the\s+)?week)\b`)
	nextMonthRe = regexp.MustCompile(`\bnext\s+month\b`)
	weekdayRe   = regexp.MustCompile(`\b(?:(this|next)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	ordinalRe = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)\b`)
	yearRe    = regexp.MustCompile(`\b\d{4}\b`)

	// Substrings worth handing to the generic parser, most specific first.
	dateLike = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}(?:[ t]\d{1,2}:\d{2}(?::\d{2})?)?\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
		regexp.MustCompile(`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`),
		regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*(?:\s+\d{4})?\b`),
	}
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Resolve looks for a date expression anywhere in text and returns the
// instant it refers to, relative to now. Relative dates keep now's clock time.
// The second result is false when nothing date-like was found.
func Resolve(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return time.Time{}, false
	}

	switch {
	case todayRe.MatchString(lower):
		return now, true
	case tomorrowRe.MatchString(lower):
		return now.AddDate(0, 0, 1), true
	case nextWeekRe.MatchString(lower):
		return now.AddDate(0, 0, 7), true
	case endOfWeekRe.MatchString(lower):
		return NextWeekday(now, time.Friday, false), true
	case nextMonthRe.MatchString(lower):
		return now.AddDate(0, 1, 0), true
	}

	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		return NextWeekday(now, weekdays[m[2]], m[1] == "this"), true
	}

	return parseGeneric(lower, now)
}

// NextWeekday returns the next occurrence of day after now. When now already
// falls on day, the result rolls over to the following week unless allowToday
// is set ("this friday" said on a Friday).
func NextWeekday(now time.Time, day time.Weekday, allowToday bool) time.Time {
	days := (int(day) - int(now.Weekday()) + 7) % 7
	if days == 0 && !allowToday {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

func parseGeneric(lower string, now time.Time) (time.Time, bool) {
	if t, ok := tryParse(lower, now); ok {
		return t, true
	}
	for _, re := range dateLike {
		if s := re.FindString(lower); s != "" {
			if t, ok := tryParse(s, now); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func tryParse(s string, now time.Time) (time.Time, bool) {
	s = ordinalRe.ReplaceAllString(strings.TrimSpace(s), "$1")
	if s == "" {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseIn(s, now.Location()); err == nil && plausible(t, now) {
		return t, true
	}
	// Month/day without a year: assume the current year.
	if !yearRe.MatchString(s) {
		if t, err := dateparse.ParseIn(s+" "+now.Format("2006"), now.Location()); err == nil && plausible(t, now) {
			return t, true
		}
	}
	return time.Time{}, false
}

// plausible reports whether t is close enough to now to be a due date.
// dateparse happily turns "1/2/3" into year 0.
func plausible(t, now time.Time) bool {
	y := t.Year()
	return y >= now.Year()-1 && y <= now.Year()+10
}
