package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\b\.?`

// Date shapes searched for inside a captured due-date string. The captured
// text usually runs on into the next label ("March 5, 2024 Total Amount Due"),
// so the date has to be located before it is parsed.
var (
	// 2024-07-01, 2024/07/01, 2024.07.01
	dateCandidateISO = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	// 03/05/2024, 3-5-24 (month first)
	dateCandidateNumeric = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	// March 5, 2024 / Mar 5th 2024 / March 5
	dateCandidateMonthFirst = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s*(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s*(\d{4}|'\d{2})\b)?`)
	// 5 March 2024 / 5th Mar, 2024
	dateCandidateDayFirst = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)(?:,?\s*(\d{4})\b)?`)
	// 05-Mar-2024 / 05-Mar-24
	dateCandidateDash = regexp.MustCompile(`(?i)\b(\d{1,2})-(` + monthNames + `)-(\d{2,4})\b`)
)

type dateCandidate struct {
	start, end int
	text       string
	day        int
}

// NormalizeDate parses a free-form date, tolerating surrounding words, and
// returns it as YYYY-MM-DD. Ambiguous numeric dates are read month first;
// a numeric date whose first field cannot be a month is read day first.
// It reports false when no valid calendar date can be found.
func NormalizeDate(raw string) (string, bool) {
	return normalizeDateAt(raw, time.Now())
}

func normalizeDateAt(raw string, now time.Time) (string, bool) {
	for _, c := range findDateCandidates(raw, now.Year()) {
		// dateparse reads slash dates month first by default.
		t, err := dateparse.ParseIn(c.text, time.UTC)
		// A rolled-over day means the input was not a real calendar date.
		if err != nil || t.Day() != c.day {
			continue
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// findDateCandidates returns every date-like span in raw rewritten into a
// shape the lenient parser accepts, ordered by position then length.
func findDateCandidates(raw string, year int) []dateCandidate {
	var out []dateCandidate
	// rewrite returns the parser-ready text and the day it should yield.
	add := func(re *regexp.Regexp, rewrite func(m []string) (string, string)) {
		for _, loc := range re.FindAllStringSubmatchIndex(raw, -1) {
			m := make([]string, len(loc)/2)
			for i := range m {
				if loc[2*i] >= 0 {
					m[i] = raw[loc[2*i]:loc[2*i+1]]
				}
			}
			s, d := rewrite(m)
			if s == "" {
				continue
			}
			day, _ := strconv.Atoi(d)
			out = append(out, dateCandidate{start: loc[0], end: loc[1], text: s, day: day})
		}
	}

	add(dateCandidateISO, func(m []string) (string, string) {
		return fmt.Sprintf("%s-%s-%s", m[1], pad2(m[2]), pad2(m[3])), m[3]
	})
	add(dateCandidateNumeric, func(m []string) (string, string) {
		month, day := m[1], m[2]
		// 25/03/2024 cannot be month first; read it day first instead.
		if a, _ := strconv.Atoi(month); a > 12 {
			if b, _ := strconv.Atoi(day); b <= 12 {
				month, day = day, month
			}
		}
		return fmt.Sprintf("%s/%s/%s", pad2(month), pad2(day), m[3]), day
	})
	add(dateCandidateMonthFirst, func(m []string) (string, string) {
		return monthDayYear(m[1], m[2], m[3], year), m[2]
	})
	add(dateCandidateDayFirst, func(m []string) (string, string) {
		return monthDayYear(m[2], m[1], m[3], year), m[1]
	})
	add(dateCandidateDash, func(m []string) (string, string) {
		return monthDayYear(m[2], m[1], m[3], year), m[1]
	})

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].start != out[j].start {
			return out[i].start < out[j].start
		}
		return out[i].end-out[i].start > out[j].end-out[j].start
	})
	return out
}

// monthDayYear renders "Mon D, YYYY". A missing year falls back to year.
func monthDayYear(month, day, yr string, year int) string {
	month = strings.TrimSuffix(month, ".")
	if len(month) < 3 {
		return ""
	}
	// The parser knows three-letter and full month names only.
	short := strings.ToUpper(month[:1]) + strings.ToLower(month[1:3])
	yr = strings.TrimPrefix(yr, "'")
	switch len(yr) {
	case 0:
		yr = strconv.Itoa(year)
	case 2:
		n, _ := strconv.Atoi(yr)
		yr = strconv.Itoa(expandTwoDigitYear(n, year))
	}
	return fmt.Sprintf("%s %s, %s", short, day, yr)
}

// expandTwoDigitYear picks the century that lands within 50 years of the
// reference year.
func expandTwoDigitYear(n, ref int) int {
	century := ref / 100 * 100
	y := century + n
	if y > ref+50 {
		y -= 100
	} else if y <= ref-50 {
		y += 100
	}
	return y
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
