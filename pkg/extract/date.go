package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePattern is one recognizable date shape with the confidence a match in
// that shape earns. Fully qualified year-month-day shapes score higher than
// ambiguous month/day forms.
type datePattern struct {
	re         *regexp.Regexp
	parse      func(m []string, refYear int) (time.Time, bool)
	confidence float64
}

// anyLeapYear stands in for the reference year when only the shape of a date
// matters and its value is discarded; a leap year, so 02/29 rows still parse.
const anyLeapYear = 2000

var monthNums = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var datePatterns = []datePattern{
	{
		// 2024-05-12, 2024/05/12
		re: regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`),
		parse: func(m []string, _ int) (time.Time, bool) {
			return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
		confidence: 0.95,
	},
	{
		// 05/12/2024, 5-12-2024; month-first, day-first as a fallback
		re: regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`),
		parse: func(m []string, _ int) (time.Time, bool) {
			if d, ok := buildDate(atoi(m[3]), atoi(m[1]), atoi(m[2])); ok {
				return d, true
			}
			return buildDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
		},
		confidence: 0.9,
	},
	{
		// May 12, 2024 / Sep 3 2024
		re: regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})\b`),
		parse: func(m []string, _ int) (time.Time, bool) {
			return buildDate(atoi(m[3]), int(monthNums[strings.ToLower(m[1])]), atoi(m[2]))
		},
		confidence: 0.9,
	},
	{
		// 12 May 2024
		re: regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{4})\b`),
		parse: func(m []string, _ int) (time.Time, bool) {
			return buildDate(atoi(m[3]), int(monthNums[strings.ToLower(m[2])]), atoi(m[1]))
		},
		confidence: 0.85,
	},
	{
		// 05/12/24; two-digit year pivots at 70
		re: regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2})\b`),
		parse: func(m []string, _ int) (time.Time, bool) {
			y := atoi(m[3])
			if y < 70 {
				y += 2000
			} else {
				y += 1900
			}
			if d, ok := buildDate(y, atoi(m[1]), atoi(m[2])); ok {
				return d, true
			}
			return buildDate(y, atoi(m[2]), atoi(m[1]))
		},
		confidence: 0.75,
	},
	{
		// 05/12 with no year at all; the reference year is assumed
		re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`),
		parse: func(m []string, refYear int) (time.Time, bool) {
			return buildDate(refYear, atoi(m[1]), atoi(m[2]))
		},
		confidence: 0.45,
	},
}

// detectDate scans lines in order; within a line, stronger formats win. The
// first match is taken, per the first-unambiguous-match-wins rule. refYear
// anchors year-less shapes like "05/12" so the same bytes always extract the
// same date regardless of when they are processed.
func detectDate(lines []string, refYear int) (*time.Time, float64) {
	for _, line := range lines {
		for _, p := range datePatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if d, ok := p.parse(m, refYear); ok {
				return &d, p.confidence
			}
		}
	}
	return nil, 0.15
}

func buildDate(year, month, day int) (time.Time, bool) {
	if year < 1970 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject normalized overflow like Feb 30 -> Mar 2
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
