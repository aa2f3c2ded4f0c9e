package extract

import (
	"regexp"
	"strings"
)

var (
	// trailing price column: optional dot/dash leaders, then a money token
	reTrailingPrice = regexp.MustCompile(`[\s.·\-_]*(?:(?:\$|USD\s?)\s*)?\d{1,3}(?:,\d{3})*\.\d{2}\s*$|[\s.·\-_]*\$\s*\d{1,3}(?:,\d{3})*\s*$`)
	reLeaderTail    = regexp.MustCompile(`[\s.·\-_]{2,}$`)
)

// detectItems collects line-item descriptions between the header block and
// the totals block, in original order, with price tokens and dot leaders
// stripped. The aggregate confidence reflects how cleanly the totals boundary
// was found: low when no labeled totals line bounds the item region.
func detectItems(lines []string) ([]string, float64) {
	firstPriced := -1
	totalsStart := -1
	for i, line := range lines {
		labeled := lineLabel(line) != ""
		priced := reMoneyToken.MatchString(line)
		if labeled && totalsStart == -1 {
			totalsStart = i
		}
		if priced && !labeled && firstPriced == -1 {
			firstPriced = i
		}
	}

	items := []string{}
	if firstPriced == -1 {
		return items, 0.2
	}
	end := totalsStart
	conf := 0.85
	if end == -1 || end < firstPriced {
		end = len(lines)
		conf = 0.4 // ambiguous boundary: no labeled totals block below the items
	}
	for _, line := range lines[firstPriced:end] {
		s := strings.TrimSpace(line)
		if s == "" || lineLabel(s) != "" {
			continue
		}
		s = reTrailingPrice.ReplaceAllString(s, "")
		s = reLeaderTail.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
		if s == "" || !hasLetter(s) {
			continue
		}
		items = append(items, s)
	}
	if len(items) == 0 {
		conf = 0.2
	}
	return items, conf
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
