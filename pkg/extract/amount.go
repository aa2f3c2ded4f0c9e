package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// reMoneyToken matches currency-prefixed numbers and bare numbers with a
// two-digit cents part. Bare integers do not qualify, so street numbers and
// ids are not picked up.
var reMoneyToken = regexp.MustCompile(`(?:\$|USD\s?)\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\b\d{1,3}(?:,\d{3})*\.\d{2}\b`)

// labelSpec anchors an amount field to its keyword. Order matters: subtotal
// must be classified before total so a "Subtotal" line is not claimed by the
// total matcher.
type labelSpec struct {
	field string
	re    *regexp.Regexp
}

var labelSpecs = []labelSpec{
	{"subtotal", regexp.MustCompile(`(?i)\bsub\s?-?total\b`)},
	{"tax", regexp.MustCompile(`(?i)\b(?:sales\s+)?tax\b|\bvat\b|\bgst\b`)},
	{"tip", regexp.MustCompile(`(?i)\btip\b|\bgratuity\b|\bservice\s+charge\b`)},
	{"total", regexp.MustCompile(`(?i)\btotal\b|\bamount\s+due\b|\bbalance\s+due\b`)},
}

// amountCandidate is one possible value for a labeled amount field.
type amountCandidate struct {
	value decimal.Decimal
	raw   string
	line  int
	score int
}

// parseMoney normalizes a matched token into a decimal amount.
func parseMoney(tok string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(tok)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "USD"), "usd")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil || d.Sign() <= 0 {
		return decimal.Decimal{}, false
	}
	if !isPlausibleAmount(s, d) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// isPlausibleAmount rejects numeric strings that look like phone numbers or
// transaction ids rather than money: too many integer digits, or long bare
// digit runs with a leading zero.
func isPlausibleAmount(s string, d decimal.Decimal) bool {
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
	}
	digits := onlyDigits(intPart)
	if len(digits) > 7 {
		return false
	}
	if len(digits) >= 4 && strings.HasPrefix(digits, "0") {
		return false
	}
	return d.Sign() > 0
}

// lineLabel returns the amount field a line is anchored to, or "".
func lineLabel(line string) string {
	for _, spec := range labelSpecs {
		if spec.re.MatchString(line) {
			return spec.field
		}
	}
	return ""
}

var reCentsTail = regexp.MustCompile(`\.\d{2}$`)

// scoreCandidate mirrors the priority rules for competing matches: an
// explicit currency marker ranks above a bare cents number, a cents part
// above a round integer.
func scoreCandidate(raw string) int {
	s := 0
	low := strings.ToLower(raw)
	if strings.Contains(low, "$") || strings.Contains(low, "usd") {
		s += 5
	}
	if reCentsTail.MatchString(strings.TrimSpace(raw)) {
		s += 3
	}
	return s
}

// detectAmounts scans all lines and returns, per labeled field, the winning
// candidate with its confidence, plus every plausible money value found (for
// the positional fallback). When multiple candidates carry the same label the
// one nearest the end of the document wins, per the way receipts list their
// totals last.
func detectAmounts(lines []string) (fields map[string]amountField, all []amountCandidate) {
	byLabel := map[string][]amountCandidate{}
	for i, line := range lines {
		toks := reMoneyToken.FindAllString(line, -1)
		if len(toks) == 0 {
			continue
		}
		// the rightmost token on a line is the value column
		raw := toks[len(toks)-1]
		v, ok := parseMoney(raw)
		if !ok {
			continue
		}
		cand := amountCandidate{value: v, raw: raw, line: i, score: scoreCandidate(raw)}
		all = append(all, cand)
		if label := lineLabel(line); label != "" {
			byLabel[label] = append(byLabel[label], cand)
		}
	}

	fields = map[string]amountField{}
	for label, cands := range byLabel {
		best := cands[0]
		for _, c := range cands[1:] {
			if c.score > best.score || (c.score == best.score && c.line >= best.line) {
				best = c
			}
		}
		conf := 0.85
		if best.score >= 3 {
			conf = 0.9
		}
		if len(cands) > 1 {
			conf -= 0.05
		}
		fields[label] = amountField{value: best.value, confidence: clamp01(conf)}
	}
	return fields, all
}

type amountField struct {
	value      decimal.Decimal
	confidence float64
}

// largestAmount picks the biggest plausible money value, used as the fallback
// for the overall charged amount when no total label exists. Purely
// positional, so the caller caps its confidence.
func largestAmount(all []amountCandidate) (decimal.Decimal, bool) {
	if len(all) == 0 {
		return decimal.Decimal{}, false
	}
	best := all[0]
	for _, c := range all[1:] {
		if c.value.GreaterThan(best.value) {
			best = c
		}
	}
	return best.value, true
}
