package extract

import (
	"regexp"
	"strings"
)

var reNoiseChars = regexp.MustCompile(`[|@#~^*_=\\]`)

// detectName picks the merchant name: typically the first non-empty,
// non-numeric line of the receipt. Confidence drops when several header lines
// look plausible or when the chosen line carries OCR noise characters.
func detectName(lines []string) (*string, float64) {
	headerEnd := 4
	if len(lines) < headerEnd {
		headerEnd = len(lines)
	}
	var candidates []string
	for _, line := range lines[:headerEnd] {
		if isPlausibleName(line) {
			candidates = append(candidates, strings.TrimSpace(line))
		}
	}
	if len(candidates) == 0 {
		return nil, 0.15
	}
	name := candidates[0]
	conf := 0.9
	if len(candidates) > 1 {
		conf = 0.7
	}
	if reNoiseChars.MatchString(name) || mixedAlnumNoise(name) {
		conf *= 0.7
	}
	return &name, clamp01(conf)
}

func isPlausibleName(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	if reMoneyToken.MatchString(s) || lineLabel(s) != "" {
		return false
	}
	letters, digits := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters++
		}
	}
	if letters < 2 || digits > letters {
		return false
	}
	// address-style lines lead with their street number
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	if _, c := detectDate([]string{s}, anyLeapYear); c >= 0.7 {
		return false
	}
	return true
}

// mixedAlnumNoise flags words like "J0e's" or "P1zza" where digits sit inside
// letter runs, a typical OCR misread.
func mixedAlnumNoise(s string) bool {
	for _, w := range strings.Fields(s) {
		hasLetter, hasInnerDigit := false, false
		for i, r := range w {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				hasLetter = true
			}
			if r >= '0' && r <= '9' && i > 0 && i < len(w)-1 {
				hasInnerDigit = true
			}
		}
		if hasLetter && hasInnerDigit {
			return true
		}
	}
	return false
}
