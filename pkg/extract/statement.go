package extract

import "strings"

// parseStatement extracts one Transaction per date+amount row. Row order
// follows recognized line order. The description is the line with its date
// and amount tokens removed.
func parseStatement(lines []string, refYear int) ([]Transaction, float64) {
	var txns []Transaction
	rows := 0
	for _, line := range lines {
		if !isTransactionRow(line) {
			continue
		}
		rows++
		toks := reMoneyToken.FindAllString(line, -1)
		raw := toks[len(toks)-1]
		amount, ok := parseMoney(raw)
		if !ok {
			continue
		}
		date, _ := detectDate([]string{line}, refYear)

		desc := line
		for _, p := range datePatterns {
			desc = p.re.ReplaceAllString(desc, "")
		}
		desc = reMoneyToken.ReplaceAllString(desc, "")
		desc = strings.Join(strings.Fields(desc), " ")

		txns = append(txns, Transaction{Date: date, Amount: amount, Description: desc})
	}
	conf := 0.2
	if len(txns) > 0 {
		// scale with how many candidate rows actually parsed
		conf = clamp01(0.5 + 0.4*float64(len(txns))/float64(rows))
	}
	return txns, conf
}
