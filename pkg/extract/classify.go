package extract

import "strings"

// statementVocab is vocabulary that essentially never appears on a retail
// receipt but is standard on bank/card statements.
var statementVocab = []string{
	"statement period",
	"statement date",
	"account number",
	"beginning balance",
	"ending balance",
	"previous balance",
	"new balance",
	"minimum payment",
	"payment due date",
	"card ending",
	"available credit",
}

// minTransactionRows is the number of date+amount rows above which a document
// with no total line is treated as a statement.
const minTransactionRows = 4

// Classify decides whether recognized text is a retail receipt or a bank
// statement. Best-effort: ambiguous input defaults to receipt, the primary
// use case and the lower-risk choice.
func Classify(text string) DocumentKind {
	low := strings.ToLower(text)
	hits := 0
	for _, kw := range statementVocab {
		if strings.Contains(low, kw) {
			hits++
		}
	}
	if hits >= 2 {
		return KindBankStatement
	}

	lines := strings.Split(text, "\n")
	rows := 0
	hasTotal := false
	for _, line := range lines {
		if lineLabel(line) == "total" && reMoneyToken.MatchString(line) {
			hasTotal = true
		}
		if isTransactionRow(line) {
			rows++
		}
	}
	if rows >= minTransactionRows && !hasTotal {
		return KindBankStatement
	}
	return KindReceipt
}

// isTransactionRow reports whether a line pairs a date with an amount, the
// shape of one statement transaction.
func isTransactionRow(line string) bool {
	if !reMoneyToken.MatchString(line) {
		return false
	}
	_, conf := detectDate([]string{line}, anyLeapYear)
	return conf >= 0.4
}
