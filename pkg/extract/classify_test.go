package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyManyDateAmountRowsNoTotal(t *testing.T) {
	text := "01/05/2024 GROCERY MART 45.20\n" +
		"01/07/2024 GAS STATION 30.00\n" +
		"01/09/2024 COFFEE SHOP 4.50\n" +
		"01/12/2024 PARKING 12.00\n" +
		"01/15/2024 BOOKSTORE 22.99"
	assert.Equal(t, KindBankStatement, Classify(text))
}

func TestClassifyStatementVocabulary(t *testing.T) {
	text := "First National Bank\nStatement Period 01/01/2024 - 01/31/2024\nAccount Number 0042"
	assert.Equal(t, KindBankStatement, Classify(text))
}

func TestClassifyReceiptWithTotalLine(t *testing.T) {
	assert.Equal(t, KindReceipt, Classify(pizzaReceipt))
}

func TestClassifyAmbiguousDefaultsToReceipt(t *testing.T) {
	assert.Equal(t, KindReceipt, Classify("CORNER STORE\nthanks for visiting"))
	// a couple of dated rows is not enough to call it a statement
	assert.Equal(t, KindReceipt, Classify("01/05/2024 GROCERY 45.20\n01/07/2024 FUEL 30.00"))
}
