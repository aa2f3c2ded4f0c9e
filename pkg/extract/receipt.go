package extract

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyDocument is returned when the recognized text holds no content at
// all; field-level absence is never an error.
var ErrEmptyDocument = errors.New("empty document")

// DocumentKind classifies the input as a single retail receipt or a
// multi-transaction bank/card statement.
type DocumentKind string

const (
	KindReceipt       DocumentKind = "receipt"
	KindBankStatement DocumentKind = "bank_statement"
)

// Transaction is one parsed statement row. Callers should rely on Date and
// Amount only; Description is best-effort.
type Transaction struct {
	Date        *time.Time      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ExtractedReceipt is the structured result of field extraction. Nil scalar
// fields mean "not found" as opposed to found-but-empty; each attempted field
// has an entry in ConfidenceScores, failed attempts with a low score.
// Constructed once per recognition, immutable thereafter.
type ExtractedReceipt struct {
	RestaurantName *string
	Date           *time.Time
	Amount         *decimal.Decimal
	Total          *decimal.Decimal
	Tax            *decimal.Decimal
	Tip            *decimal.Decimal
	Subtotal       *decimal.Decimal

	// Items holds line-item descriptions in recognized order, price tokens
	// stripped. Empty, never nil, when no items were detected.
	Items []string

	// Transactions is populated in statement mode only.
	Transactions []Transaction

	ConfidenceScores map[string]float64
	RawText          string
	Kind             DocumentKind

	// ConfidenceThreshold is the advisory threshold the caller supplied. It
	// never suppresses fields; downstream consumers decide what to trust.
	ConfidenceThreshold float64
}
