package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Extractor turns raw recognized text into an ExtractedReceipt. It never
// fails on missing fields — those come back nil with a low confidence — and
// raises only for structurally empty input.
type Extractor struct {
	log zerolog.Logger

	// Ref anchors year-less dates like "05/12". The zero value means the
	// year at the time of the call; set it to make extraction a pure
	// function of the input bytes.
	Ref time.Time
}

func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

func (e *Extractor) refYear() int {
	if !e.Ref.IsZero() {
		return e.Ref.Year()
	}
	return time.Now().Year()
}

// Extract classifies the document and runs the matching parsing strategy.
// threshold is advisory and is attached to the result untouched.
func (e *Extractor) Extract(rawText string, threshold float64) (*ExtractedReceipt, error) {
	norm := Normalize(rawText)
	if norm == "" {
		return nil, fmt.Errorf("%w: recognized text is empty", ErrEmptyDocument)
	}
	kind := Classify(norm)
	e.log.Debug().Str("kind", string(kind)).Str("text", snippet(norm, 120)).Msg("classified document")

	lines := strings.Split(norm, "\n")
	var r *ExtractedReceipt
	if kind == KindBankStatement {
		r = e.extractStatement(lines)
	} else {
		r = e.extractReceipt(lines)
	}
	r.RawText = rawText
	r.Kind = kind
	r.ConfidenceThreshold = threshold
	for k, v := range r.ConfidenceScores {
		r.ConfidenceScores[k] = clamp01(v)
	}
	return r, nil
}

func (e *Extractor) extractReceipt(lines []string) *ExtractedReceipt {
	scores := map[string]float64{}
	r := &ExtractedReceipt{Items: []string{}, ConfidenceScores: scores}

	name, conf := detectName(lines)
	r.RestaurantName = name
	scores["restaurant_name"] = conf

	date, conf := detectDate(lines, e.refYear())
	r.Date = date
	scores["date"] = conf

	fields, all := detectAmounts(lines)
	assign := func(label string, dst **decimal.Decimal) {
		if f, ok := fields[label]; ok {
			v := f.value
			*dst = &v
			scores[label] = f.confidence
		} else {
			scores[label] = 0.15
		}
	}
	assign("total", &r.Total)
	assign("subtotal", &r.Subtotal)
	assign("tax", &r.Tax)
	assign("tip", &r.Tip)

	// the overall charged amount follows total when present, else the largest
	// currency-like value wins at reduced confidence
	switch {
	case r.Total != nil:
		v := *r.Total
		r.Amount = &v
		scores["amount"] = scores["total"]
	default:
		if v, ok := largestAmount(all); ok {
			r.Amount = &v
			scores["amount"] = 0.5
		} else {
			scores["amount"] = 0.1
		}
	}

	items, conf := detectItems(lines)
	r.Items = items
	scores["items"] = conf

	e.log.Debug().
		Int("items", len(items)).
		Bool("total_found", r.Total != nil).
		Msg("receipt fields extracted")
	return r
}

func (e *Extractor) extractStatement(lines []string) *ExtractedReceipt {
	scores := map[string]float64{}
	r := &ExtractedReceipt{Items: []string{}, ConfidenceScores: scores}

	txns, conf := parseStatement(lines, e.refYear())
	r.Transactions = txns
	scores["transactions"] = conf

	// statements have no single merchant or total; the scalar fields stay nil
	scores["restaurant_name"] = 0.1
	scores["date"] = 0.1
	scores["amount"] = 0.1

	e.log.Debug().Int("transactions", len(txns)).Msg("statement rows extracted")
	return r
}
