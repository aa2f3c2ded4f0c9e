package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// jsonReceipt is the wire shape of an ExtractedReceipt. The field names are
// the public contract.
type jsonReceipt struct {
	RestaurantName      *string            `json:"restaurant_name"`
	Date                *string            `json:"date"`
	Amount              *decimal.Decimal   `json:"amount"`
	Total               *decimal.Decimal   `json:"total"`
	Tax                 *decimal.Decimal   `json:"tax"`
	Tip                 *decimal.Decimal   `json:"tip"`
	Subtotal            *decimal.Decimal   `json:"subtotal"`
	Items               []string           `json:"items"`
	Transactions        []jsonTransaction  `json:"transactions,omitempty"`
	ConfidenceScores    map[string]float64 `json:"confidence_scores"`
	RawText             string             `json:"raw_text"`
	DocumentKind        DocumentKind       `json:"document_kind"`
	ConfidenceThreshold float64            `json:"confidence_threshold"`
}

type jsonTransaction struct {
	Date        *string         `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// MarshalJSON renders the machine-readable form; dates are ISO 8601.
func (r *ExtractedReceipt) MarshalJSON() ([]byte, error) {
	out := jsonReceipt{
		RestaurantName:      r.RestaurantName,
		Date:                isoDate(r.Date),
		Amount:              r.Amount,
		Total:               r.Total,
		Tax:                 r.Tax,
		Tip:                 r.Tip,
		Subtotal:            r.Subtotal,
		Items:               r.Items,
		ConfidenceScores:    r.ConfidenceScores,
		RawText:             r.RawText,
		DocumentKind:        r.Kind,
		ConfidenceThreshold: r.ConfidenceThreshold,
	}
	if out.Items == nil {
		out.Items = []string{}
	}
	for _, t := range r.Transactions {
		out.Transactions = append(out.Transactions, jsonTransaction{
			Date:        isoDate(t.Date),
			Amount:      t.Amount,
			Description: t.Description,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a record from its wire shape.
func (r *ExtractedReceipt) UnmarshalJSON(data []byte) error {
	var in jsonReceipt
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	date, err := parseISODate(in.Date)
	if err != nil {
		return err
	}
	*r = ExtractedReceipt{
		RestaurantName:      in.RestaurantName,
		Date:                date,
		Amount:              in.Amount,
		Total:               in.Total,
		Tax:                 in.Tax,
		Tip:                 in.Tip,
		Subtotal:            in.Subtotal,
		Items:               in.Items,
		ConfidenceScores:    in.ConfidenceScores,
		RawText:             in.RawText,
		Kind:                in.DocumentKind,
		ConfidenceThreshold: in.ConfidenceThreshold,
	}
	if r.Items == nil {
		r.Items = []string{}
	}
	for _, t := range in.Transactions {
		d, err := parseISODate(t.Date)
		if err != nil {
			return err
		}
		r.Transactions = append(r.Transactions, Transaction{Date: d, Amount: t.Amount, Description: t.Description})
	}
	return nil
}

// FormatJSON renders the record as indented JSON.
func FormatJSON(r *ExtractedReceipt) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatText renders a fixed-layout human-readable block: bordered header,
// labeled fields, items, and the confidence section. Presentation only.
func FormatText(r *ExtractedReceipt) string {
	var b strings.Builder
	border := strings.Repeat("=", 44)
	title := "RECEIPT EXTRACTION"
	if r.Kind == KindBankStatement {
		title = "STATEMENT EXTRACTION"
	}
	fmt.Fprintf(&b, "%s\n%s%s\n%s\n", border, strings.Repeat(" ", (44-len(title))/2), title, border)

	fmt.Fprintf(&b, "Restaurant : %s\n", orDash(r.RestaurantName))
	fmt.Fprintf(&b, "Date       : %s\n", orDashDate(r.Date))
	fmt.Fprintf(&b, "Amount     : %s\n", orDashDec(r.Amount))
	fmt.Fprintf(&b, "Subtotal   : %s\n", orDashDec(r.Subtotal))
	fmt.Fprintf(&b, "Tax        : %s\n", orDashDec(r.Tax))
	fmt.Fprintf(&b, "Tip        : %s\n", orDashDec(r.Tip))
	fmt.Fprintf(&b, "Total      : %s\n", orDashDec(r.Total))

	if len(r.Items) > 0 {
		b.WriteString("\nItems:\n")
		for _, it := range r.Items {
			fmt.Fprintf(&b, "  - %s\n", it)
		}
	}
	if len(r.Transactions) > 0 {
		b.WriteString("\nTransactions:\n")
		for _, t := range r.Transactions {
			fmt.Fprintf(&b, "  %s  %10s  %s\n", orDashDate(t.Date), t.Amount.StringFixed(2), t.Description)
		}
	}

	b.WriteString("\nConfidence scores:\n")
	keys := make([]string, 0, len(r.ConfidenceScores))
	for k := range r.ConfidenceScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-16s %.2f\n", k, r.ConfidenceScores[k])
	}
	b.WriteString(border + "\n")
	return b.String()
}

func isoDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseISODate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", *s, err)
	}
	return &t, nil
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func orDashDec(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func orDashDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
