package models

import "encoding/json"

// Issuer identifies the card issuer whose rule set produced a record.
type Issuer string

const (
	IssuerAmex          Issuer = "American Express"
	IssuerChase         Issuer = "Chase"
	IssuerCiti          Issuer = "Citi"
	IssuerBankOfAmerica Issuer = "Bank of America"
	IssuerHSBC          Issuer = "HSBC"
	IssuerUnknown       Issuer = "Unknown"
)

// Issuers lists every named issuer followed by the Unknown fallback.
var Issuers = []Issuer{
	IssuerAmex,
	IssuerChase,
	IssuerCiti,
	IssuerBankOfAmerica,
	IssuerHSBC,
	IssuerUnknown,
}

// Known reports whether i belongs to the closed issuer set.
func (i Issuer) Known() bool {
	for _, known := range Issuers {
		if i == known {
			return true
		}
	}
	return false
}

// Field is an extracted value that is either present or absent.
// The zero value is absent.
type Field struct {
	value   string
	present bool
}

// Present wraps a found value.
func Present(v string) Field {
	return Field{value: v, present: true}
}

// Absent returns a field with no value.
func Absent() Field {
	return Field{}
}

// Get returns the value and whether it was found.
func (f Field) Get() (string, bool) {
	return f.value, f.present
}

// IsPresent reports whether the field holds a value.
func (f Field) IsPresent() bool {
	return f.present
}

// String returns the value, or "" when absent.
func (f Field) String() string {
	return f.value
}

// MarshalJSON encodes absent fields as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON treats null as absent.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Absent()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = Present(s)
	return nil
}

// MarshalCSV renders absent fields as an empty cell.
func (f Field) MarshalCSV() (string, error) {
	return f.value, nil
}

// FieldRecord is the outcome of one extraction run.
type FieldRecord struct {
	Filename        string `json:"filename"`
	Issuer          Issuer `json:"issuer"`
	Last4           Field  `json:"last4"`
	CardVariant     Field  `json:"card_variant"`
	StatementPeriod Field  `json:"statement_period"`
	DueDate         Field  `json:"due_date"` // YYYY-MM-DD
	AmountDue       Field  `json:"amount_due"`
	RawSnippet      string `json:"raw_sample_snippet"`
}

// FieldNames are the optional record fields in display order.
var FieldNames = []string{"last4", "card_variant", "statement_period", "due_date", "amount_due"}

// Fields returns the optional fields keyed by FieldNames entry.
func (r FieldRecord) Fields() map[string]Field {
	return map[string]Field{
		"last4":            r.Last4,
		"card_variant":     r.CardVariant,
		"statement_period": r.StatementPeriod,
		"due_date":         r.DueDate,
		"amount_due":       r.AmountDue,
	}
}

// Empty returns the record produced when nothing could be extracted.
func Empty(filename string) FieldRecord {
	return FieldRecord{Filename: filename, Issuer: IssuerUnknown}
}
