package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

// Parser defines the interface for issuer statement parsers.
type Parser interface {
	// Parse takes normalized statement text and returns the fields it could find.
	Parse(text string) models.FieldRecord
	// IssuerName returns the issuer this parser is tuned for.
	IssuerName() string
}

// New returns the parser for the given issuer name. Names are matched
// case-insensitively against the known issuers; "unknown" and "generic"
// select the fallback rule set.
func New(name string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "amex", "american express":
		return amexProfile, nil
	case "chase":
		return chaseProfile, nil
	case "citi", "citibank":
		return citiProfile, nil
	case "bofa", "bank of america", "bankofamerica":
		return bofaProfile, nil
	case "hsbc":
		return hsbcProfile, nil
	case "unknown", "generic":
		return genericProfile, nil
	default:
		return nil, fmt.Errorf("unsupported issuer: %q", name)
	}
}

// Extract runs the rule set selected by issuer over text. Issuers without a
// rule set fall back to the generic one, reported as IssuerUnknown.
func Extract(issuer models.Issuer, text string) models.FieldRecord {
	return ProfileFor(issuer).Parse(text)
}

func (p *Profile) IssuerName() string {
	return string(p.Issuer)
}

// Parse applies every field rule list to text. Fields are independent: a
// miss on one never affects another.
func (p *Profile) Parse(text string) models.FieldRecord {
	return models.FieldRecord{
		Issuer:          p.Issuer,
		Last4:           p.last4(text),
		CardVariant:     capture(text, p.CardVariant),
		StatementPeriod: p.statementPeriod(text),
		DueDate:         p.dueDate(text),
		AmountDue:       capture(text, p.AmountDue),
	}
}

var fourDigits = regexp.MustCompile(`^[0-9]{4}$`)

func (p *Profile) last4(text string) models.Field {
	v, ok := capture(text, p.Last4).Get()
	if !ok || !fourDigits.MatchString(v) {
		return models.Absent()
	}
	return models.Present(v)
}

func (p *Profile) statementPeriod(text string) models.Field {
	v, ok := capture(text, p.StatementPeriod).Get()
	if !ok {
		return models.Absent()
	}
	if v = NormalizeSpaces(v); v == "" {
		return models.Absent()
	}
	return models.Present(v)
}

func (p *Profile) dueDate(text string) models.Field {
	raw, ok := capture(text, p.DueDate).Get()
	if !ok {
		return models.Absent()
	}
	date, ok := NormalizeDate(raw)
	if !ok {
		return models.Absent()
	}
	return models.Present(date)
}

// capture wraps MatchFirst; an empty capture counts as a miss.
func capture(text string, patterns []*regexp.Regexp) models.Field {
	m, ok := MatchFirst(text, patterns)
	if !ok || m.Value == "" {
		return models.Absent()
	}
	return models.Present(m.Value)
}
