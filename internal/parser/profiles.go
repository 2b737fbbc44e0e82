package parser

import (
	"regexp"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

// Profile is the rule set for one issuer. Each field is an ordered list of
// patterns, most specific first.
type Profile struct {
	Issuer          models.Issuer
	Last4           []*regexp.Regexp
	CardVariant     []*regexp.Regexp
	StatementPeriod []*regexp.Regexp
	DueDate         []*regexp.Regexp
	AmountDue       []*regexp.Regexp
}

// Shared capture shapes.
const (
	periodValue = `([\w,\s\-/\d]+)`
	dateValue   = `([A-Za-z0-9 ,/\-]+)`
	amountValue = `\$?([,\d\.]+)`
	sep         = `[:\s]*`
)

var amexProfile = &Profile{
	Issuer: models.IssuerAmex,
	Last4: compileRules(
		`Card ending in[:\s]*?(\d{4})`,
		`ending in[:\s]*?(\d{4})`,
	),
	CardVariant: compileRules(
		`(Platinum|Gold|Green|Centurion|Blue|Everyday|Cashback|Corporate)\s+Card`,
		`American Express\s+([A-Za-z]+)\s+Card`,
	),
	StatementPeriod: compileRules(
		`Statement Period`+sep+periodValue,
		`Statement Summary\s*Period`+sep+periodValue,
		`For the period`+sep+periodValue,
	),
	DueDate: compileRules(
		`Due Date`+sep+dateValue,
		`Payment Due Date`+sep+dateValue,
	),
	AmountDue: compileRules(
		`Amount Due`+sep+amountValue,
		`Total Amount Due`+sep+amountValue,
		`New Balance`+sep+amountValue,
	),
}

var chaseProfile = &Profile{
	Issuer: models.IssuerChase,
	Last4: compileRules(
		`Account ending in[:\s]*?(\d{4})`,
		`Card ending in[:\s]*?(\d{4})`,
	),
	CardVariant: compileRules(
		`(Sapphire|Freedom|Ink|Slate|Preferred|Reserve|Bold)\s+(?:Card|Account|Cardmember)?`,
		`Chase\s+([A-Za-z]+)\s+Card`,
	),
	StatementPeriod: compileRules(
		`Statement Period`+sep+periodValue,
		`For the period`+sep+periodValue,
	),
	DueDate: compileRules(
		`Payment Due Date`+sep+dateValue,
		`Due Date`+sep+dateValue,
	),
	AmountDue: compileRules(
		`Total Amount Due`+sep+amountValue,
		`New Balance`+sep+amountValue,
		`Amount Due`+sep+amountValue,
	),
}

var citiProfile = &Profile{
	Issuer: models.IssuerCiti,
	Last4: compileRules(
		`Card ending in[:\s]*?(\d{4})`,
		`ending in (\d{4})`,
	),
	CardVariant: compileRules(
		`(Premier|Prestige|Gold|Platinum|Custom|Simplicity|Double Cash|Double)\s+Card`,
		`Citi\s+([A-Za-z]+)\s+Card`,
	),
	StatementPeriod: compileRules(
		`Statement Period`+sep+periodValue,
		`Statement Date`+sep+periodValue,
	),
	DueDate: compileRules(
		`Payment Due Date`+sep+dateValue,
		`Due Date`+sep+dateValue,
	),
	AmountDue: compileRules(
		`Total Amount Due`+sep+amountValue,
		`Amount due now`+sep+amountValue,
		`Current Due`+sep+amountValue,
	),
}

var bofaProfile = &Profile{
	Issuer: models.IssuerBankOfAmerica,
	Last4: compileRules(
		`Account Number[:\s]*\*+(\d{4})`,
		`ending in (\d{4})`,
	),
	CardVariant: compileRules(
		`(Preferred|Platinum|Cash Rewards|Travel Rewards|Customized Cash Rewards)\s+Card`,
		`Bank of America\s+([A-Za-z]+)\s+Card`,
	),
	StatementPeriod: compileRules(
		`Statement Period`+sep+periodValue,
		`Activity Period`+sep+periodValue,
	),
	DueDate: compileRules(
		`Payment Due Date`+sep+dateValue,
		`Due Date`+sep+dateValue,
	),
	AmountDue: compileRules(
		`Total Due`+sep+amountValue,
		`Amount Due`+sep+amountValue,
		`Current Balance`+sep+amountValue,
	),
}

var hsbcProfile = &Profile{
	Issuer: models.IssuerHSBC,
	Last4: compileRules(
		`Card number[:\s]*\*+(\d{4})`,
		`ending in[:\s]*(\d{4})`,
	),
	CardVariant: compileRules(
		`(Premier|Advance|Platinum|Gold|Red)\s+Card`,
		`HSBC\s+([A-Za-z]+)\s+Card`,
	),
	StatementPeriod: compileRules(
		`Statement Period`+sep+periodValue,
		`Account summary for the period`+sep+periodValue,
	),
	DueDate: compileRules(
		`Due Date`+sep+dateValue,
		`Payment Due Date`+sep+dateValue,
	),
	AmountDue: compileRules(
		`Total Amount Due`+sep+amountValue,
		`Amount Due`+sep+amountValue,
		`Total due`+sep+amountValue,
	),
}

// genericProfile serves statements from issuers with no dedicated rule set.
var genericProfile = &Profile{
	Issuer: models.IssuerUnknown,
	Last4: compileRules(
		`ending in[:\s]*?(\d{4})`,
		`Account Number[:\s]*\*+(\d{4})`,
		`Card\s+ending[:\s]*?(\d{4})`,
	),
	CardVariant: compileRules(
		`(Platinum|Gold|Silver|Classic|Cashback|Rewards|Signature|Infinite)\s+(?:Card|Account)`,
		`Card Type[:\s]*([A-Za-z0-9 ]+)`,
	),
	StatementPeriod: compileRules(
		`(?:Statement Period|Statement Date|For the period)`+sep+periodValue,
	),
	DueDate: compileRules(
		`(?:Payment Due Date|Due Date)`+sep+dateValue,
	),
	AmountDue: compileRules(
		`(?:Total Amount Due|Amount Due|New Balance|Current Balance)`+sep+amountValue,
	),
}

// profiles is the registry of rule sets. It is never mutated after init.
var profiles = map[models.Issuer]*Profile{
	models.IssuerAmex:          amexProfile,
	models.IssuerChase:         chaseProfile,
	models.IssuerCiti:          citiProfile,
	models.IssuerBankOfAmerica: bofaProfile,
	models.IssuerHSBC:          hsbcProfile,
	models.IssuerUnknown:       genericProfile,
}

// ProfileFor returns the rule set for issuer, or the generic one.
func ProfileFor(issuer models.Issuer) *Profile {
	if p, ok := profiles[issuer]; ok {
		return p
	}
	return genericProfile
}
