package parser

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

// IssuerRule maps an issuer to the lower-case keywords that identify it.
type IssuerRule struct {
	Issuer   models.Issuer
	Keywords []string
}

// DefaultIssuerRules is the detection order. Keywords are plain substrings,
// so "citi" also fires on "citibank"; an earlier rule wins whenever several
// issuers' keywords appear in the same text.
var DefaultIssuerRules = []IssuerRule{
	{Issuer: models.IssuerAmex, Keywords: []string{"american express", "amex"}},
	{Issuer: models.IssuerChase, Keywords: []string{"chase", "chase cardmember"}},
	{Issuer: models.IssuerCiti, Keywords: []string{"citibank", "citi"}},
	{Issuer: models.IssuerBankOfAmerica, Keywords: []string{"bank of america", "bofa"}},
	{Issuer: models.IssuerHSBC, Keywords: []string{"hsbc"}},
}

// Classifier picks an issuer by scanning text once for every keyword.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	matcher *ahocorasick.Matcher
	// owner[i] is the rule index owning keyword i.
	owner []int
	rules []IssuerRule
}

// NewClassifier builds a classifier over rules, preserving their order.
func NewClassifier(rules []IssuerRule) *Classifier {
	c := &Classifier{rules: rules}
	var keywords []string
	for i, rule := range rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			keywords = append(keywords, kw)
			c.owner = append(c.owner, i)
		}
	}
	if len(keywords) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(keywords)
	}
	return c
}

// Classify returns the issuer of the first rule with any keyword present,
// or IssuerUnknown.
func (c *Classifier) Classify(text string) models.Issuer {
	if c.matcher == nil || text == "" {
		return models.IssuerUnknown
	}
	hits := c.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	best := -1
	for _, kw := range hits {
		if r := c.owner[kw]; best < 0 || r < best {
			best = r
		}
	}
	if best < 0 {
		return models.IssuerUnknown
	}
	return c.rules[best].Issuer
}

var defaultClassifier = NewClassifier(DefaultIssuerRules)

// Detect classifies text with the default issuer rules.
func Detect(text string) models.Issuer {
	return defaultClassifier.Classify(text)
}
