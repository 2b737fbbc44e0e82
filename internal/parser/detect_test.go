package parser

import (
	"sync"
	"testing"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.Issuer
	}{
		{"american express", "Welcome to AMERICAN EXPRESS online", models.IssuerAmex},
		{"amex short form", "amex.com/statements", models.IssuerAmex},
		{"chase", "Chase Cardmember Service", models.IssuerChase},
		{"citibank", "CitiBank N.A. statement", models.IssuerCiti},
		{"citi", "Citi Double Cash Card", models.IssuerCiti},
		{"bank of america", "Bank of America, N.A.", models.IssuerBankOfAmerica},
		{"bofa", "Pay online at bofa.com", models.IssuerBankOfAmerica},
		{"hsbc", "HSBC Bank USA", models.IssuerHSBC},
		{"amex wins over chase", "Chase Bank transfer to American Express", models.IssuerAmex},
		{"chase wins over citi", "Citibank payment received by Chase", models.IssuerChase},
		{"citi wins over hsbc", "HSBC and Citi", models.IssuerCiti},
		{"substring containment", "thank you for your purchase", models.IssuerChase},
		{"no issuer", "Some Credit Union Statement", models.IssuerUnknown},
		{"empty", "", models.IssuerUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.expected {
				t.Errorf("Detect(%q): got %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifier([]IssuerRule{
		{Issuer: models.IssuerHSBC, Keywords: []string{"HSBC", ""}},
		{Issuer: models.IssuerCiti, Keywords: []string{"citi"}},
	})

	tests := []struct {
		text     string
		expected models.Issuer
	}{
		{"hsbc and citi", models.IssuerHSBC},
		{"CITI only", models.IssuerCiti},
		{"neither", models.IssuerUnknown},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.text); got != tt.expected {
			t.Errorf("Classify(%q): got %q, want %q", tt.text, got, tt.expected)
		}
	}
}

func TestClassifier_NoRules(t *testing.T) {
	c := NewClassifier(nil)
	if got := c.Classify("American Express"); got != models.IssuerUnknown {
		t.Errorf("got %q, want %q", got, models.IssuerUnknown)
	}
}

func TestClassifier_ConcurrentUse(t *testing.T) {
	texts := map[string]models.Issuer{
		"American Express": models.IssuerAmex,
		"Chase":            models.IssuerChase,
		"Citibank":         models.IssuerCiti,
		"Bank of America":  models.IssuerBankOfAmerica,
		"HSBC":             models.IssuerHSBC,
		"Credit Union":     models.IssuerUnknown,
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for text, want := range texts {
					if got := Detect(text); got != want {
						t.Errorf("Detect(%q): got %q, want %q", text, got, want)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
