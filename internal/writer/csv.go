package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

// Row is one CSV line. Absent fields become empty cells.
type Row struct {
	Filename        string        `csv:"filename"`
	Issuer          models.Issuer `csv:"issuer"`
	Last4           models.Field  `csv:"last4"`
	CardVariant     models.Field  `csv:"card_variant"`
	StatementPeriod models.Field  `csv:"statement_period"`
	DueDate         models.Field  `csv:"due_date"`
	AmountDue       models.Field  `csv:"amount_due"`
}

// Columns is the CSV header, in order.
var Columns = []string{"filename", "issuer", "last4", "card_variant", "statement_period", "due_date", "amount_due"}

func toRow(rec models.FieldRecord) Row {
	return Row{
		Filename:        rec.Filename,
		Issuer:          rec.Issuer,
		Last4:           rec.Last4,
		CardVariant:     rec.CardVariant,
		StatementPeriod: rec.StatementPeriod,
		DueDate:         rec.DueDate,
		AmountDue:       rec.AmountDue,
	}
}

// CSVWriter writes field records to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes records to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, recs []models.FieldRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, recs)
}

// Write writes one row per record in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, recs []models.FieldRecord) error {
	rows := make([]Row, len(recs))
	for i, rec := range recs {
		rows[i] = toRow(rec)
	}

	var err error
	if w.IncludeHeader {
		err = gocsv.Marshal(rows, out)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, out)
	}
	if err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
