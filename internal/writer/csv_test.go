package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

func sampleRecords() []models.FieldRecord {
	return []models.FieldRecord{
		{
			Filename:    "amex.pdf",
			Issuer:      models.IssuerAmex,
			Last4:       models.Present("1234"),
			CardVariant: models.Present("Platinum"),
			DueDate:     models.Present("2024-03-05"),
			AmountDue:   models.Present("523.10"),
			RawSnippet:  "American Express Card ending in: 1234",
		},
		{
			Filename:        "chase.pdf",
			Issuer:          models.IssuerChase,
			Last4:           models.Present("9876"),
			StatementPeriod: models.Present("Feb 1, 2024 - Feb 29, 2024"),
			AmountDue:       models.Present("1,024.55"),
			RawSnippet:      "Chase Sapphire",
		},
		models.Empty("blank.pdf"),
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	require.NoError(t, w.Write(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "amex.pdf,American Express,1234,Platinum,,2024-03-05,523.10", lines[1])
	assert.Equal(t, `chase.pdf,Chase,9876,,"Feb 1, 2024 - Feb 29, 2024",,"1,024.55"`, lines[2])
	assert.Equal(t, "blank.pdf,Unknown,,,,,", lines[3])
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	require.NoError(t, w.Write(&buf, sampleRecords()[:1]))

	assert.Equal(t, "amex.pdf,American Express,1234,Platinum,,2024-03-05,523.10\n", buf.String())
	assert.NotContains(t, buf.String(), "filename")
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{IncludeHeader: true}
	require.NoError(t, w.WriteToFile(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "filename,issuer,last4"))
	assert.Contains(t, string(data), "blank.pdf,Unknown")
}

func TestCSVWriter_WriteToFileBadPath(t *testing.T) {
	w := &CSVWriter{}
	err := w.WriteToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	assert.Error(t, err)
}
