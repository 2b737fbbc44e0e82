package writer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &XLSXWriter{}
	require.NoError(t, w.Write(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"filename", "issuer", "last4", "card_variant", "statement_period", "due_date", "amount_due", "raw_snippet"}, rows[0])
	assert.Equal(t, []string{"amex.pdf", "American Express", "1234", "Platinum", "", "2024-03-05", "523.10", "American Express Card ending in: 1234"}, rows[1])
	assert.Equal(t, "Feb 1, 2024 - Feb 29, 2024", rows[2][4])
	assert.Equal(t, "1,024.55", rows[2][6])
	assert.Equal(t, []string{"blank.pdf", "Unknown"}, rows[3])
}

func TestXLSXWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	w := &XLSXWriter{}
	require.NoError(t, w.WriteToFile(path, sampleRecords()[:1]))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "1234", v)
}

func TestXLSXWriter_SheetLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&XLSXWriter{}).Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 0, f.GetActiveSheetIndex())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "raw_snippet", rows[0][7])

	width, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.Equal(t, 24.0, width)
	width, err = f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	assert.Equal(t, 30.0, width)
}
