package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

// SheetName is the worksheet the XLSX writer fills.
const SheetName = "Statements"

// XLSXWriter writes field records to a single-sheet workbook. Columns match
// the CSV output plus the raw snippet.
type XLSXWriter struct{}

// WriteToFile saves the workbook at path.
func (w *XLSXWriter) WriteToFile(path string, recs []models.FieldRecord) error {
	f, err := w.build(recs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

// Write streams the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, recs []models.FieldRecord) error {
	f, err := w.build(recs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) build(recs []models.FieldRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}
	activeIndex, err := f.GetSheetIndex(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("find sheet: %w", err)
	}
	f.SetActiveSheet(activeIndex)

	headers := append(append([]string{}, Columns...), "raw_snippet")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
	}

	for r, rec := range recs {
		values := []string{
			rec.Filename,
			string(rec.Issuer),
			rec.Last4.String(),
			rec.CardVariant.String(),
			rec.StatementPeriod.String(),
			rec.DueDate.String(),
			rec.AmountDue.String(),
			rec.RawSnippet,
		}
		for c, v := range values {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "E", "E", 30); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	return f, nil
}
