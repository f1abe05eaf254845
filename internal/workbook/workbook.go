// Package workbook turns tabular documents into spreadsheet workbooks.
package workbook

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/alnah/go-locprep/internal/tabular"
)

// ErrEmptyWorkbook indicates a workbook with no sheets cannot be written.
var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// SheetPrefix namespaces every sheet title.
const SheetPrefix = "helix-"

// Sheet is one worksheet: a header row of column keys followed by data rows.
type Sheet struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Workbook is an ordered list of sheets ready to be written.
type Workbook struct {
	Sheets []Sheet
}

// FromDocument builds a workbook from d. Each non-empty table becomes one
// sheet titled SheetPrefix+name (SheetPrefix+"default" for a single table);
// tables without rows are skipped.
func FromDocument(d *tabular.Document) *Workbook {
	wb := &Workbook{}
	if !d.MultiSheet() {
		wb.add(tabular.DefaultSheetName, d.Single)
		return wb
	}
	for _, name := range d.Names {
		wb.add(name, d.Table(name))
	}
	return wb
}

func (wb *Workbook) add(name string, t *tabular.Table) {
	if t == nil || len(t.Rows) == 0 {
		return
	}
	wb.Sheets = append(wb.Sheets, newSheet(SheetPrefix+name, t.Rows))
}

// newSheet lays rows out under a header holding the union of their keys in
// first-seen order. Missing cells are empty.
func newSheet(title string, rows []*tabular.Row) Sheet {
	s := Sheet{Title: title}
	index := make(map[string]int)
	for _, row := range rows {
		for _, key := range row.Keys() {
			if _, ok := index[key]; !ok {
				index[key] = len(s.Header)
				s.Header = append(s.Header, key)
			}
		}
	}
	for _, row := range rows {
		cells := make([]string, len(s.Header))
		for _, key := range row.Keys() {
			cells[index[key]], _ = row.Get(key)
		}
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// File renders the workbook into an excelize file. The caller closes it.
func (wb *Workbook) File() (*excelize.File, error) {
	if len(wb.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	f := excelize.NewFile()
	initial := f.GetSheetName(0)
	for i, s := range wb.Sheets {
		var err error
		if i == 0 {
			err = f.SetSheetName(initial, s.Title)
		} else {
			_, err = f.NewSheet(s.Title)
		}
		if err == nil {
			err = writeSheet(f, s)
		}
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("sheet %q: %w", s.Title, err), f.Close())
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	if err := setRow(f, s.Title, 1, s.Header); err != nil {
		return err
	}
	for i, cells := range s.Rows {
		if err := setRow(f, s.Title, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// Write writes the workbook in XLSX format to w.
func (wb *Workbook) Write(w io.Writer) (err error) {
	f, err := wb.File()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	_, err = f.WriteTo(w)
	return err
}

// SaveAs writes the workbook in XLSX format to path.
func (wb *Workbook) SaveAs(path string) (err error) {
	f, err := wb.File()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	return f.SaveAs(path)
}
