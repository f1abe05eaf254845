package workbook

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/alnah/go-locprep/internal/tabular"
)

func TestFromDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		doc        *tabular.Document
		wantTitles []string
	}{
		{
			name:       "single table with rows",
			doc:        &tabular.Document{Single: &tabular.Table{Rows: []*tabular.Row{tabular.NewRow("a", "1")}}},
			wantTitles: []string{"helix-default"},
		},
		{
			name:       "single table without rows",
			doc:        &tabular.Document{Single: &tabular.Table{Total: tabular.Present("0")}},
			wantTitles: nil,
		},
		{
			name: "multi sheet skips empty tables",
			doc: &tabular.Document{
				Names: []string{"b", "empty", "a", "unknown"},
				Tables: map[string]*tabular.Table{
					"a":     {Rows: []*tabular.Row{tabular.NewRow("k", "v")}},
					"b":     {Rows: []*tabular.Row{tabular.NewRow("k", "v")}},
					"empty": {},
				},
			},
			wantTitles: []string{"helix-b", "helix-a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wb := FromDocument(tt.doc)
			var titles []string
			for _, s := range wb.Sheets {
				titles = append(titles, s.Title)
			}
			if !reflect.DeepEqual(titles, tt.wantTitles) {
				t.Errorf("titles = %q, want %q", titles, tt.wantTitles)
			}
		})
	}
}

func TestFromDocument_HeaderIsKeyUnion(t *testing.T) {
	t.Parallel()

	doc := &tabular.Document{Single: &tabular.Table{Rows: []*tabular.Row{
		tabular.NewRow("Key", "k1", "Text", "one"),
		tabular.NewRow("Text", "two", "Note", "n", "Key", "k2"),
	}}}

	s := FromDocument(doc).Sheets[0]
	if !reflect.DeepEqual(s.Header, []string{"Key", "Text", "Note"}) {
		t.Errorf("Header = %q", s.Header)
	}
	want := [][]string{{"k1", "one", ""}, {"k2", "two", "n"}}
	if !reflect.DeepEqual(s.Rows, want) {
		t.Errorf("Rows = %q, want %q", s.Rows, want)
	}
}

func TestWorkbook_Write(t *testing.T) {
	t.Parallel()

	doc := &tabular.Document{
		Names: []string{"placeholders", "labels"},
		Tables: map[string]*tabular.Table{
			"placeholders": {Rows: []*tabular.Row{tabular.NewRow("Key", "buy", "Text", "Buy now")}},
			"labels":       {Rows: []*tabular.Row{tabular.NewRow("Label", "Cart")}},
		},
	}

	var buf bytes.Buffer
	if err := FromDocument(doc).Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"helix-placeholders", "helix-labels"}) {
		t.Errorf("GetSheetList() = %q", got)
	}
	rows, err := f.GetRows("helix-placeholders")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"Key", "Text"}, {"buy", "Buy now"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestWorkbook_EmptyCannotBeWritten(t *testing.T) {
	t.Parallel()

	wb := FromDocument(&tabular.Document{Single: &tabular.Table{}})
	if err := wb.Write(&bytes.Buffer{}); !errors.Is(err, ErrEmptyWorkbook) {
		t.Errorf("Write() error = %v, want ErrEmptyWorkbook", err)
	}
	if err := wb.SaveAs(filepath.Join(t.TempDir(), "out.xlsx")); !errors.Is(err, ErrEmptyWorkbook) {
		t.Errorf("SaveAs() error = %v, want ErrEmptyWorkbook", err)
	}
}

func TestWorkbook_SaveAs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sheet.xlsx")
	wb := FromDocument(&tabular.Document{Single: &tabular.Table{Rows: []*tabular.Row{tabular.NewRow("a", "1")}}})
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"helix-default"}) {
		t.Errorf("GetSheetList() = %q", got)
	}
}

func TestWorkbook_InvalidTitle(t *testing.T) {
	t.Parallel()

	wb := FromDocument(&tabular.Document{
		Names:  []string{strings.Repeat("x", 40)},
		Tables: map[string]*tabular.Table{strings.Repeat("x", 40): {Rows: []*tabular.Row{tabular.NewRow("a", "1")}}},
	})
	if _, err := wb.File(); err == nil {
		t.Error("File() error = nil, want error for a title over 31 characters")
	}
}
