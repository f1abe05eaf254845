package tabular

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON indicates the input is not a JSON object.
var ErrInvalidJSON = errors.New("invalid tabular JSON")

// JSON markers of multi-sheet documents.
const (
	typeKey        = ":type"
	namesKey       = ":names"
	typeSheet      = "sheet"
	typeMultiSheet = "multi-sheet"
	dataKey        = "data"
	totalKey       = "total"
	offsetKey      = "offset"
	limitKey       = "limit"
)

// Field is a total, offset or limit value kept as text. The zero Field is
// absent, which is distinct from a present empty value.
type Field struct {
	Value string
	Valid bool
}

// Present returns a present Field holding v.
func Present(v string) Field {
	return Field{Value: v, Valid: true}
}

// Row maps column keys to text values and remembers key order.
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow builds a row from alternating key, value pairs.
func NewRow(kv ...string) *Row {
	r := &Row{}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// Set stores value under key. A new key is appended to the key order;
// an existing key keeps its position.
func (r *Row) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Row) Len() int {
	return len(r.keys)
}

// Table is one sheet.
type Table struct {
	Total  Field
	Offset Field
	Limit  Field
	Rows   []*Row
}

// Document is a single table (Single != nil) or a multi-sheet document
// whose Names order the entries of Tables.
type Document struct {
	Single *Table
	Names  []string
	Tables map[string]*Table
}

// MultiSheet reports whether d is a multi-sheet document.
func (d *Document) MultiSheet() bool {
	return d.Single == nil
}

// Table returns the named sheet of a multi-sheet document, or an empty
// table when the name is unknown.
func (d *Document) Table(name string) *Table {
	if t, ok := d.Tables[name]; ok && t != nil {
		return t
	}
	return &Table{}
}

// ParseJSON reads a tabular document. A document is multi-sheet when
// ":type" is "multi-sheet" and ":names" is present; otherwise the top-level
// object is the single table. Numbers are written the way JavaScript prints
// them ("1.0" becomes "1"); other non-string values keep their JSON text.
func ParseJSON(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrInvalidJSON
	}

	fields := make(map[string]gjson.Result)
	root.ForEach(func(k, v gjson.Result) bool {
		fields[k.String()] = v
		return true
	})

	names, hasNames := fields[namesKey]
	if fields[typeKey].String() != typeMultiSheet || !hasNames || !names.IsArray() {
		return &Document{Single: parseTable(root)}, nil
	}

	d := &Document{Names: []string{}, Tables: make(map[string]*Table)}
	names.ForEach(func(_, n gjson.Result) bool {
		name := n.String()
		d.Names = append(d.Names, name)
		d.Tables[name] = parseTable(fields[name])
		return true
	})
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func parseTable(obj gjson.Result) *Table {
	t := &Table{
		Total:  field(obj.Get(totalKey)),
		Offset: field(obj.Get(offsetKey)),
		Limit:  field(obj.Get(limitKey)),
	}
	obj.Get(dataKey).ForEach(func(_, rec gjson.Result) bool {
		row := &Row{}
		if rec.IsObject() {
			rec.ForEach(func(k, v gjson.Result) bool {
				row.Set(k.String(), text(v))
				return true
			})
		}
		t.Rows = append(t.Rows, row)
		return true
	})
	return t
}

// field reads a total/offset/limit value; missing and null are absent.
func field(v gjson.Result) Field {
	if !v.Exists() || v.Type == gjson.Null {
		return Field{}
	}
	return Present(text(v))
}

// text coerces a JSON value to the text a DOM would hold.
func text(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number:
		return numberText(v.Num)
	default:
		return v.Raw
	}
}

// numberText formats f as JavaScript's String(number) does: shortest
// round-trip digits, plain notation from 1e-6 up to 1e21, exponent
// notation without zero padding outside that range.
func numberText(f float64) string {
	if f == 0 {
		return "0"
	}
	if abs := max(f, -f); abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON writes d in the sheet JSON format, preserving sheet order,
// row order and key order. Absent total/offset/limit are written as null;
// present ones, empty included, as strings.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if !d.MultiSheet() {
		buf.WriteString(`":type":"sheet",":names":[],`)
		writeTableFields(&buf, d.Single)
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	buf.WriteString(`":type":"multi-sheet",":names":[`)
	for i, name := range d.Names {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, name)
	}
	buf.WriteByte(']')
	for _, name := range d.Names {
		buf.WriteByte(',')
		writeString(&buf, name)
		buf.WriteString(":{")
		writeTableFields(&buf, d.Table(name))
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeTableFields(buf *bytes.Buffer, t *Table) {
	writeField(buf, totalKey, t.Total)
	buf.WriteByte(',')
	writeField(buf, offsetKey, t.Offset)
	buf.WriteByte(',')
	writeField(buf, limitKey, t.Limit)
	buf.WriteString(`,"data":[`)
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, key := range row.keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, key)
			buf.WriteByte(':')
			writeString(buf, row.values[key])
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
}

func writeField(buf *bytes.Buffer, key string, f Field) {
	writeString(buf, key)
	buf.WriteByte(':')
	if !f.Valid {
		buf.WriteString("null")
		return
	}
	writeString(buf, f.Value)
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	buf.Truncate(buf.Len() - 1)
}
