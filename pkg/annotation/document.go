package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Document is the annotation tree for one record: an ordered set of named
// fields, some single-valued, some tabular, some nested groups. Mutations are
// copy-on-write: every Set/Update/AddRow/DeleteRow returns a new *Document
// sharing untouched fields with the receiver, so a failed save can keep the
// edited copy while the caller's snapshot stays pristine.
type Document struct {
	order  []string
	fields map[string]Field
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{fields: map[string]Field{}}
}

// clone copies the field index and order slice. Field payloads are shared
// until a mutation replaces them.
func (d *Document) clone() *Document {
	out := &Document{
		order:  append([]string(nil), d.order...),
		fields: make(map[string]Field, len(d.fields)),
	}
	for k, v := range d.fields {
		out.fields[k] = v
	}
	return out
}

// Len returns the number of top-level fields.
func (d *Document) Len() int { return len(d.order) }

// Names returns the top-level field names in document order.
func (d *Document) Names() []string {
	return append([]string(nil), d.order...)
}

// Field looks up a top-level field by name.
func (d *Document) Field(name string) (Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Put sets or replaces a top-level field, appending to the order when the
// name is new. It mutates the receiver and is meant for document assembly;
// use the Set* methods for copy-on-write edits.
func (d *Document) Put(name string, f Field) {
	if _, ok := d.fields[name]; !ok {
		d.order = append(d.order, name)
	}
	d.fields[name] = f
}

// Value resolves a dotted path to its leaf FieldValue. Paths address single
// fields ("InvoiceDate") or leaves of nested groups ("Supplier.GSTIN").
func (d *Document) Value(path string) (FieldValue, error) {
	head, rest, nested := strings.Cut(path, ".")
	f, ok := d.fields[head]
	if !ok {
		return FieldValue{}, annotationErrors.New(ErrUnknownField).WithDetail("path", path)
	}
	if nested {
		if f.Shape != ShapeGroup {
			return FieldValue{}, annotationErrors.New(ErrShapeMismatch).WithDetail("path", path)
		}
		return f.Group.Value(rest)
	}
	if f.Shape != ShapeSingle {
		return FieldValue{}, annotationErrors.New(ErrShapeMismatch).WithDetail("path", path)
	}
	return f.Value, nil
}

// Cell resolves one table or region-map cell.
func (d *Document) Cell(table string, row int, col string) (FieldValue, error) {
	f, ok := d.fields[table]
	if !ok {
		return FieldValue{}, annotationErrors.New(ErrUnknownField).WithDetail("field", table)
	}
	if !f.Tabular() {
		return FieldValue{}, annotationErrors.New(ErrShapeMismatch).WithDetail("field", table)
	}
	if row < 0 || row >= len(f.Rows) {
		return FieldValue{}, annotationErrors.New(ErrRowOutOfRange).WithDetails(map[string]interface{}{
			"field": table, "row": row, "rows": len(f.Rows),
		})
	}
	v, ok := f.Rows[row][col]
	if !ok {
		return FieldValue{}, annotationErrors.New(ErrUnknownField).WithDetail("field", table+"."+col)
	}
	return v, nil
}

// withLeaf walks a dotted path copy-on-write and replaces the leaf value with
// fn(old). Missing intermediate groups are created so a recognizer can
// populate a leaf the loaded payload never mentioned.
func (d *Document) withLeaf(path string, fn func(FieldValue) FieldValue) (*Document, error) {
	head, rest, nested := strings.Cut(path, ".")
	out := d.clone()
	f, ok := out.fields[head]

	if nested {
		switch {
		case !ok:
			f = GroupField(NewDocument())
			out.order = append(out.order, head)
		case f.Shape != ShapeGroup:
			return nil, annotationErrors.New(ErrShapeMismatch).WithDetail("path", path)
		}
		sub, err := f.Group.withLeaf(rest, fn)
		if err != nil {
			return nil, err
		}
		out.fields[head] = GroupField(sub)
		return out, nil
	}

	switch {
	case !ok:
		f = SingleField(EmptyValue())
		out.order = append(out.order, head)
	case f.Shape != ShapeSingle:
		return nil, annotationErrors.New(ErrShapeMismatch).WithDetail("path", path)
	}
	out.fields[head] = SingleField(fn(f.Value))
	return out, nil
}

// SetText replaces the text of the leaf at path, leaving its location alone.
func (d *Document) SetText(path, text string) (*Document, error) {
	return d.withLeaf(path, func(v FieldValue) FieldValue {
		v.Text = text
		return v
	})
}

// SetLocation replaces the region of the leaf at path. A nil loc clears it
// back to the unset sentinel. The text is never touched.
func (d *Document) SetLocation(path string, loc *Location) (*Document, error) {
	next := Unset()
	if loc != nil {
		next = *loc
	}
	return d.withLeaf(path, func(v FieldValue) FieldValue {
		v.Location = next
		return v
	})
}

// SetComment replaces the review comment of the leaf at path. A nil comment
// clears it.
func (d *Document) SetComment(path string, comment *string) (*Document, error) {
	next := ""
	if comment != nil {
		next = *comment
	}
	return d.withLeaf(path, func(v FieldValue) FieldValue {
		v.Comment = next
		return v
	})
}

// SetValue replaces the whole leaf at path.
func (d *Document) SetValue(path string, v FieldValue) (*Document, error) {
	return d.withLeaf(path, func(FieldValue) FieldValue { return v })
}

// withRows replaces the row slice of a tabular field copy-on-write.
func (d *Document) withRows(table string, fn func([]Row) ([]Row, error)) (*Document, error) {
	f, ok := d.fields[table]
	if !ok {
		return nil, annotationErrors.New(ErrUnknownField).WithDetail("field", table)
	}
	if !f.Tabular() {
		return nil, annotationErrors.New(ErrShapeMismatch).WithDetail("field", table)
	}
	rows, err := fn(f.Rows)
	if err != nil {
		return nil, err
	}
	out := d.clone()
	out.fields[table] = Field{Shape: f.Shape, Rows: rows}
	return out, nil
}

// UpdateCell applies a patch to one table cell. The row must exist; a stale
// index after a concurrent row deletion is reported, never clamped.
func (d *Document) UpdateCell(table string, row int, col string, patch CellPatch) (*Document, error) {
	return d.withRows(table, func(rows []Row) ([]Row, error) {
		if row < 0 || row >= len(rows) {
			return nil, annotationErrors.New(ErrRowOutOfRange).WithDetails(map[string]interface{}{
				"field": table, "row": row, "rows": len(rows),
			})
		}
		out := append([]Row(nil), rows...)
		next := out[row].clone()
		v, ok := next[col]
		if !ok {
			v = EmptyValue()
		}
		next[col] = patch.apply(v)
		out[row] = next
		return out, nil
	})
}

// AddRow appends a blank row cloning the column set of the last existing row,
// or the field's vocabulary columns when the table is empty.
func (d *Document) AddRow(table string) (*Document, error) {
	return d.withRows(table, func(rows []Row) ([]Row, error) {
		var next Row
		if len(rows) > 0 {
			next = blankRow(rows[len(rows)-1])
		} else {
			next = vocabularyRow(table)
		}
		return append(append([]Row(nil), rows...), next), nil
	})
}

// DeleteRow removes a row by index. Deleting the only row replaces it with a
// blank one so the table never loses its column structure.
func (d *Document) DeleteRow(table string, row int) (*Document, error) {
	return d.withRows(table, func(rows []Row) ([]Row, error) {
		if row < 0 || row >= len(rows) {
			return nil, annotationErrors.New(ErrRowOutOfRange).WithDetails(map[string]interface{}{
				"field": table, "row": row, "rows": len(rows),
			})
		}
		if len(rows) == 1 {
			return []Row{blankRow(rows[0])}, nil
		}
		out := make([]Row, 0, len(rows)-1)
		out = append(out, rows[:row]...)
		return append(out, rows[row+1:]...), nil
	})
}

// vocabularyRow builds a blank row from the predefined column set of a
// tabular field, falling back to an empty row for unknown tables.
func vocabularyRow(table string) Row {
	cols := ColumnsOf(table)
	out := make(Row, len(cols))
	for _, c := range cols {
		out[c.Name] = EmptyValue()
	}
	return out
}

// CommentedPaths returns the dotted path of every leaf carrying a non-empty
// comment, in document order. Table cells read "Table[2].ItemRate".
func (d *Document) CommentedPaths() []string {
	var paths []string
	d.walkComments("", &paths)
	return paths
}

func (d *Document) walkComments(prefix string, paths *[]string) {
	for _, name := range d.order {
		f := d.fields[name]
		switch f.Shape {
		case ShapeSingle:
			if f.Value.Comment != "" {
				*paths = append(*paths, prefix+name)
			}
		case ShapeTable, ShapeRegionMap:
			for i, row := range f.Rows {
				for _, col := range columnOrder(name, row) {
					if row[col].Comment != "" {
						*paths = append(*paths, fmt.Sprintf("%s%s[%d].%s", prefix, name, i, col))
					}
				}
			}
		case ShapeGroup:
			f.Group.walkComments(prefix+name+".", paths)
		}
	}
}

// columnOrder yields a row's columns in vocabulary order, then any extras the
// payload carried, sorted deterministically by insertion into the vocabulary
// tail scan.
func columnOrder(table string, row Row) []string {
	vocab := ColumnsOf(table)
	out := make([]string, 0, len(row))
	seen := make(map[string]bool, len(row))
	for _, c := range vocab {
		if _, ok := row[c.Name]; ok {
			out = append(out, c.Name)
			seen[c.Name] = true
		}
	}
	var extras []string
	for col := range row {
		if !seen[col] {
			extras = append(extras, col)
		}
	}
	sort.Strings(extras)
	return append(out, extras...)
}

// Normalize returns a copy with every vocabulary field present: missing
// singles get a blank value, missing tables get one blank vocabulary row, and
// rows missing vocabulary columns get those columns filled in blank. Fields
// the payload carried beyond the vocabulary are preserved untouched.
func (d *Document) Normalize() *Document {
	out := d.clone()
	for _, name := range FieldOrder() {
		f, ok := out.fields[name]
		if !ok {
			switch ShapeOf(name) {
			case ShapeSingle:
				f = SingleField(EmptyValue())
			case ShapeRegionMap:
				f = RegionMapField([]Row{vocabularyRow(name)})
			default:
				f = TableField([]Row{vocabularyRow(name)})
			}
			out.order = append(out.order, name)
			out.fields[name] = f
			continue
		}
		if !f.Tabular() {
			continue
		}
		rows := f.Rows
		if len(rows) == 0 {
			rows = []Row{vocabularyRow(name)}
		} else {
			rows = append([]Row(nil), rows...)
			for i, row := range rows {
				next := row
				copied := false
				for _, c := range ColumnsOf(name) {
					if _, ok := next[c.Name]; !ok {
						if !copied {
							next = row.clone()
							copied = true
						}
						next[c.Name] = EmptyValue()
					}
				}
				rows[i] = next
			}
		}
		out.fields[name] = Field{Shape: f.Shape, Rows: rows}
	}
	return out
}

// MarshalJSON writes the document as an object preserving field order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalField(d.fields[name], name)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalField(f Field, name string) ([]byte, error) {
	switch f.Shape {
	case ShapeSingle:
		return json.Marshal(f.Value)
	case ShapeTable, ShapeRegionMap:
		rows := make([]map[string]FieldValue, len(f.Rows))
		for i, r := range f.Rows {
			rows[i] = map[string]FieldValue(r)
		}
		return json.Marshal(rows)
	case ShapeGroup:
		return json.Marshal(f.Group)
	}
	return nil, annotationErrors.New(ErrShapeMismatch).WithDetail("field", name)
}

// UnmarshalJSON decodes a document, classifying each member by its JSON
// shape: arrays become tabular fields, objects whose members are all leaf
// values become nested groups, and anything else a single value. Field order
// follows the payload.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	doc, err := decodeDocument(dec)
	if err != nil {
		return annotationErrors.NewWithCause(ErrDecode, err)
	}
	*d = *doc
	return nil
}

func decodeDocument(dec *json.Decoder) (*Document, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)
		f, err := decodeField(dec, name)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		doc.Put(name, f)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeField(dec *json.Decoder, name string) (Field, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return Field{}, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Field{}, fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '[':
		var rawRows []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rawRows); err != nil {
			return Field{}, err
		}
		rows := make([]Row, len(rawRows))
		for i, rr := range rawRows {
			row := make(Row, len(rr))
			for col, cell := range rr {
				var v FieldValue
				if err := json.Unmarshal(cell, &v); err != nil {
					return Field{}, fmt.Errorf("row %d column %q: %w", i, col, err)
				}
				row[col] = v
			}
			rows[i] = row
		}
		if ShapeOf(name) == ShapeRegionMap {
			return RegionMapField(rows), nil
		}
		return TableField(rows), nil
	case '{':
		if isLeafObject(trimmed) {
			var v FieldValue
			if err := json.Unmarshal(trimmed, &v); err != nil {
				return Field{}, err
			}
			return SingleField(v), nil
		}
		var sub Document
		if err := json.Unmarshal(trimmed, &sub); err != nil {
			return Field{}, err
		}
		return GroupField(&sub), nil
	default:
		return Field{}, fmt.Errorf("unexpected value %s", shorten(trimmed))
	}
}

// isLeafObject reports whether an object is a FieldValue rather than a nested
// group: it carries a "text" or "location" member.
func isLeafObject(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, hasText := probe["text"]
	_, hasLoc := probe["location"]
	return hasText || hasLoc
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func shorten(b []byte) string {
	const max = 24
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
