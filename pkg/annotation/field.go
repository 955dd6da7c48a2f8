package annotation

// Shape discriminates the three kinds of field the document tree holds,
// plus the nested record used by dotted field paths.
type Shape int

const (
	// ShapeSingle is one FieldValue under one name.
	ShapeSingle Shape = iota
	// ShapeTable is an ordered sequence of rows whose columns hold data
	// values.
	ShapeTable
	// ShapeRegionMap is an ordered sequence of rows whose columns are named
	// page regions rather than data values.
	ShapeRegionMap
	// ShapeGroup is a nested record addressed through dotted paths.
	ShapeGroup
)

// Row maps column name to cell value for one table or region-map row.
type Row map[string]FieldValue

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// blankRow builds a row with the same column set as r, every cell reset to
// the empty value. Structure is copied, values are not.
func blankRow(r Row) Row {
	out := make(Row, len(r))
	for k := range r {
		out[k] = EmptyValue()
	}
	return out
}

// Field is a tagged union: exactly one of Value, Rows or Group is meaningful
// depending on Shape.
type Field struct {
	Shape Shape
	Value FieldValue
	Rows  []Row
	Group *Document
}

// SingleField wraps a FieldValue.
func SingleField(v FieldValue) Field {
	return Field{Shape: ShapeSingle, Value: v}
}

// TableField wraps table rows.
func TableField(rows []Row) Field {
	return Field{Shape: ShapeTable, Rows: rows}
}

// RegionMapField wraps region rows.
func RegionMapField(rows []Row) Field {
	return Field{Shape: ShapeRegionMap, Rows: rows}
}

// GroupField wraps a nested record.
func GroupField(d *Document) Field {
	return Field{Shape: ShapeGroup, Group: d}
}

// Tabular reports whether the field holds rows.
func (f Field) Tabular() bool {
	return f.Shape == ShapeTable || f.Shape == ShapeRegionMap
}
