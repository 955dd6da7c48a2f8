package annotation

import (
	"encoding/json"

	"github.com/saiteja-tally/taggo/pkg/geomx"
)

// Location identifies the region a field value was sourced from: a page
// number plus a normalized rectangle. PageNo 0 is the unset sentinel; pages
// are numbered from 1.
type Location struct {
	PageNo int        `json:"pageNo"`
	LTWH   geomx.LTWH `json:"ltwh"`
}

// Unset returns the canonical empty location: page 0, all-zero rectangle.
func Unset() Location {
	return Location{}
}

// IsUnset reports whether no region has been assigned yet.
func (l Location) IsUnset() bool {
	return l.PageNo == 0
}

// UnmarshalJSON tolerates legacy payloads whose ltwh array carries a
// trailing fifth element; only the first four components are meaningful.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		PageNo int       `json:"pageNo"`
		LTWH   []float64 `json:"ltwh"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.PageNo = raw.PageNo
	l.LTWH = geomx.LTWH{}
	for i := 0; i < len(raw.LTWH) && i < 4; i++ {
		l.LTWH[i] = raw.LTWH[i]
	}
	return nil
}

// FieldValue is one leaf datum: the recognized or hand-typed text, the
// region it came from, an optional reviewer comment and an optional
// recognizer confidence. Text may be non-empty while the location is unset.
type FieldValue struct {
	Text     string   `json:"text"`
	Location Location `json:"location"`
	Comment  string   `json:"comment,omitempty"`
	Conf     float64  `json:"conf,omitempty"`
}

// EmptyValue returns a blank FieldValue with the unset location.
func EmptyValue() FieldValue {
	return FieldValue{Location: Unset()}
}

// CellPatch names the cell sub-attributes a mutation should touch. Nil
// pointers leave the attribute alone; pass Unset() through Location to clear
// a bounding box.
type CellPatch struct {
	Text     *string
	Location *Location
	Comment  *string
}

func (p CellPatch) apply(v FieldValue) FieldValue {
	if p.Text != nil {
		v.Text = *p.Text
	}
	if p.Location != nil {
		v.Location = *p.Location
	}
	if p.Comment != nil {
		v.Comment = *p.Comment
	}
	return v
}
