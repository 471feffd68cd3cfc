package singer

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Record is an ordered mapping from column name to value. Column order is
// the table's ordinal order, which plain Go maps would lose, so the record
// keeps the order next to the values and marshals the keys itself.
type Record struct {
	Columns []string
	Values  map[string]any
}

// NewRecord creates an empty record with the given column order.
func NewRecord(columns []string) *Record {
	return &Record{
		Columns: columns,
		Values:  make(map[string]any, len(columns)),
	}
}

// Set assigns a column value.
func (r *Record) Set(column string, value any) {
	r.Values[column] = value
}

// Get returns a column value.
func (r *Record) Get(column string) any {
	return r.Values[column]
}

// MarshalJSON writes the record as a JSON object in column order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
