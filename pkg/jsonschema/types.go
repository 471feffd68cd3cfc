package jsonschema

import "encoding/json"

// JSON Schema type mapping for MS SQL Server 2012+
//
// SQL Server Type    JSON Schema Type   Notes
// ──────────────────────────────────────────────────────────
// CHAR..NVARCHAR     string             maxLength when declared
// TIME               string             format: time
// UNIQUEIDENTIFIER   string             format: uuid
// XML                string             contentMediaType: application/xml
// BINARY/VARBINARY   string             contentEncoding: base64
// BIT                boolean
// TINYINT..BIGINT    integer            exact native bounds
// DECIMAL, NUMERIC   integer or number  bounds from precision/scale
// MONEY, SMALLMONEY  number             fixed native bounds
// FLOAT, REAL        number             IEEE range bounds

// Primitive JSON Schema type names.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Schema format refinements.
const (
	FormatTime     = "time"
	FormatUUID     = "uuid"
	FormatDate     = "date"
	FormatDateTime = "date-time"
)

// Type is the portable JSON Schema representation of a single column.
//
// Minimum and Maximum are json.Number instead of float64 so that integer
// bounds wider than 53 bits (BIGINT, high-precision NUMERIC) survive the
// round-trip to the emitted schema without floating point loss.
type Type struct {
	Type             []string    `json:"type"`
	MaxLength        int         `json:"maxLength,omitempty"`
	Format           string      `json:"format,omitempty"`
	ContentEncoding  string      `json:"contentEncoding,omitempty"`
	ContentMediaType string      `json:"contentMediaType,omitempty"`
	Minimum          json.Number `json:"minimum,omitempty"`
	Maximum          json.Number `json:"maximum,omitempty"`
}

// IsBase64 reports whether the column value must be base64-encoded before
// it can be written to a record.
func (t Type) IsBase64() bool {
	return t.ContentEncoding == "base64"
}

// Primitive returns the primitive type name, ignoring the "null" entry
// appended for nullable columns.
func (t Type) Primitive() string {
	for _, name := range t.Type {
		if name != "null" {
			return name
		}
	}
	return ""
}

// IsDateTime reports whether the type carries a date or timestamp format.
func (t Type) IsDateTime() bool {
	return t.Format == FormatDate || t.Format == FormatDateTime
}

// Nullable returns a copy of the type with "null" added to the type list.
func (t Type) Nullable() Type {
	for _, name := range t.Type {
		if name == "null" {
			return t
		}
	}
	t.Type = append(append([]string{}, t.Type...), "null")
	return t
}

func newType(primitive string) Type {
	return Type{Type: []string{primitive}}
}
