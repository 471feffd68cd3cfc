package jsonschema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors surfaced to the orchestration layer. The caller is responsible for
// logging and aborting the affected stream; no retry happens here.
var (
	// ErrInvalidTypeDescriptor is returned for malformed or empty type input.
	ErrInvalidTypeDescriptor = errors.New("invalid column type descriptor")
)

// Descriptor is the canonical form of a native SQL column type: an upper-case
// base type name plus the optional attributes the mapping tables care about.
// All entry points (declared type strings, INFORMATION_SCHEMA metadata)
// normalize into a Descriptor before any table lookup happens, so the
// mapping functions never branch on the shape of their input.
type Descriptor struct {
	Name      string // canonical upper-case base type name, e.g. "NVARCHAR"
	Length    int    // character/byte length; 0 = not declared, -1 = MAX
	Precision int    // numeric precision; 0 = not declared
	Scale     int    // numeric scale
}

// Valid reports whether the descriptor carries a usable type name.
func (d Descriptor) Valid() bool {
	return d.Name != ""
}

// canonicalName maps driver and metadata spellings onto the single name the
// mapping tables use. SQL Server reports "int"; the mapping table speaks
// "INTEGER".
func canonicalName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "INT":
		return "INTEGER"
	case "DEC":
		return "DECIMAL"
	}
	return name
}

// NewDescriptor builds a Descriptor from INFORMATION_SCHEMA column metadata.
func NewDescriptor(dataType string, length, precision, scale int) Descriptor {
	return Descriptor{
		Name:      canonicalName(dataType),
		Length:    length,
		Precision: precision,
		Scale:     scale,
	}
}

// ParseSQLType parses a declared SQL Server type string into a Descriptor.
// Examples:
//
//	"INT"            → {Name: "INTEGER"}
//	"NVARCHAR(100)"  → {Name: "NVARCHAR", Length: 100}
//	"DECIMAL(18,2)"  → {Name: "DECIMAL", Precision: 18, Scale: 2}
//	"VARBINARY(MAX)" → {Name: "VARBINARY", Length: -1}
func ParseSQLType(sqlType string) (Descriptor, error) {
	sqlType = strings.ToUpper(strings.TrimSpace(sqlType))
	if sqlType == "" {
		return Descriptor{}, fmt.Errorf("%w: empty type name", ErrInvalidTypeDescriptor)
	}

	base := sqlType
	var params string
	if idx := strings.Index(sqlType, "("); idx != -1 {
		base = strings.TrimSpace(sqlType[:idx])
		params = strings.TrimSpace(strings.TrimSuffix(sqlType[idx+1:], ")"))
	}

	d := Descriptor{Name: canonicalName(base)}
	if params == "" {
		return d, nil
	}

	if strings.EqualFold(params, "MAX") {
		d.Length = -1
		return d, nil
	}

	if strings.Contains(params, ",") {
		parts := strings.Split(params, ",")
		if len(parts) != 2 {
			return Descriptor{}, fmt.Errorf("%w: malformed type parameters %q", ErrInvalidTypeDescriptor, params)
		}
		precision, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: precision in %q", ErrInvalidTypeDescriptor, sqlType)
		}
		scale, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: scale in %q", ErrInvalidTypeDescriptor, sqlType)
		}
		d.Precision = precision
		d.Scale = scale
		return d, nil
	}

	n, err := strconv.Atoi(params)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: length in %q", ErrInvalidTypeDescriptor, sqlType)
	}
	switch d.Name {
	case "DECIMAL", "NUMERIC":
		// Single parameter on a decimal type is the precision
		d.Precision = n
	default:
		d.Length = n
	}
	return d, nil
}
