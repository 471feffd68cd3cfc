package jsonschema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MapMode selects which of the two type mapping tables is in effect.
// The detailed table reproduces native ranges and encodings exactly; the
// reduced table only special-cases the types whose default mapping is lossy.
type MapMode int

const (
	// MapReduced special-cases NUMERIC/DECIMAL, MONEY/SMALLMONEY and BIT,
	// delegating everything else to the default mapping.
	MapReduced MapMode = iota
	// MapDetailed maps every supported native type with exact bounds,
	// formats and content encodings.
	MapDetailed
)

// maxPlainIntegerDigits is the largest number of integer digits a decimal
// bound may have and still be emitted in plain decimal form. Beyond that a
// float64 can no longer render the digit string without switching to
// scientific notation, so the bound is emitted in normalized scientific
// form instead to avoid precision loss.
const maxPlainIntegerDigits = 15

// Map converts a column type descriptor to its JSON Schema type under the
// given mode. Unrecognized types fall back to the default mapping.
func Map(d Descriptor, mode MapMode) (Type, error) {
	if !d.Valid() {
		return Type{}, fmt.Errorf("%w: missing type name", ErrInvalidTypeDescriptor)
	}
	if mode == MapDetailed {
		return detailedType(d)
	}
	return reducedType(d)
}

// detailedType implements the full mapping table.
func detailedType(d Descriptor) (Type, error) {
	switch d.Name {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR":
		t := newType(TypeString)
		if d.Length > 0 {
			t.MaxLength = d.Length
		}
		return t, nil

	case "TIME":
		t := newType(TypeString)
		t.Format = FormatTime
		return t, nil

	case "UNIQUEIDENTIFIER":
		t := newType(TypeString)
		t.Format = FormatUUID
		return t, nil

	case "XML":
		t := newType(TypeString)
		t.ContentMediaType = "application/xml"
		return t, nil

	case "BINARY", "IMAGE", "VARBINARY":
		t := newType(TypeString)
		t.ContentEncoding = "base64"
		if d.Length > 0 {
			t.MaxLength = d.Length
		}
		return t, nil

	case "BIT":
		return newType(TypeBoolean), nil

	case "TINYINT":
		return integerType("0", "255"), nil

	case "SMALLINT":
		return integerType("-32768", "32767"), nil

	case "INTEGER":
		return integerType("-2147483648", "2147483647"), nil

	case "BIGINT":
		return integerType("-9223372036854775808", "9223372036854775807"), nil

	case "NUMERIC", "DECIMAL":
		return decimalType(d)

	case "SMALLMONEY":
		return numberType("-214748.3648", "214748.3647"), nil

	case "MONEY":
		return numberType("-922337203685477.5808", "922337203685477.5807"), nil

	case "FLOAT":
		return numberType("-1.79e308", "1.79e308"), nil

	case "REAL":
		return numberType("-3.40e38", "3.40e38"), nil
	}

	return defaultType(d)
}

// reducedType implements the reduced mapping table: only the types whose
// default mapping loses information are special-cased.
func reducedType(d Descriptor) (Type, error) {
	switch d.Name {
	case "NUMERIC", "DECIMAL":
		if d.Scale == 0 {
			return newType(TypeInteger), nil
		}
		return newType(TypeNumber), nil
	case "MONEY", "SMALLMONEY":
		return newType(TypeNumber), nil
	case "BIT":
		return newType(TypeBoolean), nil
	}
	return defaultType(d)
}

// decimalType maps NUMERIC/DECIMAL to an integer or number type whose bounds
// exactly bracket the representable range at the declared precision/scale.
func decimalType(d Descriptor) (Type, error) {
	if d.Precision <= 0 {
		return Type{}, fmt.Errorf("%w: %s with precision %d", ErrInvalidTypeDescriptor, d.Name, d.Precision)
	}

	if d.Scale == 0 {
		// ±(10^precision − 1), kept as exact digit strings
		max := strings.Repeat("9", d.Precision)
		return integerType("-"+max, max), nil
	}

	min, max := decimalBounds(d.Precision, d.Scale)
	return numberType(min, max), nil
}

// decimalBounds builds the maximal digit string of the given precision with
// the decimal point inserted scale digits from the right. When the integer
// part is too wide for plain float64 rendering the bound is produced in
// normalized scientific form (9.99…e+precision) instead; the plain digit
// string would otherwise round-trip through float64 with precision loss.
func decimalBounds(precision, scale int) (min, max string) {
	if precision-scale > maxPlainIntegerDigits {
		max = "9." + strings.Repeat("9", scale) + "e+" + strconv.Itoa(precision)
		return "-" + max, max
	}

	var b strings.Builder
	for i := 0; i < precision; i++ {
		if i == precision-scale {
			b.WriteByte('.')
		}
		b.WriteByte('9')
	}
	max = b.String()
	// scale == precision leaves a bare leading point
	if strings.HasPrefix(max, ".") {
		max = "0" + max
	}
	return "-" + max, max
}

func integerType(min, max string) Type {
	t := newType(TypeInteger)
	t.Minimum = json.Number(min)
	t.Maximum = json.Number(max)
	return t
}

func numberType(min, max string) Type {
	t := newType(TypeNumber)
	t.Minimum = json.Number(min)
	t.Maximum = json.Number(max)
	return t
}
