package jsonschema

// defaultType is the shared fallback both mapping tables delegate to: a
// generic mapping that only looks at the broad type family. It never fails
// for a valid descriptor — anything unknown becomes a plain string.
func defaultType(d Descriptor) (Type, error) {
	switch d.Name {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT",
		"XML", "UNIQUEIDENTIFIER", "SQL_VARIANT":
		t := newType(TypeString)
		if d.Length > 0 {
			t.MaxLength = d.Length
		}
		return t, nil

	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT":
		return newType(TypeInteger), nil

	case "NUMERIC", "DECIMAL", "FLOAT", "REAL", "MONEY", "SMALLMONEY":
		return newType(TypeNumber), nil

	case "BIT":
		return newType(TypeBoolean), nil

	case "DATE":
		t := newType(TypeString)
		t.Format = FormatDate
		return t, nil

	case "TIME":
		t := newType(TypeString)
		t.Format = FormatTime
		return t, nil

	case "DATETIME", "DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET":
		t := newType(TypeString)
		t.Format = FormatDateTime
		return t, nil

	case "BINARY", "VARBINARY", "IMAGE", "TIMESTAMP", "ROWVERSION":
		t := newType(TypeString)
		t.ContentEncoding = "base64"
		if d.Length > 0 {
			t.MaxLength = d.Length
		}
		return t, nil
	}

	// Unknown type: plain string keeps the value readable downstream
	return newType(TypeString), nil
}
