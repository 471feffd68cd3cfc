package stream

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

// Layouts for schema-driven date and time rendering.
const (
	layoutDate = "2006-01-02"
	layoutTime = "15:04:05"
)

// PostProcess converts a raw driver value into its portable record form
// according to the column's schema type. NULL passes through as nil. The
// transform is idempotent: a value already in portable form comes back
// unchanged, so re-running it over a processed row is safe.
func PostProcess(value any, t jsonschema.Type) any {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		switch t.Format {
		case jsonschema.FormatTime:
			return v.Format(layoutTime)
		case jsonschema.FormatDate:
			return v.Format(layoutDate)
		default:
			return v.UTC().Format(time.RFC3339)
		}

	case []byte:
		if t.IsBase64() {
			return base64.StdEncoding.EncodeToString(v)
		}
		// The driver hands DECIMAL and MONEY back as text bytes; keep them
		// as json.Number so the emitted value stays exact.
		switch t.Primitive() {
		case jsonschema.TypeNumber, jsonschema.TypeInteger:
			return json.Number(v)
		}
		return string(v)

	case float64:
		if t.Primitive() == jsonschema.TypeInteger {
			return int64(v)
		}
		return v

	case bool, string, int64, int, json.Number:
		return v
	}

	return fmt.Sprintf("%v", value)
}
