package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

func typeOf(primitive, format, encoding string) jsonschema.Type {
	return jsonschema.Type{
		Type:            []string{primitive},
		Format:          format,
		ContentEncoding: encoding,
	}
}

func TestPostProcessDates(t *testing.T) {
	ts := time.Date(2025, 6, 15, 13, 45, 30, 0, time.UTC)

	tests := []struct {
		name string
		t    jsonschema.Type
		want any
	}{
		{"datetime", typeOf("string", jsonschema.FormatDateTime, ""), "2025-06-15T13:45:30Z"},
		{"date", typeOf("string", jsonschema.FormatDate, ""), "2025-06-15"},
		{"time", typeOf("string", jsonschema.FormatTime, ""), "13:45:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PostProcess(ts, tt.t); got != tt.want {
				t.Errorf("PostProcess(%v) = %v, want %v", ts, got, tt.want)
			}
		})
	}
}

func TestPostProcessBinary(t *testing.T) {
	got := PostProcess([]byte{0xDE, 0xAD}, typeOf("string", "", "base64"))
	if got != "3q0=" {
		t.Errorf("base64 column = %v, want %q", got, "3q0=")
	}
}

func TestPostProcessDecimalBytes(t *testing.T) {
	got := PostProcess([]byte("123.45"), typeOf("number", "", ""))
	n, ok := got.(json.Number)
	if !ok {
		t.Fatalf("decimal bytes = %T, want json.Number", got)
	}
	if n.String() != "123.45" {
		t.Errorf("decimal value = %s, want 123.45", n)
	}
}

func TestPostProcessNullPassthrough(t *testing.T) {
	if got := PostProcess(nil, typeOf("string", "", "")); got != nil {
		t.Errorf("PostProcess(nil) = %v, want nil", got)
	}
}

func TestPostProcessIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		value any
		t     jsonschema.Type
	}{
		{"formatted datetime", "2025-06-15T13:45:30Z", typeOf("string", jsonschema.FormatDateTime, "")},
		{"encoded binary", "3q0=", typeOf("string", "", "base64")},
		{"plain string", "hello", typeOf("string", "", "")},
		{"integer", int64(42), typeOf("integer", "", "")},
		{"decimal", json.Number("123.45"), typeOf("number", "", "")},
		{"boolean", true, typeOf("boolean", "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := PostProcess(tt.value, tt.t)
			twice := PostProcess(once, tt.t)
			if once != twice {
				t.Errorf("PostProcess not idempotent: first %v, second %v", once, twice)
			}
		})
	}
}

func TestPostProcessFloatToInteger(t *testing.T) {
	got := PostProcess(float64(7), typeOf("integer", "", ""))
	if got != int64(7) {
		t.Errorf("integer column from float64 = %v (%T), want int64(7)", got, got)
	}
}
