package jsonschema

import (
	"errors"
	"testing"
)

func TestParseSQLType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Descriptor
	}{
		{
			name:     "plain type",
			input:    "INT",
			expected: Descriptor{Name: "INTEGER"},
		},
		{
			name:     "lowercase with spaces",
			input:    "  nvarchar(100) ",
			expected: Descriptor{Name: "NVARCHAR", Length: 100},
		},
		{
			name:     "decimal with precision and scale",
			input:    "DECIMAL(18,2)",
			expected: Descriptor{Name: "DECIMAL", Precision: 18, Scale: 2},
		},
		{
			name:     "decimal with precision only",
			input:    "NUMERIC(10)",
			expected: Descriptor{Name: "NUMERIC", Precision: 10},
		},
		{
			name:     "varbinary max",
			input:    "VARBINARY(MAX)",
			expected: Descriptor{Name: "VARBINARY", Length: -1},
		},
		{
			name:     "uniqueidentifier",
			input:    "uniqueidentifier",
			expected: Descriptor{Name: "UNIQUEIDENTIFIER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSQLType(tt.input)
			if err != nil {
				t.Fatalf("ParseSQLType(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseSQLType(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseSQLTypeErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "DECIMAL(a,b)", "NVARCHAR(ten)"} {
		if _, err := ParseSQLType(input); !errors.Is(err, ErrInvalidTypeDescriptor) {
			t.Errorf("ParseSQLType(%q): expected ErrInvalidTypeDescriptor, got %v", input, err)
		}
	}
}

func TestNullable(t *testing.T) {
	base := newType(TypeString)
	nullable := base.Nullable()

	if len(nullable.Type) != 2 || nullable.Type[1] != "null" {
		t.Errorf("Nullable() = %v, want [string null]", nullable.Type)
	}
	// Applying twice must not duplicate the null entry
	again := nullable.Nullable()
	if len(again.Type) != 2 {
		t.Errorf("Nullable() applied twice = %v", again.Type)
	}
	// Original is untouched
	if len(base.Type) != 1 {
		t.Errorf("Nullable() mutated receiver: %v", base.Type)
	}
}
