//nolint:testpackage // using package name 'flargs' to access unexported fields for testing
package flargs

import "testing"

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		typ     ValueType
		raw     string
		want    any
		wantErr bool
	}{
		{"bool true", TypeBoolean, "true", true, false},
		{"bool false", TypeBoolean, "false", false, false},
		{"bool upper rejected", TypeBoolean, "TRUE", nil, true},
		{"bool one rejected", TypeBoolean, "1", nil, true},
		{"bool yes rejected", TypeBoolean, "yes", nil, true},
		{"integer", TypeNumber, "4", 4.0, false},
		{"negative", TypeNumber, "-2", -2.0, false},
		{"decimal", TypeNumber, "1.5", 1.5, false},
		{"exponent", TypeNumber, "1e3", 1000.0, false},
		{"hex", TypeNumber, "0x1F", 31.0, false},
		{"negative hex", TypeNumber, "-0x10", -16.0, false},
		{"binary", TypeNumber, "0b101", 5.0, false},
		{"empty number", TypeNumber, "", nil, true},
		{"garbage", TypeNumber, "four", nil, true},
		{"nan", TypeNumber, "NaN", nil, true},
		{"inf", TypeNumber, "Inf", nil, true},
		{"overflow", TypeNumber, "1e400", nil, true},
		{"bad hex", TypeNumber, "0xZZ", nil, true},
		{"unsigned hex past int64", TypeNumber, "0xFFFFFFFFFFFFFFFF", 18446744073709551615.0, false},
		{"signed unsigned hex", TypeNumber, "+0xFFFFFFFFFFFFFFFF", 18446744073709551615.0, false},
		{"hex past uint64", TypeNumber, "0x1FFFFFFFFFFFFFFFF", nil, true},
		{"negative hex past int64", TypeNumber, "-0xFFFFFFFFFFFFFFFF", nil, true},
		{"string kept", TypeString, "  raw value ", "  raw value ", false},
		{"empty string", TypeString, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.typ, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Coerce(%s, %q) = %v, expected error", tt.typ, tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce(%s, %q) failed: %v", tt.typ, tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Coerce(%s, %q) = %#v, want %#v", tt.typ, tt.raw, got, tt.want)
			}
		})
	}
}

func TestFlagValueError(t *testing.T) {
	flag := &Flag{Name: "jobs", Type: TypeNumber}
	err := flagValueError(flag, "many", []string{"root", "build"})

	if err.Type != ErrorTypeInvalidNumberLiteral {
		t.Errorf("expected %s, got %s", ErrorTypeInvalidNumberLiteral, err.Type)
	}
	if err.Flag != "jobs" || err.Token != "many" {
		t.Errorf("error should name flag and token, got %+v", err)
	}
	if err.CommandPath() != "root.build" {
		t.Errorf("expected path root.build, got %q", err.CommandPath())
	}

	boolErr := flagValueError(&Flag{Name: "verbose", Type: TypeBoolean}, "maybe", nil)
	if boolErr.Type != ErrorTypeInvalidBooleanLiteral {
		t.Errorf("expected %s, got %s", ErrorTypeInvalidBooleanLiteral, boolErr.Type)
	}
}
