package validation

import (
	"strings"
	"testing"
)

func TestValidateInput(t *testing.T) {
	v := NewFormValidator()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "Paracetamol", false},
		{"name with strength", "Paracetamol 500", false},
		{"hyphenated", "Co-amoxiclav", false},
		{"accented", "Doliprané", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 10)+strings.Repeat(" b", 50), true},
		{"too many words", "one two three four five six seven", true},
		{"script tag", "<script>alert(1)</script>", true},
		{"sql injection", "' or 1=1 --", true},
		{"command injection", "name; rm -rf /", true},
		{"path traversal", "../../etc/passwd", true},
		{"excessive repetition", strings.Repeat("a", 30), true},
		{"invalid characters", "med{}name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInput(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeMedicineName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Paracetamol", "paracetamol"},
		{"Doliprané", "doliprane"},
		{"  Ibuprofen   400  ", "ibuprofen 400"},
		{"AMOXICILLIN", "amoxicillin"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMedicineName(tt.input); got != tt.expected {
			t.Errorf("NormalizeMedicineName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
