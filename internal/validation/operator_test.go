package validation

import (
	"sort"
	"testing"
)

func TestNormalizeOperator(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		want     string
		wantErr  bool
	}{
		{"equals", "=", "=", false},
		{"not equals alt", "<>", "<>", false},
		{"null safe equals", "<=>", "<=>", false},
		{"lowercase like", "like", "LIKE", false},
		{"mixed case", "Like", "LIKE", false},
		{"padded", " like ", "LIKE", false},
		{"not like", "not like", "NOT LIKE", false},
		{"collapsed whitespace", "NOT   IN", "NOT IN", false},
		{"ilike", "ilike", "ILIKE", false},
		{"is not", "is not", "IS NOT", false},
		{"exists", "exists", "EXISTS", false},
		{"not exists", "not  exists", "NOT EXISTS", false},

		{"empty", "", "", true},
		{"invalid word", "EQUALS", "", true},
		{"sql injection", "= OR 1=1", "", true},
		{"semicolon", ";", "", true},
		{"comment", "--", "", true},
		{"partial", "LIK", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOperator(tt.operator)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeOperator(%q) error = %v, wantErr %v", tt.operator, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeOperator(%q) = %q, want %q", tt.operator, got, tt.want)
			}
		})
	}
}

func TestIsNullOperator(t *testing.T) {
	for _, op := range []string{"IS", "is", "IS NOT", " is not "} {
		if !IsNullOperator(op) {
			t.Errorf("IsNullOperator(%q) = false, want true", op)
		}
	}
	for _, op := range []string{"=", "LIKE", "IN", "ISNOT"} {
		if IsNullOperator(op) {
			t.Errorf("IsNullOperator(%q) = true, want false", op)
		}
	}
}

func TestAllowedOperators(t *testing.T) {
	ops := AllowedOperators()
	if len(ops) != len(allowedOperators) {
		t.Fatalf("AllowedOperators() returned %d operators, want %d", len(ops), len(allowedOperators))
	}
	if !sort.StringsAreSorted(ops) {
		t.Errorf("AllowedOperators() is not sorted: %v", ops)
	}
}

func TestOperatorError(t *testing.T) {
	err := &OperatorError{Operator: "DROP", Reason: "operator not in allowed list"}
	expected := "netql: invalid operator 'DROP': operator not in allowed list"
	if err.Error() != expected {
		t.Errorf("OperatorError.Error() = %q, want %q", err.Error(), expected)
	}
}
