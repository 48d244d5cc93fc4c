package validation

import (
	"sort"
	"strings"
)

// allowedOperators lists the comparison operators Where* accepts.
var allowedOperators = map[string]bool{
	"=":  true,
	"!=": true,
	"<>": true,
	"<":  true,
	">":  true,
	"<=": true,
	">=": true,

	"LIKE":      true,
	"NOT LIKE":  true,
	"ILIKE":     true,
	"NOT ILIKE": true,

	"IS":     true,
	"IS NOT": true,

	// subquery right-hand sides
	"IN":         true,
	"NOT IN":     true,
	"EXISTS":     true,
	"NOT EXISTS": true,
	"ANY":        true,

	"<=>": true,
}

// NormalizeOperator upper-cases op, collapses inner whitespace and checks it
// against the allowed list.
func NormalizeOperator(op string) (string, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if !allowedOperators[normalized] {
		return "", &OperatorError{Operator: op, Reason: "operator not in allowed list"}
	}
	return normalized, nil
}

// IsNullOperator reports whether op is IS or IS NOT.
func IsNullOperator(op string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(op))
	return normalized == "IS" || normalized == "IS NOT"
}

// AllowedOperators returns the allowed operators, sorted.
func AllowedOperators() []string {
	ops := make([]string, 0, len(allowedOperators))
	for op := range allowedOperators {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// OperatorError describes a rejected operator.
type OperatorError struct {
	Operator string
	Reason   string
}

// Error implements error.
func (e *OperatorError) Error() string {
	return "netql: invalid operator '" + e.Operator + "': " + e.Reason
}
