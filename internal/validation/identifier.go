// Package validation checks the few caller-supplied names netql cannot quote its way
// out of: builder aliases, savepoint names, comparison operators, and the column text
// bind-parameter names are derived from.
package validation

import (
	"regexp"
	"strings"
)

// identifierRegex accepts a bare identifier or a single table.column reference.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// aliasRegex accepts a bare identifier only. Aliases end up in SQL text unquoted.
var aliasRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// maxIdentifierLength is the shortest limit among the supported engines (PostgreSQL).
const maxIdentifierLength = 63

// ValidateIdentifier checks a bare or table-qualified identifier.
func ValidateIdentifier(id string) error {
	if id == "" {
		return &IdentifierError{Identifier: id, Reason: "identifier cannot be empty"}
	}
	if len(id) > 128 {
		return &IdentifierError{Identifier: id, Reason: "identifier exceeds maximum length of 128 characters"}
	}
	if !identifierRegex.MatchString(id) {
		return &IdentifierError{
			Identifier: id,
			Reason:     "identifier contains invalid characters; only letters, numbers, underscores, and dots are allowed",
		}
	}
	return nil
}

// ValidateAlias checks a builder alias or savepoint name.
func ValidateAlias(alias string) error {
	if alias == "" {
		return &IdentifierError{Identifier: alias, Reason: "alias cannot be empty"}
	}
	if len(alias) > maxIdentifierLength {
		return &IdentifierError{Identifier: alias, Reason: "alias exceeds maximum length of 63 characters"}
	}
	if !aliasRegex.MatchString(alias) {
		return &IdentifierError{
			Identifier: alias,
			Reason:     "alias may only contain letters, numbers and underscores and must not start with a number",
		}
	}
	return nil
}

// BindName derives the parameter-name stem from column text: dots become
// underscores and every character that cannot appear in a placeholder name is
// dropped, so "[u].[id]" and "u.id" both give "u_id".
func BindName(column string) string {
	var sb strings.Builder
	sb.Grow(len(column))
	for _, r := range column {
		switch {
		case r == '.':
			sb.WriteByte('_')
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "p"
	}
	return sb.String()
}

// IdentifierError describes a rejected name.
type IdentifierError struct {
	Identifier string
	Reason     string
}

// Error implements error.
func (e *IdentifierError) Error() string {
	if e.Identifier == "" {
		return "netql: invalid identifier: " + e.Reason
	}
	return "netql: invalid identifier '" + e.Identifier + "': " + e.Reason
}
