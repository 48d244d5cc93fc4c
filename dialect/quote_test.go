package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	sqlserver := MustFor(SQLServer)

	tests := []struct {
		name    string
		in      string
		reverse bool
		want    string
	}{
		{"bare", "users", false, "[users]"},
		{"already quoted", "[users]", false, "[users]"},
		{"star", "*", false, "*"},
		{"empty", "", false, ""},
		{"raw", "!!COUNT(*)", false, "COUNT(*)"},
		{"marker only", "!!", false, "[!!]"},
		{"qualified", "u.id", false, "u.[id]"},
		{"qualified star", "u.*", false, "u.*"},
		{"qualified quoted", "u.[id]", false, "u.[id]"},
		{"first dot only", "s.t.c", false, "s.[t.c]"},
		{"table alias", "users u", false, "[users] u"},
		{"column alias", "id AS ident", false, "[id] AS ident"},
		{"column alias reverse", "id AS ident", true, "id AS [ident]"},
		{"reverse without space", "id", true, "id"},
		{"qualified alias", "u.name n", false, "u.[name] n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlserver.Quote(tt.in, tt.reverse))
		})
	}
}

func TestQuoteColumn(t *testing.T) {
	sqlserver := MustFor(SQLServer)

	assert.Equal(t, "[id]", sqlserver.QuoteColumn("id"))
	assert.Equal(t, "[id] AS [ident]", sqlserver.QuoteColumn("id AS ident"))
	assert.Equal(t, "u.[name] [n]", sqlserver.QuoteColumn("u.name n"))
	assert.Equal(t, "*", sqlserver.QuoteColumn("*"))
	assert.Equal(t, "COUNT(*) AS n", sqlserver.QuoteColumn("!!COUNT(*) AS n"))
}

func TestQuoteIsIdempotent(t *testing.T) {
	names := []string{"id", "users", "created_at", "u.id", "id AS x", "users u", "*"}

	for _, p := range Providers() {
		d := MustFor(p)
		for _, name := range names {
			once := d.Quote(name, false)
			assert.Equal(t, once, d.Quote(once, false), "%s: %q", d.Name(), name)
		}
	}
}

func TestQuotePerDialect(t *testing.T) {
	tests := []struct {
		provider Provider
		want     string
	}{
		{SQLServer, "[users]"},
		{MySQL, "`users`"},
		{PostgreSQL, `"users"`},
		{Oracle, `"users"`},
		{SQLite, `"users"`},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, MustFor(tt.provider).Quote("users", false))
		})
	}
}

func TestIsRaw(t *testing.T) {
	text, ok := IsRaw("!!NOW()")
	assert.True(t, ok)
	assert.Equal(t, "NOW()", text)

	text, ok = IsRaw("!!")
	assert.False(t, ok)
	assert.Equal(t, "!!", text)

	_, ok = IsRaw("name")
	assert.False(t, ok)

	assert.Equal(t, "!!NOW()", Raw("NOW()"))
}
