package dialect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForDriver(t *testing.T) {
	tests := []struct {
		driver string
		want   Provider
	}{
		{"sqlserver", SQLServer},
		{"mssql", SQLServer},
		{"mysql", MySQL},
		{"postgres", PostgreSQL},
		{"pgx", PostgreSQL},
		{" PGX ", PostgreSQL},
		{"godror", Oracle},
		{"sqlite", SQLite},
		{"sqlite3", SQLite},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := ForDriver(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Provider)
		})
	}
}

func TestForDriverUnknown(t *testing.T) {
	_, err := ForDriver("db2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "db2")

	_, err = For(ProviderUnknown)
	assert.True(t, errors.Is(err, ErrUnsupported))

	assert.Panics(t, func() { MustFor(Provider(42)) })
}

func TestProfiles(t *testing.T) {
	for _, p := range Providers() {
		d := MustFor(p)
		assert.NotEmpty(t, d.StartQuote, p.String())
		assert.NotEmpty(t, d.EndQuote, p.String())
		assert.NotEmpty(t, d.BindSymbol, p.String())
		assert.Equal(t, p.String(), d.Name())
	}

	assert.Equal(t, "@id_1_0", MustFor(SQLServer).Placeholder("id_1_0"))
	assert.Equal(t, ":id_1_0", MustFor(PostgreSQL).Placeholder("id_1_0"))
	assert.Equal(t, ArgDollar, MustFor(PostgreSQL).Args)
	assert.Equal(t, OffsetFetch, MustFor(Oracle).Limit)
}

func TestCustom(t *testing.T) {
	d := Custom("[", "@", ArgNamed)
	assert.Equal(t, "]", d.EndQuote)
	assert.Equal(t, "[t]", d.Quote("t", false))

	d = Custom("'", "@", ArgQuestion)
	assert.Equal(t, "'", d.EndQuote)
	assert.Equal(t, "unknown", d.Name())
}

func TestTypeOf(t *testing.T) {
	var nilString *string
	s := "x"
	n := int64(3)

	tests := []struct {
		name string
		in   any
		want ValueType
	}{
		{"nil", nil, TypeNull},
		{"string", "a", TypeString},
		{"bool", true, TypeBool},
		{"int", 1, TypeInt},
		{"uint8", uint8(1), TypeUint},
		{"float", 1.5, TypeFloat},
		{"time", time.Now(), TypeTime},
		{"bytes", []byte("a"), TypeBytes},
		{"string pointer", &s, TypeString},
		{"int64 pointer", &n, TypeInt},
		{"nil pointer", nilString, TypeNull},
		{"struct", struct{}{}, TypeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.in))
		})
	}

	assert.Equal(t, "int", TypeInt.String())
	assert.Equal(t, "unknown", ValueType(99).String())
}
