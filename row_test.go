package netql

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(columns []string, values ...any) *Row {
	r := newRow(columns)
	copy(r.values, values)
	return r
}

func TestRowLookup(t *testing.T) {
	r := testRow([]string{"ID", "name", "email"}, int64(1), "Ann", nil)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"ID", "name", "email"}, r.Columns())
	assert.True(t, r.IsColumnExist("id"))
	assert.False(t, r.IsColumnExist("age"))
	assert.Equal(t, int64(1), r.Value("Id"))
	assert.Nil(t, r.Value("age"))
	assert.True(t, r.IsNull("email"))
	assert.True(t, r.IsNull("age"))
	assert.False(t, r.IsNull("name"))
	assert.Equal(t, map[string]any{"ID": int64(1), "name": "Ann", "email": nil}, r.Map())
}

func TestRowExactMatchWins(t *testing.T) {
	r := testRow([]string{"Name", "name"}, "upper", "lower")

	assert.Equal(t, "lower", r.Value("name"))
	assert.Equal(t, "upper", r.Value("Name"))
	assert.Equal(t, "upper", r.Value("NAME"))
}

func TestGet(t *testing.T) {
	r := testRow([]string{"id", "score", "bad"}, []byte("7"), "3.25", "abc")

	id, err := Get[int](r, "id")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	score, err := Get[float64](r, "SCORE")
	require.NoError(t, err)
	assert.Equal(t, 3.25, score)

	missing, err := Get[string](r, "missing")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = Get[int](r, "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversion)

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "bad", convErr.Column)
	assert.Equal(t, "int", convErr.Target)
	assert.Equal(t, "abc", convErr.Value)
}

type member struct {
	ID        int        `db:"id"`
	Name      string     // untagged: "name"
	Email     *string    `db:"email"`
	Joined    time.Time  `db:"joined_at"`
	Left      *time.Time `db:"left_at"`
	Active    bool       `db:"active"`
	Password  string     `db:"-"`
	Meta      struct{ X int }
	Sequence  int64 `db:"_seq"`
	lowercase string
}

func TestScanRow(t *testing.T) {
	joined := time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)
	r := testRow(
		[]string{"id", "name", "email", "joined_at", "left_at", "active", "password", "_seq", "extra"},
		int64(4), []byte("Ann"), "ann@x.io", joined, nil, int64(1), "secret", int64(99), "ignored",
	)

	m := member{Password: "keep", Left: &joined}
	require.NoError(t, NewDefaultScanner().ScanRow(r, &m))

	assert.Equal(t, 4, m.ID)
	assert.Equal(t, "Ann", m.Name)
	require.NotNil(t, m.Email)
	assert.Equal(t, "ann@x.io", *m.Email)
	assert.True(t, joined.Equal(m.Joined))
	assert.Nil(t, m.Left)
	assert.True(t, m.Active)
	assert.Equal(t, "keep", m.Password)
	assert.Equal(t, int64(99), m.Sequence)
	assert.Empty(t, m.lowercase)
}

func TestScanRowSkipsMissingColumns(t *testing.T) {
	r := testRow([]string{"id"}, int64(1))

	m := member{Name: "unchanged"}
	require.NoError(t, NewDefaultScanner().ScanRow(r, &m))
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, "unchanged", m.Name)
}

func TestScanRowErrors(t *testing.T) {
	s := NewDefaultScanner()
	r := testRow([]string{"id"}, "not a number")

	assert.ErrorIs(t, s.ScanRow(r, nil), ErrNilDestination)
	assert.ErrorIs(t, s.ScanRow(r, member{}), ErrNotAPointer)
	assert.ErrorIs(t, s.ScanRow(r, (*member)(nil)), ErrNilDestination)

	n := 0
	assert.ErrorIs(t, s.ScanRow(r, &n), ErrNotAStruct)

	var m member
	err := s.ScanRow(r, &m)
	assert.ErrorIs(t, err, ErrConversion)
	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "id", convErr.Column)
}

func TestRecordShape(t *testing.T) {
	sh, err := shapes.of(reflect.TypeOf(member{}))
	require.NoError(t, err)

	columns := make([]string, 0, len(sh.fields))
	for _, f := range sh.fields {
		columns = append(columns, f.column)
	}
	assert.Equal(t, []string{"id", "name", "email", "joined_at", "left_at", "active", "_seq"}, columns)

	again, err := shapes.of(reflect.TypeOf(member{}))
	require.NoError(t, err)
	assert.Same(t, sh, again)
}

func TestRecordValuesSkipInternalFields(t *testing.T) {
	email := "a@b.c"
	rv, sh, err := recordOf(&member{ID: 1, Name: "Ann", Email: &email, Sequence: 5})
	require.NoError(t, err)

	values := sh.values(rv)
	columns := make([]string, 0, len(values))
	for _, v := range values {
		columns = append(columns, v.column)
	}
	assert.Equal(t, []string{"id", "name", "email", "joined_at", "left_at", "active"}, columns)
	assert.Equal(t, "a@b.c", values[2].value)
	assert.Nil(t, values[4].value)
}
