package netql

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12", "12"},
		{"12.70", "12"},
		{"12,70", "12"},
		{" 7 ", "7"},
		{"-3.9", "-3"},
		{".5", "0"},
		{"", "0"},
		{"-", "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FixNumeric(tt.in), "FixNumeric(%q)", tt.in)
	}
}

type status string

func TestConvert(t *testing.T) {
	t.Run("int from decimal text", func(t *testing.T) {
		v, err := Convert[int]("12.70")
		require.NoError(t, err)
		assert.Equal(t, 12, v)
	})

	t.Run("int from bytes", func(t *testing.T) {
		v, err := Convert[int64]([]byte("42"))
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("bool spellings", func(t *testing.T) {
		for raw, want := range map[any]bool{
			"yes": true, "Y": true, "on": true, "1": true, "true": true,
			"no": false, "off": false, "0": false, "": false,
			int64(1): true, int64(0): false, true: true,
		} {
			v, err := Convert[bool](raw)
			require.NoError(t, err, "%v", raw)
			assert.Equal(t, want, v, "%v", raw)
		}
	})

	t.Run("float", func(t *testing.T) {
		v, err := Convert[float64]("1.5")
		require.NoError(t, err)
		assert.Equal(t, 1.5, v)

		f, err := Convert[float32](int64(2))
		require.NoError(t, err)
		assert.Equal(t, float32(2), f)
	})

	t.Run("string from time", func(t *testing.T) {
		ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		v, err := Convert[string](ts)
		require.NoError(t, err)
		assert.Equal(t, "2024-05-06T07:08:09Z", v)
	})

	t.Run("named string", func(t *testing.T) {
		v, err := Convert[status]([]byte("active"))
		require.NoError(t, err)
		assert.Equal(t, status("active"), v)
	})

	t.Run("time layouts", func(t *testing.T) {
		want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		for _, raw := range []any{
			"2024-01-02T03:04:05Z",
			"2024-01-02 03:04:05",
			[]byte("2024-01-02 03:04:05+00:00"),
			want,
			want.Unix(),
		} {
			v, err := Convert[time.Time](raw)
			require.NoError(t, err, "%v", raw)
			assert.True(t, want.Equal(v), "%v parsed as %v", raw, v)
		}

		_, err := Convert[time.Time]("yesterday")
		assert.Error(t, err)
	})

	t.Run("nullable", func(t *testing.T) {
		v, err := Convert[*int](nil)
		require.NoError(t, err)
		assert.Nil(t, v)

		v, err = Convert[*int]("3")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, 3, *v)

		n, err := Convert[int](nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("scanner", func(t *testing.T) {
		v, err := Convert[sql.NullString]("x")
		require.NoError(t, err)
		assert.Equal(t, sql.NullString{String: "x", Valid: true}, v)

		v, err = Convert[sql.NullString](nil)
		require.NoError(t, err)
		assert.False(t, v.Valid)
	})

	t.Run("bytes are copied", func(t *testing.T) {
		src := []byte("ab")
		v, err := Convert[[]byte](src)
		require.NoError(t, err)
		src[0] = 'z'
		assert.Equal(t, []byte("ab"), v)
	})

	t.Run("interface keeps the driver value", func(t *testing.T) {
		v, err := Convert[any](int64(5))
		require.NoError(t, err)
		assert.Equal(t, int64(5), v)
	})

	t.Run("failures", func(t *testing.T) {
		_, err := Convert[int8](int64(300))
		assert.Error(t, err)

		_, err = Convert[uint](int64(-1))
		assert.Error(t, err)

		_, err = Convert[int]("abc")
		assert.Error(t, err)

		_, err = Convert[bool]("maybe")
		assert.Error(t, err)

		_, err = Convert[[]byte](42)
		assert.Error(t, err)
	})
}
