package netql

import (
	"database/sql"
	"strings"
)

// Row is the current row of a result set. Columns are looked up by name, exact
// match first and case-insensitively after that. A Row handed to a Read callback
// is only valid during the callback.
type Row struct {
	columns []string
	index   map[string]int
	folded  map[string]int
	values  []any
	dests   []any
}

func newRow(columns []string) *Row {
	r := &Row{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		folded:  make(map[string]int, len(columns)),
		values:  make([]any, len(columns)),
		dests:   make([]any, len(columns)),
	}
	for i, c := range columns {
		if _, dup := r.index[c]; !dup {
			r.index[c] = i
		}
		if _, dup := r.folded[strings.ToLower(c)]; !dup {
			r.folded[strings.ToLower(c)] = i
		}
		r.dests[i] = &r.values[i]
	}
	return r
}

func (r *Row) scan(rows *sql.Rows) error {
	for i := range r.values {
		r.values[i] = nil
	}
	return rows.Scan(r.dests...)
}

func (r *Row) lookup(name string) (int, bool) {
	if i, ok := r.index[name]; ok {
		return i, true
	}
	i, ok := r.folded[strings.ToLower(name)]
	return i, ok
}

// Columns returns the column names in result order.
func (r *Row) Columns() []string {
	return r.columns
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.columns)
}

// IsColumnExist reports whether the result set has a column called name.
func (r *Row) IsColumnExist(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Value returns the raw driver value of a column, or nil when the column does
// not exist.
func (r *Row) Value(name string) any {
	i, ok := r.lookup(name)
	if !ok {
		return nil
	}
	return r.values[i]
}

// At returns the raw driver value of the i-th column.
func (r *Row) At(i int) any {
	return r.values[i]
}

// IsNull reports whether a column is NULL or missing.
func (r *Row) IsNull(name string) bool {
	return r.Value(name) == nil
}

// Map copies the row into a column-to-value map.
func (r *Row) Map() map[string]any {
	out := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		out[c] = r.values[i]
	}
	return out
}

// Get converts a column of the current row into T. A missing column yields the
// zero value and no error.
func Get[T any](r *Row, name string) (T, error) {
	i, ok := r.lookup(name)
	if !ok {
		var zero T
		return zero, nil
	}
	v, err := Convert[T](r.values[i])
	if err != nil {
		var zero T
		return zero, &ConversionError{Column: name, Target: typeName[T](), Value: r.values[i], Err: err}
	}
	return v, nil
}
