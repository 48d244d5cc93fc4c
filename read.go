package netql

import (
	"context"
	"reflect"
)

// ----------------------------------------------------------------------------
// Terminal reads
//
// Every read renders the builder once, runs it through the execution scope and
// resets the builder, whether the statement succeeded or not.
// ----------------------------------------------------------------------------

// ReadContext runs the SELECT and calls fn for every row. It returns the number
// of rows read. The *Row is only valid during the call. An error from fn stops
// the iteration and is returned as is.
func (b *Builder) ReadContext(ctx context.Context, fn func(*Row) error) (int, error) {
	st, err := b.Statement()
	if err != nil {
		b.Reset()
		return 0, WrapError("read", err)
	}

	count := 0
	_, err = b.scope(ctx, false, func(ctx context.Context, q QueryExecutor) error {
		return b.db.query(ctx, q, st, func(row *Row) error {
			count++
			if fn == nil {
				return nil
			}
			return fn(row)
		})
	})
	return count, err
}

// Read is ReadContext with context.Background().
func (b *Builder) Read(fn func(*Row) error) (int, error) {
	return b.ReadContext(context.Background(), fn)
}

// IsExistContext reports whether the SELECT returns at least one row. The query
// is wrapped as SELECT 1 FROM (<query>) exists_<identity> GROUP BY 1.
func (b *Builder) IsExistContext(ctx context.Context) (bool, error) {
	if b.err != nil {
		err := b.err
		b.Reset()
		return false, WrapError("exists", err)
	}
	frag, err := b.db.grammar.CompileExists(b, "exists_"+b.ident)
	if err != nil {
		b.Reset()
		return false, WrapError("exists", err)
	}
	st, err := Compile(b.db.dialect, frag)
	if err != nil {
		b.Reset()
		return false, WrapError("exists", err)
	}

	found := false
	_, err = b.scope(ctx, false, func(ctx context.Context, q QueryExecutor) error {
		return b.db.query(ctx, q, st, func(*Row) error {
			found = true
			return nil
		})
	})
	return found, err
}

// IsExist is IsExistContext with context.Background().
func (b *Builder) IsExist() (bool, error) {
	return b.IsExistContext(context.Background())
}

// ----------------------------------------------------------------------------
// Typed reads
// ----------------------------------------------------------------------------

// ReadAs maps the result onto a single T. It reports false when no row was
// returned; with several rows the last one wins. Struct types go through the
// DB's Scanner, other types are converted from the first column.
//
//	user, ok, err := netql.ReadAs[User](ctx, db.Select("*", "users").Where("id", 1))
func ReadAs[T any](ctx context.Context, b *Builder) (T, bool, error) {
	var out T
	found := false
	_, err := b.ReadContext(ctx, func(row *Row) error {
		v, err := decode[T](b.db.scanner, row)
		if err != nil {
			return err
		}
		out, found = v, true
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, found, nil
}

// ReadAsList maps every row onto a T.
func ReadAsList[T any](ctx context.Context, b *Builder) ([]T, error) {
	var out []T
	_, err := b.ReadContext(ctx, func(row *Row) error {
		v, err := decode[T](b.db.scanner, row)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAsArray converts the first column of every row to T.
//
//	ids, err := netql.ReadAsArray[int64](ctx, db.Select("id", "users"))
func ReadAsArray[T any](ctx context.Context, b *Builder) ([]T, error) {
	var out []T
	_, err := b.ReadContext(ctx, func(row *Row) error {
		v, err := column[T](row, 0)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadSingle converts the first column to T. It reports false when no row was
// returned; with several rows the last one wins, as in ReadAs.
func ReadSingle[T any](ctx context.Context, b *Builder) (T, bool, error) {
	var out T
	found := false
	_, err := b.ReadContext(ctx, func(row *Row) error {
		v, err := column[T](row, 0)
		if err != nil {
			return err
		}
		out, found = v, true
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, found, nil
}

func decode[T any](s Scanner, row *Row) (T, error) {
	var out T
	if isRecord(reflect.TypeOf(&out).Elem()) {
		err := s.ScanRow(row, &out)
		return out, err
	}
	return column[T](row, 0)
}

func column[T any](row *Row, i int) (T, error) {
	if i >= row.Len() {
		var zero T
		return zero, nil
	}
	v, err := Convert[T](row.At(i))
	if err != nil {
		var zero T
		return zero, &ConversionError{Column: row.columns[i], Target: typeName[T](), Value: row.At(i), Err: err}
	}
	return v, nil
}

// isRecord reports whether t is mapped field by field rather than converted
// from a single column.
func isRecord(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(scannerType)
}
