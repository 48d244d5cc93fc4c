package netql

import (
	"reflect"
	"strings"
	"sync"

	"github.com/mitranim/refut"
)

//
// =====================================================================================
// SCANNER
// -------------------------------------------------------------------------------------
// Record mapping works from a shape: the list of (field, column, converter) entries
// of a struct type, built once with refut and cached per type. Reading a row walks
// the shape, skips columns the result set does not have and converts the rest;
// writing a record (Bulk, SetBulk, WhereStruct) walks the same shape and leaves out
// fields whose column or name starts with "_".
//
// Column names come from the `db:"name"` tag. Untagged fields map to their
// lower-cased name, `db:"-"` fields are ignored.
// =====================================================================================
//

// Scanner maps the current row onto a destination record.
type Scanner interface {
	ScanRow(row *Row, dest any) error
}

// DefaultScanner is the tag-driven Scanner.
type DefaultScanner struct {
	shapes *shapeCache
}

// NewDefaultScanner returns a scanner sharing the package-wide shape cache.
func NewDefaultScanner() *DefaultScanner {
	return &DefaultScanner{shapes: &shapes}
}

// ScanRow fills the struct dest points to. Missing columns are skipped; a value
// that cannot be converted fails with a *ConversionError.
func (s *DefaultScanner) ScanRow(row *Row, dest any) error {
	v := reflect.ValueOf(dest)
	if !v.IsValid() {
		return ErrNilDestination
	}
	if v.Kind() != reflect.Pointer {
		return ErrNotAPointer
	}
	if v.IsNil() {
		return ErrNilDestination
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return ErrNotAStruct
	}
	shape, err := s.shapes.of(elem.Type())
	if err != nil {
		return err
	}
	return shape.scan(row, elem)
}

// ----------------------------------------------------------------------------
// Record shapes
// ----------------------------------------------------------------------------

type fieldShape struct {
	index    []int
	name     string
	column   string
	internal bool
	rtype    reflect.Type
	assign   assigner
}

type recordShape struct {
	rtype  reflect.Type
	fields []fieldShape
}

type shapeCache struct {
	m sync.Map // reflect.Type -> *recordShape
}

var (
	shapes    shapeCache
	assigners sync.Map // reflect.Type -> assigner
)

func cachedAssigner(t reflect.Type) assigner {
	if v, ok := assigners.Load(t); ok {
		return v.(assigner)
	}
	v, _ := assigners.LoadOrStore(t, assignerFor(t))
	return v.(assigner)
}

func (c *shapeCache) of(t reflect.Type) (*recordShape, error) {
	if v, ok := c.m.Load(t); ok {
		return v.(*recordShape), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, ErrNotAStruct
	}

	shape := &recordShape{rtype: t}
	err := refut.TraverseStructRtype(t, func(sfield reflect.StructField, index []int) error {
		if sfield.Anonymous || !sfield.IsExported() {
			return nil
		}
		tag := sfield.Tag.Get("db")
		if tag == "-" {
			return nil
		}
		if !mappable(sfield.Type) {
			return nil
		}
		column := refut.TagIdent(tag)
		if column == "" {
			column = strings.ToLower(sfield.Name)
		}
		shape.fields = append(shape.fields, fieldShape{
			index:    append([]int(nil), index...),
			name:     sfield.Name,
			column:   column,
			internal: strings.HasPrefix(sfield.Name, "_") || strings.HasPrefix(column, "_"),
			rtype:    sfield.Type,
			assign:   cachedAssigner(sfield.Type),
		})
		return nil
	})
	if err != nil {
		return nil, WrapError("describe "+t.String(), err)
	}

	v, _ := c.m.LoadOrStore(t, shape)
	return v.(*recordShape), nil
}

// mappable rejects nested structs that are neither times, scanners nor valuers:
// they cannot live in a single column.
func mappable(t reflect.Type) bool {
	base := refut.RtypeDeref(t)
	if base.Kind() != reflect.Struct || base == timeType {
		return true
	}
	return reflect.PointerTo(base).Implements(scannerType) || base.Implements(valuerType)
}

func (sh *recordShape) scan(row *Row, elem reflect.Value) error {
	for _, f := range sh.fields {
		i, ok := row.lookup(f.column)
		if !ok {
			continue
		}
		if err := f.assign(elem.FieldByIndex(f.index), row.values[i]); err != nil {
			return &ConversionError{Column: f.column, Target: f.rtype.String(), Value: row.values[i], Err: err}
		}
	}
	return nil
}

// columnValue is one writable field of a record.
type columnValue struct {
	column string
	value  any
}

// values lists the writable fields of rv in declaration order. Nil pointers
// become nil; other pointers are dereferenced unless they implement
// driver.Valuer.
func (sh *recordShape) values(rv reflect.Value) []columnValue {
	out := make([]columnValue, 0, len(sh.fields))
	for _, f := range sh.fields {
		if f.internal {
			continue
		}
		out = append(out, columnValue{column: f.column, value: fieldValue(rv.FieldByIndex(f.index))})
	}
	return out
}

func fieldValue(fv reflect.Value) any {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		if fv.Type().Implements(valuerType) {
			return fv.Interface()
		}
		return fv.Elem().Interface()
	}
	return fv.Interface()
}

// recordOf dereferences record and returns its struct value and shape.
func recordOf(record any) (reflect.Value, *recordShape, error) {
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, nil, ErrNilDestination
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, nil, ErrNotAStruct
	}
	shape, err := shapes.of(rv.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return rv, shape, nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
