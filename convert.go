package netql

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/biyonik/go-netql/dialect"
)

// converter normalises a raw driver value into the canonical Go value of a type
// tag: string, bool, int64, uint64, float64, time.Time or []byte.
type converter func(raw any) (any, error)

// converters is the closed dispatch table from type tag to conversion.
// TypeAuto has no entry; callers fall back to direct assignment and then to
// asString.
var converters = map[dialect.ValueType]converter{
	dialect.TypeString: asString,
	dialect.TypeBool:   asBool,
	dialect.TypeInt:    asInt64,
	dialect.TypeUint:   asUint64,
	dialect.TypeFloat:  asFloat64,
	dialect.TypeTime:   asTime,
	dialect.TypeBytes:  asBytes,
}

// timeLayouts are tried in order when text has to become a time.Time. The
// second entry is the format modernc.org/sqlite writes.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FixNumeric truncates decimal text at the first '.' or ',' so that it can be
// parsed as an integer: "12.70" and "12,70" both become "12".
func FixNumeric(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "-" || s == "+" {
		return "0"
	}
	return s
}

func rawText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func asString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case nil:
		return "", nil
	}
	return fmt.Sprint(raw), nil
}

func asBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}
	if s, ok := rawText(raw); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "y", "yes", "on":
			return true, nil
		case "n", "no", "off", "":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(s))
	}
	return nil, fmt.Errorf("unsupported source type %T", raw)
}

func asInt64(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	}
	if s, ok := rawText(raw); ok {
		return strconv.ParseInt(FixNumeric(s), 10, 64)
	}
	return nil, fmt.Errorf("unsupported source type %T", raw)
}

func asUint64(raw any) (any, error) {
	switch v := raw.(type) {
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return nil, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case float64:
		if v < 0 {
			return nil, fmt.Errorf("negative value %v", v)
		}
		return uint64(v), nil
	}
	if s, ok := rawText(raw); ok {
		return strconv.ParseUint(FixNumeric(s), 10, 64)
	}
	return nil, fmt.Errorf("unsupported source type %T", raw)
}

func asFloat64(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	}
	if s, ok := rawText(raw); ok {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	return nil, fmt.Errorf("unsupported source type %T", raw)
}

func asTime(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	s, ok := rawText(raw)
	if !ok {
		return nil, fmt.Errorf("unsupported source type %T", raw)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised time %q", s)
}

func asBytes(raw any) (any, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("unsupported source type %T", raw)
}

// ----------------------------------------------------------------------------
// Assignment into Go values
// ----------------------------------------------------------------------------

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// tagFor classifies a destination type once, when a record shape is built.
func tagFor(t reflect.Type) dialect.ValueType {
	if t == timeType {
		return dialect.TypeTime
	}
	switch t.Kind() {
	case reflect.String:
		return dialect.TypeString
	case reflect.Bool:
		return dialect.TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return dialect.TypeInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return dialect.TypeUint
	case reflect.Float32, reflect.Float64:
		return dialect.TypeFloat
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return dialect.TypeBytes
		}
	}
	return dialect.TypeAuto
}

// assigner stores a raw driver value into a destination of a fixed type.
type assigner func(dst reflect.Value, raw any) error

// assignerFor builds the assigner for t. Pointer types are nullable: NULL
// leaves them nil. sql.Scanner implementations receive the raw value as is.
func assignerFor(t reflect.Type) assigner {
	if reflect.PointerTo(t).Implements(scannerType) {
		return func(dst reflect.Value, raw any) error {
			return dst.Addr().Interface().(sql.Scanner).Scan(raw)
		}
	}
	if t.Kind() == reflect.Pointer {
		elem := assignerFor(t.Elem())
		return func(dst reflect.Value, raw any) error {
			if raw == nil {
				dst.Set(reflect.Zero(t))
				return nil
			}
			v := reflect.New(t.Elem())
			if err := elem(v.Elem(), raw); err != nil {
				return err
			}
			dst.Set(v)
			return nil
		}
	}

	tag := tagFor(t)
	conv, ok := converters[tag]
	if !ok {
		return assignAuto(t)
	}
	return func(dst reflect.Value, raw any) error {
		if raw == nil {
			dst.Set(reflect.Zero(t))
			return nil
		}
		v, err := conv(raw)
		if err != nil {
			return err
		}
		return setCanonical(dst, tag, v)
	}
}

// assignAuto handles types outside the closed set: direct assignment when the
// driver value fits, conversion for named basic types, string as a last resort.
func assignAuto(t reflect.Type) assigner {
	return func(dst reflect.Value, raw any) error {
		if raw == nil {
			dst.Set(reflect.Zero(t))
			return nil
		}
		rv := reflect.ValueOf(raw)
		switch {
		case rv.Type().AssignableTo(t):
			dst.Set(rv)
		case rv.Type().ConvertibleTo(t) && rv.Kind() != reflect.String:
			dst.Set(rv.Convert(t))
		case t.Kind() == reflect.Interface:
			dst.Set(rv)
		default:
			s, _ := asString(raw)
			sv := reflect.ValueOf(s)
			if !sv.Type().ConvertibleTo(t) {
				return fmt.Errorf("cannot assign %T to %s", raw, t)
			}
			dst.Set(sv.Convert(t))
		}
		return nil
	}
}

func setCanonical(dst reflect.Value, tag dialect.ValueType, v any) error {
	switch tag {
	case dialect.TypeString:
		dst.SetString(v.(string))
	case dialect.TypeBool:
		dst.SetBool(v.(bool))
	case dialect.TypeInt:
		n := v.(int64)
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case dialect.TypeUint:
		n := v.(uint64)
		if dst.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(n)
	case dialect.TypeFloat:
		f := v.(float64)
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
	case dialect.TypeTime:
		dst.Set(reflect.ValueOf(v.(time.Time)))
	case dialect.TypeBytes:
		b := v.([]byte)
		dst.SetBytes(append([]byte(nil), b...))
	}
	return nil
}

// Convert converts a raw column value into T using the same rules as the row
// mapper.
func Convert[T any](raw any) (T, error) {
	var out T
	t := reflect.TypeOf(&out).Elem()
	if err := cachedAssigner(t)(reflect.ValueOf(&out).Elem(), raw); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Parameter values
// ----------------------------------------------------------------------------

// bindValue prepares a parameter for the driver. A declared type tag coerces the
// value to that type; driver.Valuer implementations and untagged values pass
// through unchanged.
func bindValue(p dialect.Param) (any, error) {
	v := p.Value
	if v == nil {
		return nil, nil
	}
	if _, ok := v.(driver.Valuer); ok {
		return v, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	if p.Type == dialect.TypeAuto || p.Type == dialect.TypeNull || p.Type == dialect.TypeOf(v) {
		return v, nil
	}
	conv, ok := converters[p.Type]
	if !ok {
		return v, nil
	}
	out, err := conv(v)
	if err != nil {
		return nil, &ConversionError{Column: p.Name, Target: p.Type.String(), Value: v, Err: err}
	}
	return out, nil
}
