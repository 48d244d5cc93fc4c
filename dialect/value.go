package dialect

import "time"

// ValueType is the declared type tag of a bound value. The row mapper uses the
// same tags to pick a converter.
type ValueType int

const (
	TypeAuto ValueType = iota
	TypeString
	TypeBool
	TypeInt
	TypeUint
	TypeFloat
	TypeTime
	TypeBytes
	TypeNull
)

var valueTypeNames = [...]string{
	"auto", "string", "bool", "int", "uint", "float", "time", "bytes", "null",
}

// String returns the tag name.
func (t ValueType) String() string {
	if int(t) >= 0 && int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// TypeOf infers the tag of a Go value. Pointers to the basic types are
// dereferenced; a nil pointer is TypeNull. Anything outside the closed set is
// TypeAuto and goes to the driver unchanged.
func TypeOf(v any) ValueType {
	switch x := v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBool
	case int, int8, int16, int32, int64:
		return TypeInt
	case uint, uint8, uint16, uint32, uint64:
		return TypeUint
	case float32, float64:
		return TypeFloat
	case time.Time:
		return TypeTime
	case []byte:
		return TypeBytes
	case *string:
		return derefType(x == nil, TypeString)
	case *bool:
		return derefType(x == nil, TypeBool)
	case *int:
		return derefType(x == nil, TypeInt)
	case *int32:
		return derefType(x == nil, TypeInt)
	case *int64:
		return derefType(x == nil, TypeInt)
	case *float64:
		return derefType(x == nil, TypeFloat)
	case *time.Time:
		return derefType(x == nil, TypeTime)
	default:
		return TypeAuto
	}
}

func derefType(isNil bool, t ValueType) ValueType {
	if isNil {
		return TypeNull
	}
	return t
}
