package schema

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StorageType is a member of the fixed set of primitive types that can become columns.
type StorageType int

const (
	Unsupported StorageType = iota
	Boolean
	Byte
	Bytes
	CharType
	DateTime
	Decimal
	Double
	GUID
	Int16
	Int32
	Int64
	SByte
	Float
	String
	TimeSpan
	UInt16
	UInt32
	UInt64
)

var storageNames = [...]string{
	Unsupported: "unsupported",
	Boolean:     "boolean",
	Byte:        "byte",
	Bytes:       "bytes",
	CharType:    "char",
	DateTime:    "datetime",
	Decimal:     "decimal",
	Double:      "double",
	GUID:        "guid",
	Int16:       "int16",
	Int32:       "int32",
	Int64:       "int64",
	SByte:       "sbyte",
	Float:       "float",
	String:      "string",
	TimeSpan:    "timespan",
	UInt16:      "uint16",
	UInt32:      "uint32",
	UInt64:      "uint64",
}

func (s StorageType) String() string {
	if s < 0 || int(s) >= len(storageNames) {
		return storageNames[Unsupported]
	}
	return storageNames[s]
}

// StorageTypes lists the allowlist in declaration order.
func StorageTypes() []StorageType {
	types := make([]StorageType, 0, len(storageNames)-1)
	for s := Boolean; s <= UInt64; s++ {
		types = append(types, s)
	}
	return types
}

// Char is a single character column value.
type Char rune

// storageOf resolves the storage type of V. The returned value function maps a V to
// the value stored in a row: pointers are dereferenced (nil becomes nil) and the
// platform-sized integers are widened to their 64-bit forms.
func storageOf[V any]() (st StorageType, nullable bool, value func(any) any) {
	var zero V
	switch any(zero).(type) {
	case bool:
		return Boolean, false, same
	case *bool:
		return Boolean, true, deref[bool]
	case uint8:
		return Byte, false, same
	case *uint8:
		return Byte, true, deref[uint8]
	case []byte:
		return Bytes, true, bytesValue
	case Char:
		return CharType, false, same
	case *Char:
		return CharType, true, deref[Char]
	case time.Time:
		return DateTime, false, same
	case *time.Time:
		return DateTime, true, deref[time.Time]
	case decimal.Decimal:
		return Decimal, false, same
	case *decimal.Decimal:
		return Decimal, true, deref[decimal.Decimal]
	case float64:
		return Double, false, same
	case *float64:
		return Double, true, deref[float64]
	case uuid.UUID:
		return GUID, false, same
	case *uuid.UUID:
		return GUID, true, deref[uuid.UUID]
	case int16:
		return Int16, false, same
	case *int16:
		return Int16, true, deref[int16]
	case int32:
		return Int32, false, same
	case *int32:
		return Int32, true, deref[int32]
	case int64:
		return Int64, false, same
	case *int64:
		return Int64, true, deref[int64]
	case int:
		return Int64, false, intValue
	case *int:
		return Int64, true, func(v any) any {
			if p := v.(*int); p != nil {
				return int64(*p)
			}
			return nil
		}
	case int8:
		return SByte, false, same
	case *int8:
		return SByte, true, deref[int8]
	case float32:
		return Float, false, same
	case *float32:
		return Float, true, deref[float32]
	case string:
		return String, true, same
	case *string:
		return String, true, deref[string]
	case time.Duration:
		return TimeSpan, false, same
	case *time.Duration:
		return TimeSpan, true, deref[time.Duration]
	case uint16:
		return UInt16, false, same
	case *uint16:
		return UInt16, true, deref[uint16]
	case uint32:
		return UInt32, false, same
	case *uint32:
		return UInt32, true, deref[uint32]
	case uint64:
		return UInt64, false, same
	case *uint64:
		return UInt64, true, deref[uint64]
	case uint:
		return UInt64, false, uintValue
	case *uint:
		return UInt64, true, func(v any) any {
			if p := v.(*uint); p != nil {
				return uint64(*p)
			}
			return nil
		}
	}
	return Unsupported, false, nil
}

// IsStorageType reports whether V maps onto the allowlist.
func IsStorageType[V any]() bool {
	st, _, _ := storageOf[V]()
	return st != Unsupported
}

func same(v any) any { return v }

func deref[T any](v any) any {
	if p := v.(*T); p != nil {
		return *p
	}
	return nil
}

func bytesValue(v any) any {
	if b := v.([]byte); b != nil {
		return b
	}
	return nil
}

func intValue(v any) any  { return int64(v.(int)) }
func uintValue(v any) any { return uint64(v.(uint)) }
