package schema

import (
	"reflect"
	"sync"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
)

// ScalarColumn is the column name of the scalar wrapper.
const ScalarColumn = "Value"

// Type describes how values of one Go type become rows. Types are declared once at
// composition time and used as cache keys.
type Type struct {
	goType reflect.Type
	scalar bool
	fields []field
}

type field struct {
	name     string
	storage  StorageType
	nullable bool
	identity bool
	get      func(any) any
}

// GoType returns the described Go type.
func (t *Type) GoType() reflect.Type {
	return t.goType
}

// IsScalar reports whether the type is a storage scalar wrapped in a single
// Value column.
func (t *Type) IsScalar() bool {
	return t.scalar
}

// Model is the typed handle of a Type.
type Model[M any] struct {
	t *Type
}

// Type returns the untyped descriptor.
func (m *Model[M]) Type() *Type {
	return m.t
}

// Field is one candidate column of a model.
type Field[M any] struct {
	name     string
	storage  StorageType
	nullable bool
	identity bool
	get      func(M) any
}

// Col declares a column backed by get. A V outside the storage allowlist yields a
// field that Describe silently drops.
func Col[M, V any](name string, get func(M) V) Field[M] {
	st, nullable, value := storageOf[V]()
	if st == Unsupported {
		return Field[M]{name: name}
	}
	return Field[M]{
		name:     name,
		storage:  st,
		nullable: nullable,
		get:      func(m M) any { return value(get(m)) },
	}
}

// Identity marks the column as an identity column.
func (f Field[M]) Identity() Field[M] {
	f.identity = true
	return f
}

// Name returns the declared column name.
func (f Field[M]) Name() string { return f.name }

// StorageType returns the resolved storage type, Unsupported when outside the
// allowlist.
func (f Field[M]) StorageType() StorageType { return f.storage }

// Nullable reports whether the column accepts nil.
func (f Field[M]) Nullable() bool { return f.nullable }

// Value reads the field from m. Unsupported fields read as nil.
func (f Field[M]) Value(m M) any {
	if f.get == nil {
		return nil
	}
	return f.get(m)
}

// Supported reports whether the field resolved to a storage type.
func (f Field[M]) Supported() bool {
	return f.storage != Unsupported
}

// Describe declares the columns of M. When M itself is a storage type the fields are
// ignored and the scalar wrapper is returned instead.
func Describe[M any](fields ...Field[M]) *Model[M] {
	if IsStorageType[M]() {
		m, _ := Scalar[M]()
		return m
	}

	t := &Type{goType: reflect.TypeFor[M]()}
	for _, f := range fields {
		if !f.Supported() {
			continue
		}
		get := f.get
		t.fields = append(t.fields, field{
			name:     f.name,
			storage:  f.storage,
			nullable: f.nullable,
			identity: f.identity,
			get:      func(m any) any { return get(m.(M)) },
		})
	}
	return &Model[M]{t: t}
}

// builtin holds the generated Types of scalar wrappers and dictionary entries so
// that every call for the same Go type shares one cache key.
var builtin sync.Map // reflect.Type -> *Type

// Scalar wraps a storage type V in a single-column model.
func Scalar[V any]() (*Model[V], error) {
	rt := reflect.TypeFor[V]()
	if t, ok := builtin.Load(rt); ok {
		return &Model[V]{t: t.(*Type)}, nil
	}
	st, nullable, value := storageOf[V]()
	if st == Unsupported {
		return nil, &dumperrors.TypeError{
			Type:     rt.String(),
			Expected: "scalar storage type",
		}
	}
	t, _ := builtin.LoadOrStore(rt, &Type{
		goType: rt,
		scalar: true,
		fields: []field{{
			name:     ScalarColumn,
			storage:  st,
			nullable: nullable,
			get:      value,
		}},
	})
	return &Model[V]{t: t.(*Type)}, nil
}

// KeyValue is one dictionary entry.
type KeyValue[K comparable, V any] struct {
	Key   K
	Value V
}

// KeyValueModel describes dictionary entries as Key and Value columns. When V is not
// a storage type only the Key column remains.
func KeyValueModel[K comparable, V any]() *Model[KeyValue[K, V]] {
	rt := reflect.TypeFor[KeyValue[K, V]]()
	if t, ok := builtin.Load(rt); ok {
		return &Model[KeyValue[K, V]]{t: t.(*Type)}
	}
	m := Describe(
		Col("Key", func(kv KeyValue[K, V]) K { return kv.Key }),
		Col("Value", func(kv KeyValue[K, V]) V { return kv.Value }),
	)
	t, _ := builtin.LoadOrStore(rt, m.t)
	return &Model[KeyValue[K, V]]{t: t.(*Type)}
}
