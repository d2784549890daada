// Package mapping declares which parts of a source object become which tables, and
// how child tables point back at their parents.
package mapping

import (
	"fmt"
	"iter"
	"reflect"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
	"github.com/hurou927/db-dump/internal/schema"
)

// DefaultKeyName is the foreign key column name used when none is given.
const DefaultKeyName = "Auto_ParentId"

// Kind tags the selector variants.
type Kind int

const (
	// Plain projects a field into a table.
	Plain Kind = iota
	// WithForeignKey also stamps every row with a key read from the source element.
	WithForeignKey
	// NestedWithForeignKey stamps each row with the key of its own rooted parent.
	NestedWithForeignKey
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case WithForeignKey:
		return "with-foreign-key"
	case NestedWithForeignKey:
		return "nested-with-foreign-key"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Group is the run of models one selector yields for one source element, together
// with the foreign key every row of the run carries.
type Group struct {
	Key    any
	HasKey bool
	Models iter.Seq[any]
}

// Key describes the foreign key column of a selector.
type Key struct {
	Name     string
	Type     schema.StorageType
	Nullable bool
}

// Selector is one source-to-table projection over source elements of type S.
type Selector[S any] struct {
	kind    Kind
	model   *schema.Type
	parent  reflect.Type
	table   func() string
	keyName func() string
	key     Key
	groups  func(S) iter.Seq[Group]
	err     error
}

// Option configures a selector.
type Option func(*options)

type options struct {
	table   func() string
	keyName func() string
}

// Table overrides the table name.
func Table(name string) Option {
	return func(o *options) {
		o.table = func() string { return name }
	}
}

// TableFunc computes the table name. It is evaluated once per materialization.
func TableFunc(fn func() string) Option {
	return func(o *options) {
		o.table = fn
	}
}

// KeyName overrides the foreign key column name.
func KeyName(name string) Option {
	return func(o *options) {
		o.keyName = func() string { return name }
	}
}

// KeyNameFunc computes the foreign key column name. It is evaluated once per
// materialization.
func KeyNameFunc(fn func() string) Option {
	return func(o *options) {
		o.keyName = fn
	}
}

func newOptions(opts []Option) options {
	o := options{
		table:   func() string { return "" },
		keyName: func() string { return DefaultKeyName },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Select projects field of every source element into the table of model.
func Select[S, M any](model *schema.Model[M], field func(S) Items[M], opts ...Option) Selector[S] {
	o := newOptions(opts)
	sel := Selector[S]{kind: Plain, table: o.table, keyName: o.keyName}
	if err := check(model, field); err != nil {
		sel.err = err
		return sel
	}
	if isRooted[M]() {
		sel.err = &dumperrors.ArgumentError{
			Name:    "field",
			Message: fmt.Sprintf("%s holds rooted pairs, use SelectNested", reflect.TypeFor[M]()),
		}
		return sel
	}
	sel.model = model.Type()
	sel.groups = func(s S) iter.Seq[Group] {
		return func(yield func(Group) bool) {
			yield(Group{Models: anySeq(field(s).All())})
		}
	}
	return sel
}

// SelectWithKey projects field like Select and stamps every row with key(source)
// in a foreign key column.
func SelectWithKey[S, M, K any](model *schema.Model[M], field func(S) Items[M], key func(S) K, opts ...Option) Selector[S] {
	sel := Select(model, field, opts...)
	sel.kind = WithForeignKey
	if sel.err != nil {
		return sel
	}
	if key == nil {
		sel.err = dumperrors.NilArgument("key")
		return sel
	}
	kf := schema.Col(DefaultKeyName, key)
	sel.parent = reflect.TypeFor[S]()
	sel.key = Key{Type: kf.StorageType(), Nullable: true}
	sel.groups = func(s S) iter.Seq[Group] {
		return func(yield func(Group) bool) {
			yield(Group{Key: kf.Value(s), HasKey: true, Models: anySeq(field(s).All())})
		}
	}
	return sel
}

// SelectNested projects the rooted pairs produced by field. Rows of each pair carry
// key(pair.Parent), so grandchildren point at their immediate parent rather than at
// the source element.
func SelectNested[S, P, M, K any](model *schema.Model[M], field func(S) iter.Seq[Rooted[P, M]], key func(P) K, opts ...Option) Selector[S] {
	o := newOptions(opts)
	sel := Selector[S]{kind: NestedWithForeignKey, table: o.table, keyName: o.keyName}
	if err := check(model, field); err != nil {
		sel.err = err
		return sel
	}
	if key == nil {
		sel.err = dumperrors.NilArgument("key")
		return sel
	}
	kf := schema.Col(DefaultKeyName, key)
	sel.model = model.Type()
	sel.parent = reflect.TypeFor[P]()
	sel.key = Key{Type: kf.StorageType(), Nullable: true}
	sel.groups = func(s S) iter.Seq[Group] {
		return func(yield func(Group) bool) {
			pairs := field(s)
			if pairs == nil {
				return
			}
			for pair := range pairs {
				if !yield(Group{Key: kf.Value(pair.Parent), HasKey: true, Models: anySeq(pair.Items.All())}) {
					return
				}
			}
		}
	}
	return sel
}

func check[M any, F any](model *schema.Model[M], field F) error {
	if model == nil || model.Type() == nil {
		return dumperrors.NilArgument("model")
	}
	if reflect.ValueOf(field).IsNil() {
		return dumperrors.NilArgument("field")
	}
	return nil
}

func anySeq[M any](seq iter.Seq[M]) iter.Seq[any] {
	return func(yield func(any) bool) {
		for m := range seq {
			if !yield(m) {
				return
			}
		}
	}
}

// Kind returns the selector variant.
func (s Selector[S]) Kind() Kind { return s.kind }

// Model returns the described type of the projected models.
func (s Selector[S]) Model() *schema.Type { return s.model }

// Parent returns the Go type the foreign key is read from, nil for plain selectors.
func (s Selector[S]) Parent() reflect.Type { return s.parent }

// TableName returns the explicit table name, empty when the model's readable name
// applies.
func (s Selector[S]) TableName() string {
	if s.table == nil {
		return ""
	}
	return s.table()
}

// Key returns the foreign key column. ok is false for plain selectors and for keys
// outside the storage allowlist.
func (s Selector[S]) Key() (Key, bool) {
	if s.kind == Plain || s.key.Type == schema.Unsupported {
		return Key{}, false
	}
	k := s.key
	k.Name = s.keyName()
	return k, true
}

// Groups iterates the model runs of source element src.
func (s Selector[S]) Groups(src S) iter.Seq[Group] {
	if s.groups == nil {
		return func(func(Group) bool) {}
	}
	return s.groups(src)
}

// Err returns the construction error of the selector.
func (s Selector[S]) Err() error { return s.err }

// Selectors is an ordered, validated selector list.
type Selectors[S any] []Selector[S]

// Build validates sels and returns them as a list.
func Build[S any](sels ...Selector[S]) (Selectors[S], error) {
	for i, s := range sels {
		if s.err != nil {
			return nil, fmt.Errorf("selector %d (%s): %w", i, s.kind, s.err)
		}
	}
	return Selectors[S](sels), nil
}
