package schema

import (
	"fmt"
	"strings"
	"sync"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
)

// Namer turns arbitrary names into valid backend identifiers.
type Namer interface {
	ValidName(name string) string
}

// Layout is the cached column layout of a Type together with the accessors that
// produce each column's value.
type Layout struct {
	Columns []Column
	scalar  bool
	access  []access
}

type access struct {
	declared StorageType
	get      func(any) any
}

// IsScalar reports whether the layout wraps a scalar value.
func (l *Layout) IsScalar() bool {
	return l.scalar
}

// Declared returns the storage type the i-th column was declared with, before any
// backend retyping.
func (l *Layout) Declared(i int) StorageType {
	return l.access[i].declared
}

// Value reads the i-th column from model.
func (l *Layout) Value(i int, model any) any {
	return l.access[i].get(model)
}

// Index returns the position of the named column, or -1.
func (l *Layout) Index(name string) int {
	for i, c := range l.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Option configures a Cache.
type Option func(*Cache)

// WithStorageMap retypes columns at build time, e.g. when a backend stores
// durations as integers.
func WithStorageMap(fn func(StorageType) StorageType) Option {
	return func(c *Cache) {
		c.storage = fn
	}
}

// Cache memoizes layouts and default names per Type. Entries are built once under a
// lock, read without one afterwards and never invalidated, so a Type's fields must
// not change after it is first used.
type Cache struct {
	namer   Namer
	storage func(StorageType) StorageType

	mu      sync.Mutex
	layouts sync.Map // *Type -> *Layout, nil when the type has no columns
	names   sync.Map // *Type -> string
}

// NewCache creates an empty cache resolving names through namer.
func NewCache(namer Namer, opts ...Option) *Cache {
	c := &Cache{
		namer:   namer,
		storage: func(s StorageType) StorageType { return s },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout returns the layout of t, building it on first use. A nil layout without
// error means the type has no storable columns and should be skipped.
func (c *Cache) Layout(t *Type) (*Layout, error) {
	if t == nil {
		return nil, dumperrors.NilArgument("type")
	}
	if v, ok := c.layouts.Load(t); ok {
		return v.(*Layout), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.layouts.Load(t); ok {
		return v.(*Layout), nil
	}

	layout, err := c.build(t)
	if err != nil {
		return nil, err
	}
	c.layouts.Store(t, layout)
	return layout, nil
}

func (c *Cache) build(t *Type) (*Layout, error) {
	l := &Layout{scalar: t.scalar}
	seen := make(map[string]bool, len(t.fields))
	for _, f := range t.fields {
		col, ok, err := c.Column(f.name, f.storage, f.nullable)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if seen[col.Name] {
			return nil, &dumperrors.OperationError{
				Op:      "building layout of " + t.goType.String(),
				Message: fmt.Sprintf("duplicate column %q", col.Name),
			}
		}
		seen[col.Name] = true
		col.Identity = f.identity
		col.OrdPos = len(l.Columns) + 1
		l.Columns = append(l.Columns, col)
		l.access = append(l.access, access{declared: f.storage, get: f.get})
	}
	if len(l.Columns) == 0 {
		return nil, nil
	}
	return l, nil
}

// Column resolves a candidate column: the name is validated and the storage type is
// passed through the backend retyping. ok is false for types outside the allowlist.
func (c *Cache) Column(name string, st StorageType, nullable bool) (Column, bool, error) {
	if st == Unsupported {
		return Column{}, false, nil
	}
	valid, err := c.validName(name)
	if err != nil {
		return Column{}, false, err
	}
	return Column{Name: valid, Type: c.storage(st), Nullable: nullable}, true, nil
}

// TableName resolves the table name of t: a non-blank explicit name wins, otherwise
// the readable name of the type is used.
func (c *Cache) TableName(t *Type, explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return c.validName(explicit)
	}
	if t == nil {
		return "", dumperrors.NilArgument("type")
	}
	if v, ok := c.names.Load(t); ok {
		return c.validName(v.(string))
	}
	name, err := ReadableName(t)
	if err != nil {
		return "", err
	}
	c.names.Store(t, name)
	return c.validName(name)
}

// NewTable returns an empty table for t. A nil table without error means the type
// has no storable columns.
func (c *Cache) NewTable(t *Type, explicit string) (*Table, error) {
	layout, err := c.Layout(t)
	if err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, nil
	}
	name, err := c.TableName(t, explicit)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(layout.Columns))
	copy(cols, layout.Columns)
	return &Table{Name: name, Columns: cols, Layout: layout}, nil
}

// Len returns the number of cached layouts, skipped types included.
func (c *Cache) Len() int {
	n := 0
	c.layouts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ValidName validates name through the cache's namer.
func (c *Cache) ValidName(name string) (string, error) {
	return c.validName(name)
}

func (c *Cache) validName(name string) (string, error) {
	valid := c.namer.ValidName(name)
	if valid == "" {
		return "", &dumperrors.ArgumentError{Name: "name", Message: fmt.Sprintf("%q is not a valid identifier", name)}
	}
	return valid, nil
}
