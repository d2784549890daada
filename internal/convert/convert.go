// Package convert applies ordered, storage-type keyed value transformations before
// values are written to a backend.
package convert

import (
	"fmt"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/hurou927/db-dump/internal/schema"
)

// Converter transforms values declared with storage type For. Store is the storage
// type of the converted values; Unsupported keeps For.
type Converter struct {
	Name    string
	For     schema.StorageType
	Store   schema.StorageType
	Convert func(any) (any, error)
}

// Pipeline is an ordered converter registry. It is configured once at composition
// time and must not change while rows are being materialized.
type Pipeline struct {
	converters []Converter
}

// NewPipeline registers converters in order.
func NewPipeline(converters ...Converter) *Pipeline {
	p := &Pipeline{converters: make([]Converter, len(converters))}
	copy(p.converters, converters)
	return p
}

// Convert threads v through every converter registered for declared, in
// registration order.
func (p *Pipeline) Convert(v any, declared schema.StorageType) (any, error) {
	if p == nil {
		return v, nil
	}
	for _, c := range p.converters {
		if c.For != declared {
			continue
		}
		out, err := c.Convert(v)
		if err != nil {
			return nil, fmt.Errorf("converting %s value with %s: %w", declared, c.Name, err)
		}
		v = out
	}
	return v, nil
}

// Resolve returns the storage type of values declared as declared once they have
// passed the pipeline.
func (p *Pipeline) Resolve(declared schema.StorageType) schema.StorageType {
	if p == nil {
		return declared
	}
	resolved := declared
	for _, c := range p.converters {
		if c.For == declared && c.Store != schema.Unsupported {
			resolved = c.Store
		}
	}
	return resolved
}

// Len returns the number of registered converters.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.converters)
}

// Func builds a converter from a typed function. Values that are not a T, nil
// included, pass through unchanged.
func Func[T any](name string, forType, store schema.StorageType, fn func(T) (any, error)) Converter {
	return Converter{
		Name:  name,
		For:   forType,
		Store: store,
		Convert: func(v any) (any, error) {
			t, ok := v.(T)
			if !ok {
				return v, nil
			}
			return fn(t)
		},
	}
}

// DurationToTicks stores durations as int64 nanosecond ticks, for backends without a
// native duration type.
func DurationToTicks() Converter {
	return Func("duration-to-ticks", schema.TimeSpan, schema.Int64, func(d time.Duration) (any, error) {
		return int64(d), nil
	})
}

// CharToString stores characters as one-character strings.
func CharToString() Converter {
	return Func("char-to-string", schema.CharType, schema.String, func(c schema.Char) (any, error) {
		return string(rune(c)), nil
	})
}

// WidenInt stores small integers of type T as int64 without changing the column type.
func WidenInt[T constraints.Integer](forType schema.StorageType) Converter {
	return Func(fmt.Sprintf("widen-%s", forType), forType, schema.Unsupported, func(v T) (any, error) {
		return int64(v), nil
	})
}
