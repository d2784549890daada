package mapping

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"github.com/hurou927/db-dump/internal/schema"
)

// Items is the set of models a selector projects out of one source element: a single
// model, a sequence, or the entries of a dictionary. The zero value holds nothing.
type Items[M any] struct {
	seq iter.Seq[M]
}

// One holds a single model.
func One[M any](m M) Items[M] {
	return Items[M]{seq: func(yield func(M) bool) {
		yield(m)
	}}
}

// Many holds a lazily produced sequence. A nil seq holds nothing.
func Many[M any](seq iter.Seq[M]) Items[M] {
	return Items[M]{seq: seq}
}

// Slice holds the elements of ms.
func Slice[M any](ms []M) Items[M] {
	return Items[M]{seq: slices.Values(ms)}
}

// Entries holds the entries of m as key/value models, ordered by key.
func Entries[K cmp.Ordered, V any](m map[K]V) Items[schema.KeyValue[K, V]] {
	return Items[schema.KeyValue[K, V]]{seq: func(yield func(schema.KeyValue[K, V]) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(schema.KeyValue[K, V]{Key: k, Value: m[k]}) {
				return
			}
		}
	}}
}

// All iterates the held models.
func (i Items[M]) All() iter.Seq[M] {
	if i.seq == nil {
		return func(func(M) bool) {}
	}
	return i.seq
}

// Rooted pairs child items with the model their foreign key is read from, when that
// model is not the source element itself.
type Rooted[P, M any] struct {
	Parent P
	Items  Items[M]
}

// WithRoot pairs items with parent.
func WithRoot[P, M any](parent P, items Items[M]) Rooted[P, M] {
	return Rooted[P, M]{Parent: parent, Items: items}
}

func (Rooted[P, M]) rootedPair() {}

type rootedPair interface {
	rootedPair()
}

func isRooted[M any]() bool {
	_, ok := any(*new(M)).(rootedPair)
	return ok
}
