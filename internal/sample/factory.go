package sample

import (
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Factory generates deterministic sample data relative to a base time.
type Factory struct {
	Base time.Time
}

// NewFactory creates a factory anchored at base.
func NewFactory(base time.Time) *Factory {
	return &Factory{Base: base}
}

func (f *Factory) poco(kind string, position int) Poco {
	title := fmt.Sprintf("%s #%d", kind, position)
	when := f.Base.Add(time.Duration(position) * time.Hour)
	elapsed := time.Duration(position) * time.Hour
	number := int32(position)
	large := int64(math.MaxInt64 - position)
	fraction := float32(float64(position) / math.Pi)
	dec := decimal.NewFromInt(int64(position)).Add(decimal.NewFromFloat(math.Pi))
	return Poco{
		ID:          int32(position),
		Key:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(title)),
		Title:       title,
		Created:     f.Base,
		DateTime:    &when,
		Time:        &elapsed,
		Number:      &number,
		LargeNumber: &large,
		Fraction:    &fraction,
		Decimal:     &dec,
		Binary:      []byte(title),
	}
}

func (f *Factory) pocoSlice(amount, offset int) []Poco {
	out := make([]Poco, 0, amount)
	for p := range f.Pocos(amount, offset) {
		out = append(out, p)
	}
	return out
}

func (f *Factory) nestedSlice(amount, offset int) []NestedPoco {
	out := make([]NestedPoco, 0, amount)
	for n := range f.NestedPocos(amount, offset) {
		out = append(out, n)
	}
	return out
}

// Pocos yields amount pocos numbered from offset.
func (f *Factory) Pocos(amount, offset int) iter.Seq[Poco] {
	return func(yield func(Poco) bool) {
		for i := range amount {
			if !yield(f.poco("Poco", i+offset)) {
				return
			}
		}
	}
}

// NestedPocos yields amount nested pocos, each owning amount pocos.
func (f *Factory) NestedPocos(amount, offset int) iter.Seq[NestedPoco] {
	return func(yield func(NestedPoco) bool) {
		for i := range amount {
			n := NestedPoco{
				Poco:  f.poco("NestedPoco", i+offset),
				Pocos: f.pocoSlice(amount, 1+i*amount),
			}
			if !yield(n) {
				return
			}
		}
	}
}

// DeeplyNestedPocos yields amount deeply nested pocos, each owning amount nested
// pocos.
func (f *Factory) DeeplyNestedPocos(amount, offset int) iter.Seq[DeeplyNestedPoco] {
	return func(yield func(DeeplyNestedPoco) bool) {
		for i := range amount {
			d := DeeplyNestedPoco{
				Poco:        f.poco("DeeplyNestedPoco", i+offset),
				NestedPocos: f.nestedSlice(amount, 1+i*amount),
			}
			if !yield(d) {
				return
			}
		}
	}
}

// ComplexPocos yields amount complex pocos.
func (f *Factory) ComplexPocos(amount, offset int) iter.Seq[ComplexPoco] {
	return func(yield func(ComplexPoco) bool) {
		for i := range amount {
			children := f.pocoSlice(amount, 1+i*amount)
			c := ComplexPoco{
				Poco:              f.poco("ComplexPoco", i+offset),
				InnerPoco:         f.poco("Poco", amount+1+i*amount),
				ComplexCollection: children,
				SimpleDictionary:  make(map[string]string, amount),
				ComplexDictionary: make(map[string]Poco, amount),
			}
			for _, p := range children {
				c.SimpleCollection = append(c.SimpleCollection, p.Title)
				c.SimpleDictionary[p.Title] = p.Title
				c.ComplexDictionary[p.Title] = p
			}
			if !yield(c) {
				return
			}
		}
	}
}

// dictPocos flattens a dictionary of pocos, ordered by key.
func dictPocos(m map[string]Poco) []DictPoco {
	out := make([]DictPoco, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, DictPoco{Poco: m[k], DictKey: k})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
