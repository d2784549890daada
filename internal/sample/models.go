// Package sample provides demo models, a deterministic data factory and the runs
// the CLI can dump.
package sample

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hurou927/db-dump/internal/schema"
)

// Poco is a flat record covering the common column types.
type Poco struct {
	ID          int32
	Key         uuid.UUID
	Title       string
	Created     time.Time
	DateTime    *time.Time
	Time        *time.Duration
	Number      *int32
	LargeNumber *int64
	Fraction    *float32
	Decimal     *decimal.Decimal
	Binary      []byte
}

// NestedPoco owns a collection of pocos.
type NestedPoco struct {
	Poco
	Pocos []Poco
}

// DeeplyNestedPoco owns nested pocos, which own pocos in turn.
type DeeplyNestedPoco struct {
	Poco
	NestedPocos []NestedPoco
}

// ComplexPoco mixes single children, scalar collections and dictionaries.
type ComplexPoco struct {
	Poco
	InnerPoco         Poco
	SimpleCollection  []string
	ComplexCollection []Poco
	SimpleDictionary  map[string]string
	ComplexDictionary map[string]Poco
}

// DictPoco is a dictionary value flattened together with its key.
type DictPoco struct {
	Poco
	DictKey string
}

func pocoFields[M any](p func(M) *Poco) []schema.Field[M] {
	return []schema.Field[M]{
		schema.Col("Id", func(m M) int32 { return p(m).ID }),
		schema.Col("Key", func(m M) uuid.UUID { return p(m).Key }),
		schema.Col("Title", func(m M) string { return p(m).Title }),
		schema.Col("Created", func(m M) time.Time { return p(m).Created }),
		schema.Col("DateTime", func(m M) *time.Time { return p(m).DateTime }),
		schema.Col("Time", func(m M) *time.Duration { return p(m).Time }),
		schema.Col("Number", func(m M) *int32 { return p(m).Number }),
		schema.Col("LargeNumber", func(m M) *int64 { return p(m).LargeNumber }),
		schema.Col("Fraction", func(m M) *float32 { return p(m).Fraction }),
		schema.Col("Decimal", func(m M) *decimal.Decimal { return p(m).Decimal }),
		schema.Col("Binary", func(m M) []byte { return p(m).Binary }),
	}
}

var (
	PocoModel = schema.Describe(pocoFields(func(p Poco) *Poco { return &p })...)

	NestedPocoModel = schema.Describe(append(
		pocoFields(func(n NestedPoco) *Poco { return &n.Poco }),
		schema.Col("Pocos", func(n NestedPoco) []Poco { return n.Pocos }),
	)...)

	DeeplyNestedPocoModel = schema.Describe(pocoFields(func(d DeeplyNestedPoco) *Poco { return &d.Poco })...)

	ComplexPocoModel = schema.Describe(pocoFields(func(c ComplexPoco) *Poco { return &c.Poco })...)

	DictPocoModel = schema.Describe(append(
		pocoFields(func(d DictPoco) *Poco { return &d.Poco }),
		schema.Col("DictKey", func(d DictPoco) string { return d.DictKey }),
	)...)
)
