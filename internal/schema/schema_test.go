package schema

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// identNamer keeps letters, digits and underscores.
type identNamer struct{}

func (identNamer) ValidName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, name)
}

type Order struct {
	ID       int32
	Customer string
	Shipped  *time.Time
	Lines    []OrderLine
	Notes    map[string]string
}

type OrderLine struct {
	Sku      string
	Quantity int16
}

type Pair[A, B any] struct {
	First  A
	Second B
}

type A struct{ Name string }
type B struct{ Name string }

type Shape interface{ Area() float64 }

var orderModel = Describe(
	Col("Id", func(o Order) int32 { return o.ID }),
	Col("Customer", func(o Order) string { return o.Customer }),
	Col("Shipped", func(o Order) *time.Time { return o.Shipped }),
	Col("Lines", func(o Order) []OrderLine { return o.Lines }),
	Col("Notes", func(o Order) map[string]string { return o.Notes }),
)

// Everything is one model covering the whole allowlist.
type Everything struct {
	Bool     bool
	Byte     uint8
	Bytes    []byte
	Char     Char
	Time     time.Time
	Decimal  decimal.Decimal
	Double   float64
	GUID     uuid.UUID
	Int16    int16
	Int32    int32
	Int64    int64
	SByte    int8
	Float    float32
	String   string
	Duration time.Duration
	UInt16   uint16
	UInt32   uint32
	UInt64   uint64
}

var everythingModel = Describe(
	Col("Bool", func(e Everything) bool { return e.Bool }),
	Col("Byte", func(e Everything) uint8 { return e.Byte }),
	Col("Bytes", func(e Everything) []byte { return e.Bytes }),
	Col("Char", func(e Everything) Char { return e.Char }),
	Col("Time", func(e Everything) time.Time { return e.Time }),
	Col("Decimal", func(e Everything) decimal.Decimal { return e.Decimal }),
	Col("Double", func(e Everything) float64 { return e.Double }),
	Col("GUID", func(e Everything) uuid.UUID { return e.GUID }),
	Col("Int16", func(e Everything) int16 { return e.Int16 }),
	Col("Int32", func(e Everything) int32 { return e.Int32 }),
	Col("Int64", func(e Everything) int64 { return e.Int64 }),
	Col("SByte", func(e Everything) int8 { return e.SByte }),
	Col("Float", func(e Everything) float32 { return e.Float }),
	Col("String", func(e Everything) string { return e.String }),
	Col("Duration", func(e Everything) time.Duration { return e.Duration }),
	Col("UInt16", func(e Everything) uint16 { return e.UInt16 }),
	Col("UInt32", func(e Everything) uint32 { return e.UInt32 }),
	Col("UInt64", func(e Everything) uint64 { return e.UInt64 }),
)
