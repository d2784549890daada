package dialect

import (
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/hurou927/db-dump/internal/convert"
	"github.com/hurou927/db-dump/internal/schema"
)

// PostgresMaxIdentifierLength is NAMEDATALEN - 1.
const PostgresMaxIdentifierLength = 63

// Postgres returns the PostgreSQL dialect.
func Postgres() *Dialect {
	return &Dialect{
		name:     "postgres",
		maxIdent: PostgresMaxIdentifierLength,
		tokens: map[schema.StorageType]string{
			schema.Boolean:  "boolean",
			schema.Byte:     "smallint",
			schema.Bytes:    "bytea",
			schema.CharType: "character(1)",
			schema.DateTime: "timestamp with time zone",
			schema.Decimal:  "numeric",
			schema.Double:   "double precision",
			schema.GUID:     "uuid",
			schema.Int16:    "smallint",
			schema.Int32:    "integer",
			schema.Int64:    "bigint",
			schema.SByte:    "smallint",
			schema.Float:    "real",
			schema.String:   "text",
			schema.TimeSpan: "interval",
			schema.UInt16:   "integer",
			schema.UInt32:   "bigint",
			schema.UInt64:   "numeric(20,0)",
		},
		identity: func(c schema.Column) string {
			switch c.Type {
			case schema.Int16, schema.Int32, schema.Int64:
				return "GENERATED BY DEFAULT AS IDENTITY"
			}
			return ""
		},
		converters: []convert.Converter{
			convert.DurationToTicks(),
			convert.CharToString(),
			DecimalToNumeric(),
			Uint64ToNumeric(),
			convert.WidenInt[uint8](schema.Byte),
			convert.WidenInt[int8](schema.SByte),
			convert.WidenInt[uint16](schema.UInt16),
			convert.WidenInt[uint32](schema.UInt32),
		},
	}
}

// DecimalToNumeric encodes decimals as pgtype.Numeric for binary COPY.
func DecimalToNumeric() convert.Converter {
	return convert.Func("decimal-to-numeric", schema.Decimal, schema.Unsupported, func(d decimal.Decimal) (any, error) {
		return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}, nil
	})
}

// Uint64ToNumeric encodes uint64 values, which overflow bigint, as numeric.
func Uint64ToNumeric() convert.Converter {
	return convert.Func("uint64-to-numeric", schema.UInt64, schema.Unsupported, func(v uint64) (any, error) {
		return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Valid: true}, nil
	})
}
