package dialect

import (
	"strconv"

	"github.com/hurou927/db-dump/internal/convert"
	"github.com/hurou927/db-dump/internal/schema"
)

// SQLiteMaxIdentifierLength bounds generated identifiers. SQLite itself has no limit.
const SQLiteMaxIdentifierLength = 128

// SQLite returns the SQLite dialect.
func SQLite() *Dialect {
	return &Dialect{
		name:     "sqlite",
		maxIdent: SQLiteMaxIdentifierLength,
		tokens: map[schema.StorageType]string{
			schema.Boolean:  "BOOLEAN",
			schema.Byte:     "INTEGER",
			schema.Bytes:    "BLOB",
			schema.CharType: "TEXT",
			schema.DateTime: "TIMESTAMP",
			schema.Decimal:  "TEXT",
			schema.Double:   "REAL",
			schema.GUID:     "TEXT",
			schema.Int16:    "INTEGER",
			schema.Int32:    "INTEGER",
			schema.Int64:    "INTEGER",
			schema.SByte:    "INTEGER",
			schema.Float:    "REAL",
			schema.String:   "TEXT",
			schema.TimeSpan: "INTEGER",
			schema.UInt16:   "INTEGER",
			schema.UInt32:   "INTEGER",
			schema.UInt64:   "TEXT",
		},
		converters: []convert.Converter{
			convert.DurationToTicks(),
			convert.CharToString(),
			Uint64ToText(),
		},
	}
}

// Uint64ToText stores uint64 values as decimal text, since INTEGER is signed.
func Uint64ToText() convert.Converter {
	return convert.Func("uint64-to-text", schema.UInt64, schema.String, func(v uint64) (any, error) {
		return strconv.FormatUint(v, 10), nil
	})
}
