package dialect

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/db-dump/internal/convert"
	"github.com/hurou927/db-dump/internal/schema"
)

func allTypes() []schema.Column {
	cols := []schema.Column{{Name: "Id", Type: schema.Int64, Identity: true}}
	for _, st := range schema.StorageTypes() {
		cols = append(cols, schema.Column{Name: "c_" + st.String(), Type: st, Nullable: st == schema.String})
	}
	return cols
}

func renderDDL(d *Dialect) []byte {
	var b strings.Builder
	for _, c := range allTypes() {
		b.WriteString(d.ColumnDefinition(c))
		b.WriteByte('\n')
	}
	orders := schema.NewTable("Orders",
		schema.Column{Name: "Id", Type: schema.Int64, Identity: true},
		schema.Column{Name: "Customer", Type: schema.String, Nullable: true},
	)
	b.WriteString(d.TableDefinition(orders))
	b.WriteByte('\n')
	for _, stmt := range d.PromoteStatements("tmp_Orders_abc", "Orders") {
		b.WriteString(stmt)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func TestDDL(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, d := range []*Dialect{Postgres(), SQLite()} {
		t.Run(d.Name(), func(t *testing.T) {
			g.Assert(t, d.Name()+"_ddl", renderDDL(d))
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Orders":        "Orders",
		"open orders!":  "openorders",
		"Café_Crème":    "Cafe_Creme",
		"naïve-résumé":  "naiveresume",
		"tmp_日本_x":      "tmp__x",
		"":              "",
		"Straße":        "Strae",
		"PairsOfAOfB":   "PairsOfAOfB",
		"Auto_ParentId": "Auto_ParentId",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), in)
	}
}

func TestValidNameIsIdempotentAndBounded(t *testing.T) {
	long := strings.Repeat("Ab_9", 100) + "é!"
	for _, d := range []*Dialect{Postgres(), SQLite()} {
		t.Run(d.Name(), func(t *testing.T) {
			for _, in := range []string{long, "short", "with space", strings.Repeat("x", d.MaxIdentifierLength()+1)} {
				once := d.ValidName(in)
				assert.LessOrEqual(t, len(once), d.MaxIdentifierLength())
				assert.Equal(t, once, d.ValidName(once))
			}
			assert.Len(t, d.ValidName(long), d.MaxIdentifierLength())
		})
	}
}

func TestQuote(t *testing.T) {
	d := Postgres()
	assert.Equal(t, `"Orders"`, d.Quote("Orders"))
	assert.Equal(t, `"openorders"`, d.Quote(`open "orders"`))
}

func TestByName(t *testing.T) {
	d, err := ByName("postgres")
	require.NoError(t, err)
	assert.Equal(t, PostgresMaxIdentifierLength, d.MaxIdentifierLength())

	d, err = ByName("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLiteMaxIdentifierLength, d.MaxIdentifierLength())

	_, err = ByName("oracle")
	assert.Error(t, err)
}

func TestPostgresConverters(t *testing.T) {
	p := convert.NewPipeline(Postgres().Converters()...)

	assert.Equal(t, schema.Int64, p.Resolve(schema.TimeSpan))
	assert.Equal(t, schema.String, p.Resolve(schema.CharType))
	assert.Equal(t, schema.UInt64, p.Resolve(schema.UInt64))

	v, err := p.Convert(decimal.RequireFromString("-12.345"), schema.Decimal)
	require.NoError(t, err)
	num := v.(pgtype.Numeric)
	assert.True(t, num.Valid)
	assert.Equal(t, 0, num.Int.Cmp(big.NewInt(-12345)))
	assert.Equal(t, int32(-3), num.Exp)

	v, err = p.Convert(uint64(18446744073709551615), schema.UInt64)
	require.NoError(t, err)
	n := v.(pgtype.Numeric)
	assert.Equal(t, "18446744073709551615", n.Int.String())
	assert.Zero(t, n.Exp)

	v, err = p.Convert(uint8(200), schema.Byte)
	require.NoError(t, err)
	assert.Equal(t, int64(200), v)

	v, err = p.Convert(2*time.Second, schema.TimeSpan)
	require.NoError(t, err)
	assert.Equal(t, int64(2*time.Second), v)
}

func TestSQLiteConverters(t *testing.T) {
	p := convert.NewPipeline(SQLite().Converters()...)

	assert.Equal(t, schema.String, p.Resolve(schema.UInt64))
	v, err := p.Convert(uint64(18446744073709551615), schema.UInt64)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", v)

	v, err = p.Convert(schema.Char('é'), schema.CharType)
	require.NoError(t, err)
	assert.Equal(t, "é", v)
}
