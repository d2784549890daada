package sample

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/db-dump/internal/config"
	"github.com/hurou927/db-dump/internal/convert"
	"github.com/hurou927/db-dump/internal/db"
	"github.com/hurou927/db-dump/internal/dialect"
	dumperrors "github.com/hurou927/db-dump/internal/errors"
	"github.com/hurou927/db-dump/internal/materialize"
	"github.com/hurou927/db-dump/internal/persist"
	"github.com/hurou927/db-dump/internal/schema"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMaterializer() *materialize.Materializer {
	d := dialect.SQLite()
	p := convert.NewPipeline(d.Converters()...)
	return materialize.New(schema.NewCache(d, schema.WithStorageMap(p.Resolve)), p, 0)
}

func TestFactoryIsDeterministic(t *testing.T) {
	a := slices.Collect(NewFactory(base).Pocos(3, 1))
	b := slices.Collect(NewFactory(base).Pocos(3, 1))
	require.Len(t, a, 3)
	assert.Equal(t, a, b)

	p := a[1]
	assert.Equal(t, int32(2), p.ID)
	assert.Equal(t, "Poco #2", p.Title)
	assert.Equal(t, base.Add(2*time.Hour), *p.DateTime)
	assert.Equal(t, 2*time.Hour, *p.Time)
	assert.Equal(t, []byte("Poco #2"), p.Binary)
	assert.NotEqual(t, a[0].Key, a[1].Key)
}

func TestFactoryNesting(t *testing.T) {
	f := NewFactory(base)

	nested := slices.Collect(f.NestedPocos(2, 1))
	require.Len(t, nested, 2)
	assert.Equal(t, []int32{3, 4}, []int32{nested[1].Pocos[0].ID, nested[1].Pocos[1].ID})

	deep := slices.Collect(f.DeeplyNestedPocos(2, 1))
	require.Len(t, deep, 2)
	assert.Len(t, deep[0].NestedPocos, 2)
	assert.Len(t, deep[0].NestedPocos[0].Pocos, 2)

	complexes := slices.Collect(f.ComplexPocos(2, 1))
	require.Len(t, complexes, 2)
	c := complexes[0]
	assert.Equal(t, []string{"Poco #1", "Poco #2"}, c.SimpleCollection)
	assert.Len(t, c.SimpleDictionary, 2)
	assert.Equal(t, int32(3), c.InnerPoco.ID)

	dict := dictPocos(c.ComplexDictionary)
	require.Len(t, dict, 2)
	assert.Equal(t, "Poco #1", dict[0].DictKey)
	assert.Equal(t, "Poco #2", dict[1].DictKey)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"simple", "named", "nested", "deeply_nested", "complex"}, Names())

	r, err := Lookup("nested")
	require.NoError(t, err)
	assert.Equal(t, "nested", r.Name)

	_, err = Lookup("missing")
	assert.ErrorIs(t, err, dumperrors.ErrInvalidArgument)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		run    string
		prefix string
		tables []string
		keys   map[string]string
	}{
		{run: "simple", tables: []string{"Pocos"}},
		{run: "simple", prefix: "s_", tables: []string{"s_Pocos"}},
		{run: "named", prefix: "n_", tables: []string{"n_FirstCollection", "n_SecondCollection"}},
		{
			run:    "nested",
			tables: []string{"NestedPocos", "Pocos"},
			keys:   map[string]string{"Pocos": "NestedPocoId"},
		},
		{
			run:    "deeply_nested",
			tables: []string{"DeeplyNestedPocos", "NestedPocos", "Pocos"},
			keys:   map[string]string{"NestedPocos": "DeeplyNestedPocoId", "Pocos": "Auto_ParentId"},
		},
		{
			run:    "complex",
			prefix: "c_",
			tables: []string{"c_ComplexPocos", "c_Pocos", "c_KeyValuesOfStringOfString", "c_DictPocos", "c_SingleValuesOfString"},
			keys: map[string]string{
				"c_Pocos":                     "ComplexPocoId",
				"c_KeyValuesOfStringOfString": "ComplexPocoId",
				"c_DictPocos":                 "ComplexPocoId",
				"c_SingleValuesOfString":      "ComplexPocoId",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.run+"/"+tt.prefix, func(t *testing.T) {
			r, err := Lookup(tt.run)
			require.NoError(t, err)

			set, err := r.Preview(newMaterializer(), NewFactory(base), tt.prefix)
			require.NoError(t, err)

			var names []string
			for _, tbl := range set.Tables {
				names = append(names, tbl.Name)
				assert.NotContains(t, tbl.ColumnNames(), "Pocos")
				if key, ok := tt.keys[tbl.Name]; ok {
					assert.Contains(t, tbl.ColumnNames(), key, tbl.Name)
				}
			}
			assert.Equal(t, tt.tables, names)
			assert.Len(t, set.Relations, len(tt.keys))
		})
	}
}

func TestPlanDefaultsToEveryRun(t *testing.T) {
	jobs, err := Plan(newMaterializer(), NewFactory(base), nil)
	require.NoError(t, err)
	require.Len(t, jobs, len(Names()))
	for _, j := range jobs {
		assert.Equal(t, config.DefaultRunCount, j.Count)
		assert.NotEmpty(t, j.Tables)
	}

	_, err = Plan(newMaterializer(), NewFactory(base), []config.Run{{Name: "bogus"}})
	assert.ErrorIs(t, err, dumperrors.ErrInvalidArgument)
}

func TestChains(t *testing.T) {
	jobs, err := Plan(newMaterializer(), NewFactory(base), []config.Run{
		{Name: "simple", Count: 1},
		{Name: "named", Count: 1},
		{Name: "nested", Count: 1, TablePrefix: "n_"},
		{Name: "complex", Count: 1},
		{Name: "deeply_nested", Count: 1, TablePrefix: "n_"},
	})
	require.NoError(t, err)

	var got [][]string
	for _, chain := range Chains(jobs) {
		var names []string
		for _, j := range chain {
			names = append(names, j.Run.Name)
		}
		got = append(got, names)
	}
	assert.Equal(t, [][]string{
		{"simple", "complex"},
		{"named"},
		{"nested", "deeply_nested"},
	}, got)
}

func TestSaveIntoSQLite(t *testing.T) {
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "sample.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	d := dialect.SQLite()
	p := convert.NewPipeline(d.Converters()...)
	mat := materialize.New(schema.NewCache(d, schema.WithStorageMap(p.Resolve)), p, 5)
	repo := persist.NewRepository(db.NewSQLiteStore(conn), d, mat)
	f := NewFactory(base)

	jobs, err := Plan(mat, f, []config.Run{
		{Name: "complex", Count: 2, TablePrefix: "c_"},
		{Name: "deeply_nested", Count: 2, TablePrefix: "d_"},
	})
	require.NoError(t, err)

	for _, j := range jobs {
		_, err := j.Save(context.Background(), repo, f)
		require.NoError(t, err)
	}

	counts := map[string]int{
		"c_ComplexPocos":              2,
		"c_Pocos":                     6,
		"c_KeyValuesOfStringOfString": 4,
		"c_DictPocos":                 4,
		"c_SingleValuesOfString":      4,
		"d_DeeplyNestedPocos":         2,
		"d_NestedPocos":               4,
		"d_Pocos":                     8,
	}
	for table, want := range counts {
		assert.Equal(t, want, count(t, conn, table), table)
	}

	var parents int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(DISTINCT "Auto_ParentId") FROM "d_Pocos"`,
	).Scan(&parents))
	assert.Equal(t, 4, parents)
}

func count(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n))
	return n
}
