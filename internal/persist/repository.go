package persist

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
	"github.com/hurou927/db-dump/internal/graph"
	"github.com/hurou927/db-dump/internal/mapping"
	"github.com/hurou927/db-dump/internal/materialize"
	"github.com/hurou927/db-dump/internal/schema"
)

const shadowPrefix = "tmp_"

// Repository saves generations of tables. Every save writes into fresh shadow tables
// and swaps them in only after all batches were written, so readers see either the
// previous generation or the new one.
//
// Saves racing to promote the same live table must be serialized by the caller.
type Repository struct {
	store   Store
	dialect Dialect
	mat     *materialize.Materializer
}

// NewRepository creates a repository writing through store.
func NewRepository(store Store, dialect Dialect, mat *materialize.Materializer) *Repository {
	return &Repository{store: store, dialect: dialect, mat: mat}
}

// TableReport describes the generation written for one live table.
type TableReport struct {
	Live    string
	Shadow  string
	Rows    int64
	Batches int
}

// Report lists the promoted tables in promotion order.
type Report struct {
	Tables []TableReport
}

// Rows returns the number of rows written across all tables.
func (r Report) Rows() int64 {
	var n int64
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// SaveTableSet writes a prebuilt table set as one generation.
func (r *Repository) SaveTableSet(ctx context.Context, set *schema.TableSet) (Report, error) {
	if set == nil {
		return Report{}, dumperrors.NilArgument("set")
	}
	return r.save(ctx, func(yield func(*schema.TableSet, error) bool) {
		yield(set, nil)
	})
}

// SaveTable writes a prebuilt table as one generation.
func (r *Repository) SaveTable(ctx context.Context, t *schema.Table) (Report, error) {
	if t == nil {
		return Report{}, dumperrors.NilArgument("table")
	}
	return r.SaveTableSet(ctx, &schema.TableSet{Tables: []*schema.Table{t}})
}

// Save materializes data through sels and writes every resulting table.
func Save[S any](ctx context.Context, r *Repository, data iter.Seq[S], sels mapping.Selectors[S]) (Report, error) {
	if data == nil {
		return Report{}, dumperrors.NilArgument("data")
	}
	return r.save(ctx, materialize.TableSet(r.mat, data, sels))
}

// SaveOne saves a single source element through sels.
func SaveOne[S any](ctx context.Context, r *Repository, data S, sels mapping.Selectors[S]) (Report, error) {
	if isNil(data) {
		return Report{}, dumperrors.NilArgument("data")
	}
	return Save(ctx, r, func(yield func(S) bool) { yield(data) }, sels)
}

// SaveModels writes data into the single table of model, named table or after the
// model's type.
func SaveModels[M any](ctx context.Context, r *Repository, model *schema.Model[M], data iter.Seq[M], table string) (Report, error) {
	if data == nil {
		return Report{}, dumperrors.NilArgument("data")
	}
	tables := materialize.Single(r.mat, model, data, table)
	return r.save(ctx, func(yield func(*schema.TableSet, error) bool) {
		for t, err := range tables {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(&schema.TableSet{Tables: []*schema.Table{t}}, nil) {
				return
			}
		}
	})
}

// SaveModel writes a single model like SaveModels.
func SaveModel[M any](ctx context.Context, r *Repository, model *schema.Model[M], data M, table string) (Report, error) {
	if isNil(data) {
		return Report{}, dumperrors.NilArgument("data")
	}
	return SaveModels(ctx, r, model, func(yield func(M) bool) { yield(data) }, table)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (r *Repository) save(ctx context.Context, batches iter.Seq2[*schema.TableSet, error]) (report Report, err error) {
	sess, err := r.store.OpenSession(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing session: %w", cerr))
		}
	}()

	gens := &generations{byLive: make(map[string]*generation)}
	for set, err := range batches {
		if err != nil {
			return Report{}, err
		}
		for _, t := range set.Tables {
			if err := r.write(ctx, sess, gens, t); err != nil {
				return Report{}, err
			}
		}
		gens.relate(r.dialect, set.Relations)
	}
	return r.promote(ctx, sess, gens)
}

func (r *Repository) write(ctx context.Context, sess Session, gens *generations, t *schema.Table) error {
	live := r.ensureName(t)
	gen := gens.get(live)

	if gen.state == noShadow {
		gen.shadow = r.shadowName(live)
		ddl := r.dialect.TableDefinition(t.WithName(gen.shadow))
		if err := sess.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("creating shadow table for %s: %w", live, err)
		}
		gen.state = shadowCreated
		slog.Debug("created shadow table", "table", live, "shadow", gen.shadow)
	}

	if t.Len() > 0 {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = r.dialect.ValidName(c.Name)
		}
		n, err := sess.WriteRows(ctx, gen.shadow, cols, t.Rows)
		if err != nil {
			return fmt.Errorf("writing %d rows to %s: %w", t.Len(), gen.shadow, err)
		}
		gen.rows += n
	}
	gen.batches++
	gen.state = shadowWritten
	slog.Debug("wrote batch", "table", live, "shadow", gen.shadow, "rows", t.Len(), "batch", gen.batches)
	return nil
}

func (r *Repository) promote(ctx context.Context, sess Session, gens *generations) (Report, error) {
	var report Report
	for _, live := range gens.ordered() {
		gen := gens.byLive[live]
		if gen.state != shadowWritten {
			continue
		}
		if err := sess.ExecTx(ctx, r.dialect.PromoteStatements(gen.shadow, gen.live)...); err != nil {
			return report, fmt.Errorf("promoting %s to %s: %w", gen.shadow, gen.live, err)
		}
		gen.state = promoted
		slog.Debug("promoted table", "table", gen.live, "shadow", gen.shadow, "rows", gen.rows)
		report.Tables = append(report.Tables, TableReport{
			Live:    gen.live,
			Shadow:  gen.shadow,
			Rows:    gen.rows,
			Batches: gen.batches,
		})
	}
	return report, nil
}

// ensureName returns the live name of t. A table whose name is blank or sanitizes to
// nothing is renamed to Table_<uuid hex> in place, so its later batches land in the
// same generation.
func (r *Repository) ensureName(t *schema.Table) string {
	if live := r.dialect.ValidName(t.Name); live != "" {
		return live
	}
	generated := r.dialect.ValidName("Table_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	slog.Debug("generated table name", "name", t.Name, "generated", generated)
	t.Name = generated
	return generated
}

// shadowName returns a fresh shadow table name for live, truncating live so that the
// unique suffix survives the dialect's identifier limit.
func (r *Repository) shadowName(live string) string {
	suffix := "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	room := r.dialect.MaxIdentifierLength() - len(shadowPrefix) - len(suffix)
	if room < 0 {
		room = 0
	}
	if len(live) > room {
		live = live[:room]
	}
	return r.dialect.ValidName(shadowPrefix + live + suffix)
}

type state int

const (
	noShadow state = iota
	shadowCreated
	shadowWritten
	promoted
)

func (s state) String() string {
	switch s {
	case noShadow:
		return "no-shadow"
	case shadowCreated:
		return "shadow-created"
	case shadowWritten:
		return "shadow-written"
	case promoted:
		return "promoted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// generation tracks one live table through a save.
type generation struct {
	live    string
	shadow  string
	state   state
	rows    int64
	batches int
}

type generations struct {
	byLive    map[string]*generation
	order     []string
	relations []schema.Relation
}

func (g *generations) get(live string) *generation {
	gen, ok := g.byLive[live]
	if !ok {
		gen = &generation{live: live}
		g.byLive[live] = gen
		g.order = append(g.order, live)
	}
	return gen
}

func (g *generations) relate(d Dialect, rels []schema.Relation) {
	for _, rel := range rels {
		rel = schema.Relation{
			Child:  d.ValidName(rel.Child),
			Column: d.ValidName(rel.Column),
			Parent: d.ValidName(rel.Parent),
		}
		if !slices.Contains(g.relations, rel) {
			g.relations = append(g.relations, rel)
		}
	}
}

// ordered returns the live tables parents first.
func (g *generations) ordered() []string {
	set := &schema.TableSet{Relations: g.relations}
	for _, live := range g.order {
		set.Tables = append(set.Tables, &schema.Table{Name: live})
	}
	return graph.Ordered(graph.Build(set), g.order)
}
