package materialize

import (
	"iter"
	"log/slog"
	"slices"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
	"github.com/hurou927/db-dump/internal/mapping"
	"github.com/hurou927/db-dump/internal/schema"
)

// binding is a selector resolved against the tables of a set.
type binding[S any] struct {
	sel      mapping.Selector[S]
	plan     *plan
	fk       int // index of the foreign key column, -1 when rows carry none
	declared schema.StorageType
}

// TableSet walks data once, projecting every element through sels in order. The set
// is yielded whenever its tables hold threshold rows together, and then cleared; the
// final partial set is yielded at the end. Table names and foreign key columns are
// resolved once, before the first element is read. The yielded set is reused:
// consume it before resuming.
func TableSet[S any](m *Materializer, data iter.Seq[S], sels mapping.Selectors[S]) iter.Seq2[*schema.TableSet, error] {
	return func(yield func(*schema.TableSet, error) bool) {
		if data == nil {
			yield(nil, dumperrors.NilArgument("data"))
			return
		}
		set := &schema.TableSet{}
		bindings, err := bind(m, set, sels)
		if err != nil {
			yield(nil, err)
			return
		}

		count := 0
		yielded := false
		for src := range data {
			for _, b := range bindings {
				for g := range b.sel.Groups(src) {
					onRow, err := stitch(m, b, g)
					if err != nil {
						yield(nil, err)
						return
					}
					for model := range g.Models {
						if err := m.row(b.plan, model, onRow); err != nil {
							yield(nil, err)
							return
						}
						count++
						if count >= m.threshold {
							yielded = true
							if !yield(set, nil) {
								return
							}
							set.Reset()
							count = 0
						}
					}
				}
			}
		}
		if count > 0 || !yielded {
			yield(set, nil)
		}
	}
}

// stitch returns the callback writing the group's key into the binding's foreign key
// column. It lives for one group only, so selectors sharing a table never see each
// other's keys.
func stitch[S any](m *Materializer, b *binding[S], g mapping.Group) (RowFunc, error) {
	if b.fk < 0 || !g.HasKey {
		return nil, nil
	}
	key, err := m.pipeline.Convert(g.Key, b.declared)
	if err != nil {
		return nil, err
	}
	fk := b.fk
	return func(row []any) {
		row[fk] = key
	}, nil
}

func bind[S any](m *Materializer, set *schema.TableSet, sels mapping.Selectors[S]) ([]*binding[S], error) {
	var bindings []*binding[S]
	for i, sel := range sels {
		if err := sel.Err(); err != nil {
			return nil, err
		}
		layout, err := m.cache.Layout(sel.Model())
		if err != nil {
			return nil, err
		}
		if layout == nil {
			slog.Debug("skipping selector without storable columns", "index", i, "type", sel.Model().GoType())
			continue
		}
		name, err := m.cache.TableName(sel.Model(), sel.TableName())
		if err != nil {
			return nil, err
		}
		t := set.Lookup(name)
		if t == nil {
			if t, err = m.cache.NewTable(sel.Model(), name); err != nil {
				return nil, err
			}
			set.Add(t)
		}

		b := &binding[S]{sel: sel, fk: -1}
		if key, ok := sel.Key(); ok {
			col, ok, err := m.cache.Column(key.Name, key.Type, key.Nullable)
			if err != nil {
				return nil, err
			}
			if ok {
				b.fk = t.AddColumn(col)
				b.declared = key.Type
			}
		}
		b.plan = newPlan(t, layout)
		bindings = append(bindings, b)
	}

	for _, b := range bindings {
		if b.fk < 0 {
			continue
		}
		for _, parent := range bindings {
			if parent != b && parent.sel.Model().GoType() == b.sel.Parent() {
				rel := schema.Relation{
					Child:  b.plan.table.Name,
					Column: b.plan.table.Columns[b.fk].Name,
					Parent: parent.plan.table.Name,
				}
				if !slices.Contains(set.Relations, rel) {
					set.Relations = append(set.Relations, rel)
				}
				break
			}
		}
	}
	return bindings, nil
}
