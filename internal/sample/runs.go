package sample

import (
	"context"
	"fmt"
	"iter"
	"slices"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
	"github.com/hurou927/db-dump/internal/mapping"
	"github.com/hurou927/db-dump/internal/materialize"
	"github.com/hurou927/db-dump/internal/persist"
	"github.com/hurou927/db-dump/internal/schema"
)

// Run is one named dump scenario.
type Run struct {
	Name        string
	Description string

	save    func(ctx context.Context, r *persist.Repository, f *Factory, count int, prefix string) (persist.Report, error)
	preview func(m *materialize.Materializer, f *Factory, prefix string) (*schema.TableSet, error)
}

// Save dumps count source elements generated by f.
func (r Run) Save(ctx context.Context, repo *persist.Repository, f *Factory, count int, prefix string) (persist.Report, error) {
	return r.save(ctx, repo, f, count, prefix)
}

// Preview materializes a single source element and returns the resulting tables.
func (r Run) Preview(m *materialize.Materializer, f *Factory, prefix string) (*schema.TableSet, error) {
	return r.preview(m, f, prefix)
}

var runs = []Run{
	{
		Name:        "simple",
		Description: "flat pocos into one table",
		save: func(ctx context.Context, r *persist.Repository, f *Factory, count int, prefix string) (persist.Report, error) {
			return persist.SaveModels(ctx, r, PocoModel, f.Pocos(count, 1), tableName(prefix, ""))
		},
		preview: func(m *materialize.Materializer, f *Factory, prefix string) (*schema.TableSet, error) {
			return previewModels(m, PocoModel, f.Pocos(1, 1), tableName(prefix, ""))
		},
	},
	{
		Name:        "named",
		Description: "two poco collections under explicit table names",
		save: func(ctx context.Context, r *persist.Repository, f *Factory, count int, prefix string) (persist.Report, error) {
			var report persist.Report
			for i, name := range namedCollections {
				rep, err := persist.SaveModels(ctx, r, PocoModel, f.Pocos(count, 1+i*count), tableName(prefix, name))
				report.Tables = append(report.Tables, rep.Tables...)
				if err != nil {
					return report, err
				}
			}
			return report, nil
		},
		preview: func(m *materialize.Materializer, f *Factory, prefix string) (*schema.TableSet, error) {
			set := &schema.TableSet{}
			for _, name := range namedCollections {
				s, err := previewModels(m, PocoModel, f.Pocos(1, 1), tableName(prefix, name))
				if err != nil {
					return nil, err
				}
				set.Tables = append(set.Tables, s.Tables...)
			}
			return set, nil
		},
	},
	selectorRun("nested", "nested pocos with their children keyed by NestedPocoId",
		func(f *Factory, count int) iter.Seq[NestedPoco] { return f.NestedPocos(count, 1) },
		nestedSelectors),
	selectorRun("deeply_nested", "three levels of pocos, grandchildren keyed by their own parent",
		func(f *Factory, count int) iter.Seq[DeeplyNestedPoco] { return f.DeeplyNestedPocos(count, 1) },
		deeplyNestedSelectors),
	selectorRun("complex", "single children, scalar collections and dictionaries keyed by ComplexPocoId",
		func(f *Factory, count int) iter.Seq[ComplexPoco] { return f.ComplexPocos(count, 1) },
		complexSelectors),
}

var namedCollections = []string{"FirstCollection", "SecondCollection"}

// Runs lists every run in declaration order.
func Runs() []Run {
	return slices.Clone(runs)
}

// Names lists the run names in declaration order.
func Names() []string {
	names := make([]string, len(runs))
	for i, r := range runs {
		names[i] = r.Name
	}
	return names
}

// Lookup finds a run by name.
func Lookup(name string) (Run, error) {
	for _, r := range runs {
		if r.Name == name {
			return r, nil
		}
	}
	return Run{}, &dumperrors.ArgumentError{
		Name:    "run",
		Message: fmt.Sprintf("unknown run %q, expected one of %v", name, Names()),
	}
}

func selectorRun[S any](name, description string, data func(f *Factory, count int) iter.Seq[S], selectors func(prefix string) (mapping.Selectors[S], error)) Run {
	return Run{
		Name:        name,
		Description: description,
		save: func(ctx context.Context, r *persist.Repository, f *Factory, count int, prefix string) (persist.Report, error) {
			sels, err := selectors(prefix)
			if err != nil {
				return persist.Report{}, err
			}
			return persist.Save(ctx, r, data(f, count), sels)
		},
		preview: func(m *materialize.Materializer, f *Factory, prefix string) (*schema.TableSet, error) {
			sels, err := selectors(prefix)
			if err != nil {
				return nil, err
			}
			for set, err := range materialize.TableSet(m, data(f, 1), sels) {
				return set, err
			}
			return &schema.TableSet{}, nil
		},
	}
}

func previewModels[M any](m *materialize.Materializer, model *schema.Model[M], data iter.Seq[M], table string) (*schema.TableSet, error) {
	set := &schema.TableSet{}
	for t, err := range materialize.Single(m, model, data, table) {
		if err != nil {
			return nil, err
		}
		set.Add(t)
		break
	}
	return set, nil
}

// tableName prefixes name, falling back to the readable poco table name. Without a
// prefix name is returned as is, so an empty name keeps the default naming.
func tableName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		name = "Pocos"
	}
	return prefix + name
}

// table returns the Table option for a prefixed name, or nothing when no prefix
// applies.
func table(prefix, readable string) []mapping.Option {
	if prefix == "" {
		return nil
	}
	return []mapping.Option{mapping.Table(prefix + readable)}
}

func nestedSelectors(prefix string) (mapping.Selectors[NestedPoco], error) {
	return mapping.Build(
		mapping.Select(NestedPocoModel,
			func(n NestedPoco) mapping.Items[NestedPoco] { return mapping.One(n) },
			table(prefix, "NestedPocos")...),
		mapping.SelectWithKey(PocoModel,
			func(n NestedPoco) mapping.Items[Poco] { return mapping.Slice(n.Pocos) },
			func(n NestedPoco) int32 { return n.ID },
			append(table(prefix, "Pocos"), mapping.KeyName("NestedPocoId"))...),
	)
}

func deeplyNestedSelectors(prefix string) (mapping.Selectors[DeeplyNestedPoco], error) {
	return mapping.Build(
		mapping.Select(DeeplyNestedPocoModel,
			func(d DeeplyNestedPoco) mapping.Items[DeeplyNestedPoco] { return mapping.One(d) },
			table(prefix, "DeeplyNestedPocos")...),
		mapping.SelectWithKey(NestedPocoModel,
			func(d DeeplyNestedPoco) mapping.Items[NestedPoco] { return mapping.Slice(d.NestedPocos) },
			func(d DeeplyNestedPoco) int32 { return d.ID },
			append(table(prefix, "NestedPocos"), mapping.KeyName("DeeplyNestedPocoId"))...),
		mapping.SelectNested(PocoModel,
			func(d DeeplyNestedPoco) iter.Seq[mapping.Rooted[NestedPoco, Poco]] {
				return func(yield func(mapping.Rooted[NestedPoco, Poco]) bool) {
					for _, n := range d.NestedPocos {
						if !yield(mapping.WithRoot(n, mapping.Slice(n.Pocos))) {
							return
						}
					}
				}
			},
			func(n NestedPoco) int32 { return n.ID },
			table(prefix, "Pocos")...),
	)
}

func complexSelectors(prefix string) (mapping.Selectors[ComplexPoco], error) {
	const key = "ComplexPocoId"
	id := func(c ComplexPoco) int32 { return c.ID }
	titles, err := schema.Scalar[string]()
	if err != nil {
		return nil, err
	}
	return mapping.Build(
		mapping.Select(ComplexPocoModel,
			func(c ComplexPoco) mapping.Items[ComplexPoco] { return mapping.One(c) },
			table(prefix, "ComplexPocos")...),
		mapping.SelectWithKey(PocoModel,
			func(c ComplexPoco) mapping.Items[Poco] { return mapping.One(c.InnerPoco) },
			id, append(table(prefix, "Pocos"), mapping.KeyName(key))...),
		mapping.SelectWithKey(schema.KeyValueModel[string, string](),
			func(c ComplexPoco) mapping.Items[schema.KeyValue[string, string]] {
				return mapping.Entries(c.SimpleDictionary)
			},
			id, append(table(prefix, "KeyValuesOfStringOfString"), mapping.KeyName(key))...),
		mapping.SelectWithKey(DictPocoModel,
			func(c ComplexPoco) mapping.Items[DictPoco] { return mapping.Slice(dictPocos(c.ComplexDictionary)) },
			id, append(table(prefix, "DictPocos"), mapping.KeyName(key))...),
		mapping.SelectWithKey(titles,
			func(c ComplexPoco) mapping.Items[string] { return mapping.Slice(c.SimpleCollection) },
			id, append(table(prefix, "SingleValuesOfString"), mapping.KeyName(key))...),
		mapping.SelectWithKey(PocoModel,
			func(c ComplexPoco) mapping.Items[Poco] { return mapping.Slice(c.ComplexCollection) },
			id, append(table(prefix, "Pocos"), mapping.KeyName(key))...),
	)
}
