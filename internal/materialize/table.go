// Package materialize turns typed models into bounded batches of rows.
package materialize

import (
	"fmt"
	"iter"

	"github.com/hurou927/db-dump/internal/convert"
	dumperrors "github.com/hurou927/db-dump/internal/errors"
	"github.com/hurou927/db-dump/internal/schema"
)

// DefaultThreshold is the flush threshold used when none is configured.
const DefaultThreshold = 100000

// Materializer builds rows from models using the layouts of a schema cache and the
// value conversions of a backend.
type Materializer struct {
	cache     *schema.Cache
	pipeline  *convert.Pipeline
	threshold int
}

// New creates a materializer that flushes every threshold rows. A threshold below one
// selects DefaultThreshold.
func New(cache *schema.Cache, pipeline *convert.Pipeline, threshold int) *Materializer {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Materializer{cache: cache, pipeline: pipeline, threshold: threshold}
}

// Threshold returns the flush threshold.
func (m *Materializer) Threshold() int {
	return m.threshold
}

// Cache returns the schema cache the materializer resolves layouts from.
func (m *Materializer) Cache() *schema.Cache {
	return m.cache
}

// RowFunc is called with every materialized row before it is appended to its table.
type RowFunc func(row []any)

// plan maps the columns of a table onto the accessors of one layout. Several plans
// may write into the same table.
type plan struct {
	table  *schema.Table
	layout *schema.Layout
	source []int // layout index per table column, -1 when the layout has no such column
}

func newPlan(t *schema.Table, layout *schema.Layout) *plan {
	p := &plan{table: t, layout: layout}
	p.refresh()
	return p
}

// refresh picks up columns added to the table since the last row.
func (p *plan) refresh() {
	for i := len(p.source); i < len(p.table.Columns); i++ {
		p.source = append(p.source, p.layout.Index(p.table.Columns[i].Name))
	}
}

func (m *Materializer) row(p *plan, model any, onRow RowFunc) error {
	p.refresh()
	row := make([]any, len(p.table.Columns))
	for i, li := range p.source {
		if li < 0 {
			continue
		}
		v, err := m.pipeline.Convert(p.layout.Value(li, model), p.layout.Declared(li))
		if err != nil {
			return fmt.Errorf("table %s column %s: %w", p.table.Name, p.table.Columns[i].Name, err)
		}
		row[i] = v
	}
	if onRow != nil {
		onRow(row)
	}
	p.table.Rows = append(p.table.Rows, row)
	return nil
}

// Table appends a row per model to t and yields t every time it holds threshold
// rows, clearing its rows afterwards. The last batch is yielded when it is not empty,
// or when nothing was yielded before so that an empty source still produces one
// empty batch. The yielded table is reused: consume it before resuming.
func (m *Materializer) Table(t *schema.Table, models iter.Seq[any]) iter.Seq2[*schema.Table, error] {
	return func(yield func(*schema.Table, error) bool) {
		if t == nil {
			yield(nil, dumperrors.NilArgument("table"))
			return
		}
		if t.Layout == nil {
			yield(nil, &dumperrors.OperationError{
				Op:      "materializing " + t.Name,
				Message: "table has no model layout",
			})
			return
		}
		if models == nil {
			yield(nil, dumperrors.NilArgument("models"))
			return
		}

		p := newPlan(t, t.Layout)
		yielded := false
		for model := range models {
			if err := m.row(p, model, nil); err != nil {
				yield(nil, err)
				return
			}
			if t.Len() >= m.threshold {
				yielded = true
				if !yield(t, nil) {
					return
				}
				t.Reset()
			}
		}
		if t.Len() > 0 || !yielded {
			yield(t, nil)
		}
	}
}

// Single materializes data into the table of model, named name or after the model's
// type. A model without storable columns yields nothing.
func Single[M any](m *Materializer, model *schema.Model[M], data iter.Seq[M], name string) iter.Seq2[*schema.Table, error] {
	return func(yield func(*schema.Table, error) bool) {
		if model == nil {
			yield(nil, dumperrors.NilArgument("model"))
			return
		}
		if data == nil {
			yield(nil, dumperrors.NilArgument("data"))
			return
		}
		t, err := m.cache.NewTable(model.Type(), name)
		if err != nil {
			yield(nil, err)
			return
		}
		if t == nil {
			return
		}
		for batch, err := range m.Table(t, anySeq(data)) {
			if !yield(batch, err) || err != nil {
				return
			}
		}
	}
}

func anySeq[M any](seq iter.Seq[M]) iter.Seq[any] {
	return func(yield func(any) bool) {
		for v := range seq {
			if !yield(v) {
				return
			}
		}
	}
}
