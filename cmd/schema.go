package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hurou927/db-dump/internal/dialect"
	"github.com/hurou927/db-dump/internal/graph"
	"github.com/hurou927/db-dump/internal/materialize"
	"github.com/hurou927/db-dump/internal/sample"
	"github.com/hurou927/db-dump/internal/schema"
)

var schemaFormat string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the tables the selected runs would write",
	Long:  `Materializes one element of every selected run and prints the resulting tables and their foreign key relations without touching the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dialect.ByName(cfg.Driver)
		if err != nil {
			return err
		}
		mat := newMaterializer(d)
		jobs, err := sample.Plan(mat, sample.NewFactory(time.Now().UTC()), selectRuns(cfg, runNames))
		if err != nil {
			return err
		}

		set, err := previewSet(jobs, mat)
		if err != nil {
			return err
		}
		g := graph.Build(set)
		order := graph.Ordered(g, tableNames(set))
		if err := graph.ValidateCycles(graph.TopoSortAll(g)); err != nil {
			slog.Warn("tables reference each other", "error", err)
		}

		switch schemaFormat {
		case "mermaid":
			return graph.WriteMermaid(os.Stdout, g)
		case "text":
			return graph.WriteText(os.Stdout, g)
		case "sql":
			return writeDDL(os.Stdout, g, order, d)
		case "json":
			return writeJSON(os.Stdout, g, order, d)
		default:
			return fmt.Errorf("unknown format: %s (supported: mermaid, text, sql, json)", schemaFormat)
		}
	},
}

func init() {
	schemaCmd.Flags().StringSliceVar(&runNames, "run", nil, "runs to inspect (defaults to the configured runs, or all)")
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "text", "output format: text, mermaid, sql or json")
	rootCmd.AddCommand(schemaCmd)
}

// previewSet merges the preview tables of every job. Tables shared between runs are
// listed once.
func previewSet(jobs []sample.Job, mat *materialize.Materializer) (*schema.TableSet, error) {
	merged := &schema.TableSet{}
	factory := sample.NewFactory(time.Now().UTC())
	for _, job := range jobs {
		set, err := job.Run.Preview(mat, factory, job.Prefix)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", job.Run.Name, err)
		}
		for _, t := range set.Tables {
			if merged.Lookup(t.Name) == nil {
				merged.Add(t)
			}
		}
		merged.Relations = append(merged.Relations, set.Relations...)
	}
	return merged, nil
}

func tableNames(set *schema.TableSet) []string {
	names := make([]string, len(set.Tables))
	for i, t := range set.Tables {
		names[i] = t.Name
	}
	return names
}

func writeDDL(w io.Writer, g *graph.Graph, order []string, d *dialect.Dialect) error {
	for _, name := range order {
		if _, err := fmt.Fprintf(w, "%s;\n\n", d.TableDefinition(g.Tables[name])); err != nil {
			return err
		}
	}
	return nil
}

type jsonColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	DbType   string `json:"db_type"`
	Nullable bool   `json:"nullable"`
	Identity bool   `json:"identity,omitempty"`
}

type jsonTable struct {
	Name    string       `json:"name"`
	Columns []jsonColumn `json:"columns"`
}

type jsonSchema struct {
	Dialect   string            `json:"dialect"`
	Tables    []jsonTable       `json:"tables"`
	Relations []schema.Relation `json:"relations"`
}

func writeJSON(w io.Writer, g *graph.Graph, order []string, d *dialect.Dialect) error {
	out := jsonSchema{Dialect: d.Name(), Relations: []schema.Relation{}}
	for _, name := range order {
		t := g.Tables[name]
		jt := jsonTable{Name: t.Name}
		for _, c := range t.Columns {
			jt.Columns = append(jt.Columns, jsonColumn{
				Name:     c.Name,
				Type:     c.Type.String(),
				DbType:   d.StorageDbType(c),
				Nullable: c.Nullable,
				Identity: c.Identity,
			})
		}
		out.Tables = append(out.Tables, jt)
	}
	for _, e := range g.Edges {
		out.Relations = append(out.Relations, schema.Relation{Child: e.ChildTable, Column: e.Column, Parent: e.ParentTable})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
