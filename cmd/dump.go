package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hurou927/db-dump/internal/config"
	"github.com/hurou927/db-dump/internal/convert"
	"github.com/hurou927/db-dump/internal/db"
	"github.com/hurou927/db-dump/internal/dialect"
	"github.com/hurou927/db-dump/internal/materialize"
	"github.com/hurou927/db-dump/internal/output"
	"github.com/hurou927/db-dump/internal/persist"
	"github.com/hurou927/db-dump/internal/sample"
	"github.com/hurou927/db-dump/internal/schema"
)

var (
	runNames   []string
	outputPath string
	dryRun     bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump sample object graphs into the configured database",
	Long: `Generates the sample data of every selected run, materializes it into tables and
saves each run as a new generation. Runs writing disjoint tables execute concurrently.
With --dry-run the statements are printed in PostgreSQL COPY format instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		d, err := dialect.ByName(cfg.Driver)
		if err != nil {
			return err
		}
		if dryRun {
			d = dialect.Postgres()
		}
		mat := newMaterializer(d)
		factory := sample.NewFactory(time.Now().UTC().Truncate(time.Second))

		jobs, err := sample.Plan(mat, factory, selectRuns(cfg, runNames))
		if err != nil {
			return err
		}

		var (
			store persist.Store
			limit = cfg.Concurrency
		)
		if dryRun {
			w, closeOutput, err := openOutput()
			if err != nil {
				return err
			}
			defer closeOutput()
			store = output.NewWriter(w)
			limit = 1
		} else {
			s, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			store = s
		}

		repo := persist.NewRepository(store, d, mat)
		chains := sample.Chains(jobs)
		reports := make([][]persist.Report, len(chains))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, chain := range chains {
			g.Go(func() error {
				for _, job := range chain {
					if w, ok := store.(*output.Writer); ok {
						if err := w.Comment(fmt.Sprintf("run %s (count %d): %s", job.Run.Name, job.Count, job.Run.Description)); err != nil {
							return err
						}
					}
					report, err := job.Save(gctx, repo, factory)
					reports[i] = append(reports[i], report)
					if err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if !dryRun {
			printSummary(os.Stderr, mat.Threshold(), chains, reports)
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringSliceVar(&runNames, "run", nil, "runs to dump (defaults to the configured runs, or all)")
	dumpCmd.Flags().StringVar(&outputPath, "output", "", "dry-run output file path (overrides config)")
	dumpCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print statements instead of executing them")
	rootCmd.AddCommand(dumpCmd)
}

func newMaterializer(d *dialect.Dialect) *materialize.Materializer {
	pipeline := convert.NewPipeline(d.Converters()...)
	cache := schema.NewCache(d, schema.WithStorageMap(pipeline.Resolve))
	return materialize.New(cache, pipeline, cfg.FlushThreshold)
}

// selectRuns picks the named runs, taking count and prefix from the config when it
// lists them.
func selectRuns(cfg *config.Config, names []string) []config.Run {
	if len(names) == 0 {
		return cfg.Runs
	}
	runs := make([]config.Run, 0, len(names))
	for _, name := range names {
		r, ok := cfg.Run(name)
		if !ok {
			r = config.Run{Name: name, Count: config.DefaultRunCount}
		}
		runs = append(runs, r)
	}
	return runs
}

func openStore(ctx context.Context) (persist.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &cfg.Connection)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		return db.NewPostgresStore(pool), pool.Close, nil
	default:
		conn, err := db.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return db.NewSQLiteStore(conn), func() { conn.Close() }, nil
	}
}

func openOutput() (io.Writer, func(), error) {
	outPath := outputPath
	if outPath == "" {
		outPath = cfg.Output
	}
	if outPath == "" || outPath == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func printSummary(w io.Writer, threshold int, chains [][]sample.Job, reports [][]persist.Report) {
	fmt.Fprintf(w, "Dump complete (flush threshold %d):\n", threshold)
	for i, chain := range chains {
		for j, job := range chain {
			if j >= len(reports[i]) {
				break
			}
			report := reports[i][j]
			fmt.Fprintf(w, "  %s: %d rows\n", job.Run.Name, report.Rows())
			for _, t := range report.Tables {
				fmt.Fprintf(w, "    %s: %d rows in %d batches\n", t.Live, t.Rows, t.Batches)
			}
		}
	}
}
