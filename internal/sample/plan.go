package sample

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hurou927/db-dump/internal/config"
	"github.com/hurou927/db-dump/internal/materialize"
	"github.com/hurou927/db-dump/internal/persist"
)

// Job is a run bound to its configured count and table prefix.
type Job struct {
	Run    Run
	Count  int
	Prefix string
	Tables []string // live tables the job promotes
}

// Save runs the job against repo.
func (j Job) Save(ctx context.Context, repo *persist.Repository, f *Factory) (persist.Report, error) {
	slog.Debug("running", "run", j.Run.Name, "count", j.Count, "prefix", j.Prefix)
	report, err := j.Run.Save(ctx, repo, f, j.Count, j.Prefix)
	if err != nil {
		return report, fmt.Errorf("run %s: %w", j.Run.Name, err)
	}
	return report, nil
}

// Plan resolves the configured runs, or every run with the default count when none
// are configured. Each run is previewed once to learn the tables it writes.
func Plan(m *materialize.Materializer, f *Factory, runs []config.Run) ([]Job, error) {
	if len(runs) == 0 {
		for _, r := range Runs() {
			runs = append(runs, config.Run{Name: r.Name, Count: config.DefaultRunCount})
		}
	}

	jobs := make([]Job, 0, len(runs))
	for _, rc := range runs {
		run, err := Lookup(rc.Name)
		if err != nil {
			return nil, err
		}
		set, err := run.Preview(m, f, rc.TablePrefix)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.Name, err)
		}
		job := Job{Run: run, Count: rc.Count, Prefix: rc.TablePrefix}
		for _, t := range set.Tables {
			job.Tables = append(job.Tables, t.Name)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Chains groups jobs that promote a common live table. Jobs within a chain keep their
// planned order and must run one after another; separate chains are independent.
func Chains(jobs []Job) [][]Job {
	parent := make([]int, len(jobs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[string]int)
	for i, j := range jobs {
		for _, t := range j.Tables {
			if o, ok := owner[t]; ok {
				a, b := find(o), find(i)
				if a != b {
					parent[max(a, b)] = min(a, b)
				}
				continue
			}
			owner[t] = i
		}
	}

	index := make(map[int]int)
	var chains [][]Job
	for i, j := range jobs {
		root := find(i)
		c, ok := index[root]
		if !ok {
			c = len(chains)
			index[root] = c
			chains = append(chains, nil)
		}
		chains[c] = append(chains[c], j)
	}
	return chains
}
