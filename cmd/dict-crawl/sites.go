package main

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/dict-crawler/internal/config"
	"github.com/Sternrassler/dict-crawler/internal/sites"
	"github.com/Sternrassler/dict-crawler/internal/sites/handian"
	"github.com/Sternrassler/dict-crawler/internal/sites/vocabulary"
	"github.com/Sternrassler/dict-crawler/internal/sites/webster"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
	"github.com/Sternrassler/dict-crawler/pkg/output"
)

// runEnv is what a site needs to run: settings, a shared document client and
// the error sink. With merge set, records are added to the existing output
// file instead of replacing it.
type runEnv struct {
	cfg     *config.Config
	fetcher sites.Fetcher
	sink    harvest.Sink
	merge   bool
}

// runStats summarizes one run for the command output.
type runStats struct {
	Entries   int
	Succeeded int
	Failed    int
	Batches   int
}

// site binds an adapter's description to the functions that drive it.
type site struct {
	info   sites.Info
	run    func(ctx context.Context, env *runEnv, entries []string) (runStats, error)
	lookup func(ctx context.Context, env *runEnv, entry string) (any, error)
}

// registry holds every adapter in display order.
var registry = []site{
	{
		info: webster.Info,
		run: func(ctx context.Context, env *runEnv, entries []string) (runStats, error) {
			return runSite[webster.Entry](ctx, env, webster.New(env.fetcher, env.cfg.BaseURL), entries)
		},
		lookup: func(ctx context.Context, env *runEnv, entry string) (any, error) {
			return lookupEntry[webster.Entry](ctx, env, webster.New(env.fetcher, env.cfg.BaseURL), entry)
		},
	},
	{
		info: handian.Info,
		run: func(ctx context.Context, env *runEnv, entries []string) (runStats, error) {
			return runSite[handian.Idiom](ctx, env, handian.New(env.fetcher, env.cfg.BaseURL), entries)
		},
		lookup: func(ctx context.Context, env *runEnv, entry string) (any, error) {
			return lookupEntry[handian.Idiom](ctx, env, handian.New(env.fetcher, env.cfg.BaseURL), entry)
		},
	},
	{
		info: vocabulary.Info,
		run: func(ctx context.Context, env *runEnv, entries []string) (runStats, error) {
			return runSite[vocabulary.Word](ctx, env, vocabulary.New(env.fetcher, env.cfg.BaseURL), entries)
		},
		lookup: func(ctx context.Context, env *runEnv, entry string) (any, error) {
			return lookupEntry[vocabulary.Word](ctx, env, vocabulary.New(env.fetcher, env.cfg.BaseURL), entry)
		},
	},
}

func lookupSite(name string) (site, bool) {
	for _, s := range registry {
		if s.info.Name == name {
			return s, true
		}
	}
	return site{}, false
}

// runSite drives the engine for one record type and writes the result set.
// The output file is left untouched when the run fails at run level.
func runSite[R any](ctx context.Context, env *runEnv, adapter harvest.Adapter[R], entries []string) (runStats, error) {
	stats := runStats{Entries: len(entries)}

	sched, err := harvest.NewScheduler(adapter, env.sink, env.cfg.Engine())
	if err != nil {
		return stats, err
	}

	result, err := sched.Run(ctx, entries)
	stats.Succeeded = len(result.Items)
	stats.Failed = len(result.Failures)
	stats.Batches = result.Batches
	if err != nil {
		return stats, err
	}

	write := output.WriteResult[R]
	if env.merge {
		write = output.MergeResult[R]
	}
	if err := write(env.cfg.Output, result); err != nil {
		return stats, err
	}
	return stats, nil
}

// lookupEntry fetches a single entry under the configured retry policy. An
// exhausted entry is returned as its final error and is not logged.
func lookupEntry[R any](ctx context.Context, env *runEnv, adapter harvest.Adapter[R], entry string) (R, error) {
	var zero R
	if v, ok := adapter.(harvest.Validator); ok {
		if err := v.Validate(entry); err != nil {
			return zero, harvest.WithEntry(err, entry)
		}
	}

	exec, err := harvest.NewExecutor(adapter, env.cfg.RetryPolicy())
	if err != nil {
		return zero, err
	}
	outcome := exec.Execute(ctx, entry)
	if outcome.Err != nil {
		return zero, outcome.Err
	}
	return outcome.Record, nil
}

func newSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "sites",
		Short:       "List supported dictionary sites",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Site", "Base URL", "Description"})
			for _, s := range registry {
				t.AppendRow(table.Row{s.info.Name, s.info.BaseURL, s.info.Description})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}
