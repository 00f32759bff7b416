package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/dict-crawler/internal/config"
	"github.com/Sternrassler/dict-crawler/pkg/cache"
	"github.com/Sternrassler/dict-crawler/pkg/errorlog"
	"github.com/Sternrassler/dict-crawler/pkg/fetch"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
	"github.com/Sternrassler/dict-crawler/pkg/output"
)

func newRunCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Harvest every entry of the input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			entries, err := readInput(c.Input)
			if err != nil {
				return err
			}
			return crawl(cmd.Context(), c, entries, false, cmd.OutOrStdout())
		},
	}
}

func newRetryCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Harvest the entries recorded in the error log",
		Long: "Re-runs the entries listed in the error log that the output file does not hold yet. " +
			"Recovered records are merged into the output file. New failures are appended to the same log, so earlier history is kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			logged, err := errorlog.ReadFile(c.ErrorLog)
			if err != nil {
				return err
			}
			if len(logged) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no entries in %s\n", c.ErrorLog)
				return nil
			}

			done, err := output.ReadDocument(c.Output)
			if err != nil {
				return err
			}
			entries := make([]string, 0, len(logged))
			for _, entry := range logged {
				if _, ok := done[entry]; !ok {
					entries = append(entries, entry)
				}
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "all %d logged entries already in %s\n", len(logged), c.Output)
				return nil
			}
			return crawl(cmd.Context(), c, entries, true, cmd.OutOrStdout())
		},
	}
}

func newLookupCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <entry>",
		Short: "Fetch one entry and print its record as JSON",
		Long:  "Fetches a single entry from the configured site under the retry policy and prints the parsed record. Nothing is written to the output file or the error log.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			s, ok := lookupSite(c.Site)
			if !ok {
				return harvest.ConfigurationError("unknown site %q", c.Site)
			}
			client, err := newFetcher(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer client.Close()

			record, err := s.lookup(cmd.Context(), &runEnv{cfg: c, fetcher: client}, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(record)
		},
	}
}

func readInput(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, harvest.ConfigurationError("open input: %v", err)
	}
	defer f.Close()

	entries, err := harvest.ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return entries, nil
}

// docClient is a document client together with the cache connection it
// holds, if any.
type docClient struct {
	*fetch.Client
	closeCache func() error
}

func (c *docClient) Close() error {
	if c.closeCache == nil {
		return nil
	}
	return c.closeCache()
}

// newFetcher builds the document client from settings, connecting the
// document cache when a Redis URL is configured.
func newFetcher(ctx context.Context, cfg *config.Config) (*docClient, error) {
	fetchCfg := fetch.DefaultConfig()
	fetchCfg.UserAgent = cfg.UserAgent
	fetchCfg.Timeout = cfg.Timeout
	fetchCfg.Site = cfg.Site

	dc := &docClient{}
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, harvest.ConfigurationError("document cache: %v", err)
		}
		dc.closeCache = redisClient.Close
		fetchCfg.Cache = cache.NewManager(redisClient)
		log.Info().Str("site", cfg.Site).Msg("Document cache enabled")
	}

	client, err := fetch.New(fetchCfg)
	if err != nil {
		dc.Close()
		return nil, err
	}
	dc.Client = client
	return dc, nil
}

// crawl wires the document client, optional cache and error log, then runs
// the configured site over entries and prints a one-line summary to out.
// With merge set, records are added to the existing output file.
func crawl(ctx context.Context, cfg *config.Config, entries []string, merge bool, out io.Writer) error {
	s, ok := lookupSite(cfg.Site)
	if !ok {
		return harvest.ConfigurationError("unknown site %q", cfg.Site)
	}
	logger := log.With().Str("site", cfg.Site).Logger()

	stopMetrics := startMetrics(cfg.MetricsAddr)
	defer stopMetrics()

	client, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	sink, err := errorlog.Open(cfg.ErrorLog)
	if err != nil {
		return err
	}
	defer sink.Close()

	stats, err := s.run(ctx, &runEnv{cfg: cfg, fetcher: client, sink: sink, merge: merge}, entries)
	if err != nil {
		logger.Error().Err(err).
			Str("error_kind", string(harvest.KindOf(err))).
			Int("succeeded", stats.Succeeded).
			Int("failed", stats.Failed).
			Msg("Run failed")
		return err
	}

	fmt.Fprintf(out, "%d entries: %d succeeded, %d failed (%d batches)\n",
		stats.Entries, stats.Succeeded, stats.Failed, stats.Batches)
	if stats.Failed > 0 {
		fmt.Fprintf(out, "failures appended to %s\n", cfg.ErrorLog)
	}
	return nil
}
