// Command dict-crawl harvests dictionary entries from a supported site into a
// JSON file, logging entries that could not be fetched for a later retry.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/dict-crawler/internal/config"
	"github.com/Sternrassler/dict-crawler/pkg/logging"
	"github.com/Sternrassler/dict-crawler/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dict-crawl:", err)
		stop()
		os.Exit(1)
	}
}

// annotationNoConfig marks commands that run without loading settings.
const annotationNoConfig = "no-config"

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "dict-crawl",
		Short:         "Harvest dictionary entries into JSON",
		Long:          "Fetches every entry of an input list from a dictionary site in bounded concurrent batches, retries transient failures and appends exhausted entries to an error log.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[annotationNoConfig]; ok {
				logging.Setup(logging.Config{Level: logging.LevelInfo, Output: cmd.ErrOrStderr()})
				return nil
			}
			c, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := c.Validate(); err != nil {
				return err
			}
			cfg = c
			logging.Setup(cfg.Logging(cmd.ErrOrStderr()))
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	current := func() *config.Config { return cfg }
	root.AddCommand(newRunCmd(current), newRetryCmd(current), newLookupCmd(current), newSitesCmd())

	return root
}

// startMetrics serves /metrics and /health on addr until the returned
// function is called. An empty addr does nothing.
func startMetrics(addr string) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics listener failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}
