package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/refgraph/internal/catalog"
	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/executor"
	"github.com/hanpama/refgraph/internal/language"
	"github.com/hanpama/refgraph/internal/logging"
	"github.com/hanpama/refgraph/internal/metrics"
	"github.com/hanpama/refgraph/internal/otel"
	"github.com/hanpama/refgraph/internal/runner"
)

func (a *app) execCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [file]",
		Short: "Execute request documents from a file or stdin",
		Long: `Read GraphQL request documents from file, or stdin when no file or "-"
is given, and write one JSON response per document to stdout.

A document is {"query": ..., "operationName": ..., "variables": ...} or a
JSON array of such objects. Documents may be concatenated or separated by
newlines.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runExec,
	}

	flags := cmd.Flags()
	flags.Bool("pretty", false, "indent JSON responses")
	flags.Int("parallelism", 1, "sibling fields resolved concurrently")
	flags.Duration("timeout", 0, "per document timeout")
	flags.String("metrics-file", "", "write metrics in text format to this file on exit")

	_ = a.v.BindPFlag("exec.pretty", flags.Lookup("pretty"))
	_ = a.v.BindPFlag("exec.parallelism", flags.Lookup("parallelism"))
	_ = a.v.BindPFlag("exec.timeout", flags.Lookup("timeout"))
	_ = a.v.BindPFlag("metrics.file", flags.Lookup("metrics-file"))
	return cmd
}

// runExec executes the exec command.
//
// Parameters:
//   - cmd (*cobra.Command): the cobra command
//   - args ([]string): optional input file
//
// Returns:
//   - error: nil on success, the first read, setup or write error otherwise
func (a *app) runExec(cmd *cobra.Command, args []string) (err error) {
	cfg := a.cfg

	in, source := cmd.InOrStdin(), "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in, source = f, args[0]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	shutdown, err := otel.Setup(ctx, cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracing")
		}
	}()
	defer logging.Subscribe(log.Logger)()

	m := metrics.New()
	defer m.Subscribe()()
	if cfg.Metrics.File != "" {
		defer func() {
			if werr := m.WriteToTextfile(cfg.Metrics.File); werr != nil && err == nil {
				err = werr
			}
		}()
	}

	s, err := catalog.Seed()
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	c := catalog.New(s)
	exec, err := c.Executor(executor.WithParallelism(cfg.Exec.Parallelism))
	if err != nil {
		return fmt.Errorf("creating executor: %w", err)
	}

	docs := language.NewDocumentCache(cfg.Cache.TTL)
	if err := m.GaugeFunc("refgraph_documents_cached", "Parsed documents held in the cache",
		func() float64 { return float64(docs.Len()) }); err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithTimeout(cfg.Exec.Timeout),
		runner.WithDocumentCache(docs),
		runner.WithContextFunc(c.WithLoaders),
	}
	if cfg.Exec.Pretty {
		opts = append(opts, runner.WithPretty())
	}
	r := runner.New(exec, opts...)

	log.Info().
		Str("source", source).
		Int("parallelism", cfg.Exec.Parallelism).
		Dur("timeout", cfg.Exec.Timeout).
		Msg("executing requests")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return run(gctx, r, source, in, cmd.OutOrStdout())
	})
	return g.Wait()
}

func run(ctx context.Context, r *runner.Runner, source string, in io.Reader, out io.Writer) error {
	if err := r.Run(ctx, source, in, out); err != nil {
		return fmt.Errorf("executing %s: %w", source, err)
	}
	return nil
}
