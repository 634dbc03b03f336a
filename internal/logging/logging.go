// Package logging configures zerolog and logs request lifecycle events.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/events"
	"github.com/hanpama/refgraph/internal/reqid"
)

// Setup configures the global logger to write to w at level. pretty selects
// the human readable console writer.
func Setup(w io.Writer, level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(lvl)

	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// Subscribe logs finished operations at info, failed resolvers at warn and
// every resolver call at debug. It returns a function removing the
// subscriptions.
func Subscribe(logger zerolog.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.RequestFinish) {
			ev := logger.Info()
			if e.Err != nil {
				ev = logger.Error().Err(e.Err)
			}
			withRequest(ctx, ev).
				Str("source", e.Source).
				Int("operations", e.Operations).
				Dur("duration", e.Duration).
				Msg("request finished")
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			withRequest(ctx, logger.Info()).
				Str("operation", e.OperationName).
				Str("type", e.OperationType).
				Int("errors", len(e.Errors)).
				Dur("duration", e.Duration).
				Msg("operation executed")
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.ResolverStart) {
			withRequest(ctx, logger.Debug()).
				Str("field", e.TypeName+"."+e.FieldName).
				Str("path", e.Path).
				Msg("resolving field")
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.ResolverFinish) {
			if e.Err == nil {
				return
			}
			withRequest(ctx, logger.Warn()).
				Err(e.Err).
				Str("field", e.TypeName+"."+e.FieldName).
				Str("path", e.Path).
				Dur("duration", e.Duration).
				Msg("resolver failed")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func withRequest(ctx context.Context, ev *zerolog.Event) *zerolog.Event {
	if rid, ok := reqid.FromContext(ctx); ok {
		return ev.Int64("request_id", rid)
	}
	return ev
}
