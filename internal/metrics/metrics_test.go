package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/events"
)

func textfile(t *testing.T, m *Metrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refgraph.prom")
	require.NoError(t, m.WriteToTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestSubscribeRecordsEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	m := New()
	unsubscribe := m.Subscribe()

	ctx := context.Background()
	eventbus.Publish(ctx, events.ResolverFinish{TypeName: "Query", FieldName: "people", Duration: time.Millisecond})
	eventbus.Publish(ctx, events.ResolverFinish{TypeName: "Person", FieldName: "friend", Err: errors.New("boom")})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{errors.New("a"), errors.New("b")}})
	eventbus.Publish(ctx, events.RequestFinish{Source: "stdin", Operations: 1})
	eventbus.Publish(ctx, events.RequestFinish{Source: "stdin", Err: errors.New("empty batch")})

	unsubscribe()
	eventbus.Publish(ctx, events.RequestFinish{Source: "stdin"})

	out := textfile(t, m)
	require.Contains(t, out, `refgraph_requests_total{source="stdin",status="ok"} 1`)
	require.Contains(t, out, `refgraph_requests_total{source="stdin",status="error"} 1`)
	require.Contains(t, out, `refgraph_operation_duration_seconds_count{type="query"} 1`)
	require.Contains(t, out, `refgraph_operation_errors_total{type="query"} 2`)
	require.Contains(t, out, `refgraph_resolver_duration_seconds_count{field="Query.people"} 1`)
	require.Contains(t, out, `refgraph_resolver_errors_total{field="Person.friend"} 1`)
	require.NotContains(t, out, `refgraph_resolver_errors_total{field="Query.people"}`)
}

func TestGaugeFunc(t *testing.T) {
	m := New()
	n := 3
	require.NoError(t, m.GaugeFunc("refgraph_documents_cached", "Parsed documents held in the cache", func() float64 { return float64(n) }))
	require.Error(t, m.GaugeFunc("refgraph_documents_cached", "again", func() float64 { return 0 }))

	n = 5
	require.Contains(t, textfile(t, m), "refgraph_documents_cached 5")
}

func TestWriteToTextfileFailure(t *testing.T) {
	m := New()
	err := m.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "refgraph.prom"))
	require.ErrorContains(t, err, "write metrics to")
}
