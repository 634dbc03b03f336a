package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	level, logger := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
	})

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestExecFromStdin(t *testing.T) {
	t.Chdir(t.TempDir())

	res := execute(t, `{"query":"{ person(id: 2) { name friend { name } } }"}`, "exec")

	require.NoError(t, res.err)
	require.Equal(t, `{"data":{"person":{"friend":{"name":"Jen"},"name":"Chris"}}}`+"\n", res.stdout)
	require.Contains(t, res.stderr, "executing requests")
}

func TestExecFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := filepath.Join(dir, "requests.json")
	require.NoError(t, os.WriteFile(input, []byte(`
{"query":"mutation { createProduct(product: {name: \"Thor\"}) { id } }"}
{"query":"{ products { name } }"}
`), 0o644))
	metricsFile := filepath.Join(dir, "refgraph.prom")

	res := execute(t, "", "exec", input, "--parallelism", "4", "--metrics-file", metricsFile)

	require.NoError(t, res.err)
	require.Equal(t,
		`{"data":{"createProduct":{"id":2}}}`+"\n"+
			`{"data":{"products":[{"name":"Avengers - End game"},{"name":"Thor"}]}}`+"\n",
		res.stdout)

	b, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(b), `refgraph_operation_duration_seconds_count{type="mutation"} 1`)
	require.Contains(t, string(b), `refgraph_requests_total{source="`+input+`",status="ok"} 2`)
	require.Contains(t, string(b), "refgraph_documents_cached 2")
}

func TestExecPrettyFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refgraph.yaml"), []byte("exec:\n  pretty: true\nlog:\n  pretty: false\n"), 0o644))

	res := execute(t, `{"query":"{ product(id: 1) { name } }"}`, "exec", "-")

	require.NoError(t, res.err)
	require.True(t, strings.HasPrefix(res.stdout, "{\n  \"data\": {\n"), res.stdout)
	require.Contains(t, res.stdout, `"name": "Avengers - End game"`)
	require.True(t, strings.HasPrefix(res.stderr, "{"), res.stderr)
}

func TestExecVerboseLogsResolvers(t *testing.T) {
	t.Chdir(t.TempDir())

	res := execute(t, `{"query":"{ people { name } }"}`, "exec", "--verbose")

	require.NoError(t, res.err)
	require.Contains(t, res.stderr, "resolving field")
	require.Contains(t, res.stderr, "operation executed")
}

func TestExecMalformedInput(t *testing.T) {
	t.Chdir(t.TempDir())

	res := execute(t, `{"query" 1}`, "exec")

	require.ErrorContains(t, res.err, "executing stdin")
	require.Contains(t, res.stdout, `"code":"BAD_REQUEST"`)
}

func TestExecMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	res := execute(t, "", "exec", "nope.json")

	require.ErrorContains(t, res.err, "opening input")
}

func TestMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	res := execute(t, "", "--config", "absent.yaml", "schema")

	require.ErrorContains(t, res.err, "reading config")
}

func TestSchema(t *testing.T) {
	t.Chdir(t.TempDir())

	res := execute(t, "", "schema")

	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "type Query {")
	require.Contains(t, res.stdout, "input ReviewInput {")
	require.NotContains(t, res.stdout, "__schema")
}
