// Package runner reads request documents from a stream, executes them and
// writes one response envelope per document.
//
// A document is a JSON object {"query", "operationName", "variables"} or a
// JSON array of such objects (a batch). Documents may be concatenated or
// newline delimited.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/events"
	"github.com/hanpama/refgraph/internal/executor"
	"github.com/hanpama/refgraph/internal/language"
	"github.com/hanpama/refgraph/internal/reqid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error codes for failures before execution starts.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeParseFailed = "GRAPHQL_PARSE_FAILED"
)

// Runner executes request documents against an executor.
type Runner struct {
	exec *executor.Executor
	opt  Options
}

type Options struct {
	// Timeout bounds each document when the context has no deadline.
	// 0 means no timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// Documents caches parsed query text. Nil parses every request.
	Documents *language.DocumentCache

	// ContextFunc derives the context an operation executes in.
	ContextFunc func(ctx context.Context, op executor.Operation) context.Context
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }

func WithDocumentCache(c *language.DocumentCache) Option {
	return func(o *Options) { o.Documents = c }
}

func WithContextFunc(fn func(ctx context.Context, op executor.Operation) context.Context) Option {
	return func(o *Options) { o.ContextFunc = fn }
}

func New(exec *executor.Executor, opts ...Option) *Runner {
	op := Options{}
	for _, f := range opts {
		f(&op)
	}
	return &Runner{exec: exec, opt: op}
}

// Request is one operation to run.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// Run executes every document read from in and writes the responses to out,
// in order. A batch document produces a JSON array of responses. Malformed
// JSON ends the stream: an error envelope is written and the decode error is
// returned.
func (r *Runner) Run(ctx context.Context, source string, in io.Reader, out io.Writer) error {
	dec := json.NewDecoder(in)
	enc := json.NewEncoder(out)
	if r.opt.Pretty {
		enc.SetIndent("", "  ")
	}

	for n := 0; dec.More(); n++ {
		var raw jsoniter.RawMessage
		if err := dec.Decode(&raw); err != nil {
			_ = enc.Encode(requestError(CodeBadRequest, "invalid JSON: "+err.Error()))
			return fmt.Errorf("decode document %d from %s: %w", n, source, err)
		}
		if err := enc.Encode(r.runDocument(ctx, source, raw)); err != nil {
			return fmt.Errorf("write response %d: %w", n, err)
		}
	}
	return nil
}

// runDocument executes one single or batch document.
func (r *Runner) runDocument(ctx context.Context, source string, raw []byte) any {
	if _, ok := ctx.Deadline(); !ok && r.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opt.Timeout)
		defer cancel()
	}
	ctx, _ = reqid.NewContext(ctx)

	start := time.Now()
	operations := 0
	var docErr error
	eventbus.Publish(ctx, events.RequestStart{Source: source})
	defer func() {
		eventbus.Publish(ctx, events.RequestFinish{
			Source:     source,
			Operations: operations,
			Err:        docErr,
			Duration:   time.Since(start),
		})
	}()

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var batch []Request
		if err := json.Unmarshal(raw, &batch); err != nil {
			docErr = err
			return requestError(CodeBadRequest, "invalid batch: "+err.Error())
		}
		if len(batch) == 0 {
			docErr = errors.New("empty batch")
			return requestError(CodeBadRequest, "empty batch")
		}
		out := make([]*executor.Response, len(batch))
		for i := range batch {
			out[i] = r.Execute(ctx, batch[i])
		}
		operations = len(batch)
		return out
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		docErr = err
		return requestError(CodeBadRequest, "invalid request: "+err.Error())
	}
	operations = 1
	return r.Execute(ctx, req)
}

// Execute parses, builds and executes a single request.
func (r *Runner) Execute(ctx context.Context, req Request) *executor.Response {
	if req.Query == "" {
		return requestError(CodeBadRequest, "missing 'query'")
	}
	doc, err := r.opt.Documents.Parse(req.Query)
	if err != nil {
		return requestError(CodeParseFailed, err.Error())
	}
	built, err := language.BuildRequest(doc, req.OperationName, req.Variables)
	if err != nil {
		return requestError(CodeBadRequest, err.Error())
	}

	opType := string(built.Operation)
	if r.opt.ContextFunc != nil {
		ctx = r.opt.ContextFunc(ctx, built.Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	res := r.exec.Execute(ctx, built)
	errs := make([]error, len(res.Errors))
	for i := range res.Errors {
		errs[i] = res.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return res
}

func requestError(code, message string) *executor.Response {
	return &executor.Response{Errors: []executor.GraphQLError{{
		Message:    message,
		Extensions: map[string]any{"code": code},
	}}}
}
