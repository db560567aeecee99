package repl_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/agent"
	"github.com/effective-security/orchestrator/chatmodel"
	"github.com/effective-security/orchestrator/internal/repl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFunc func(ctx context.Context, query string) agent.Result

type recorder struct {
	lock    sync.Mutex
	queries []string
	fn      processorFunc
}

func (r *recorder) Process(ctx context.Context, query string) agent.Result {
	r.lock.Lock()
	r.queries = append(r.queries, query)
	r.lock.Unlock()
	if r.fn != nil {
		return r.fn(ctx, query)
	}
	return agent.Result{Text: "answer to " + query}
}

func (r *recorder) Queries() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.queries...)
}

func run(t *testing.T, input string, p repl.Processor) string {
	t.Helper()
	var out strings.Builder
	err := repl.New(strings.NewReader(input), &out, p).Run(context.Background())
	require.NoError(t, err)
	return out.String()
}

func TestIsExitWord(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		input string
		exp   bool
	}{
		{"quit", true},
		{"QUIT", true},
		{"Exit", true},
		{"q", true},
		{"  Q \t", true},
		{"", false},
		{"quit now", false},
		{"qq", false},
		{"exit()", false},
	}
	for _, tc := range tcases {
		assert.Equal(t, tc.exp, repl.IsExitWord(tc.input), "input: %q", tc.input)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	p := &recorder{}
	out := run(t, "hello\n\n   \n  list my docs  \nQUIT\nnever\n", p)

	assert.Equal(t, []string{"hello", "list my docs"}, p.Queries())
	assert.Equal(t,
		"You: Agent: answer to hello\n"+
			"You: You: You: Agent: answer to list my docs\n"+
			"You: Goodbye!\n",
		out)
}

func TestRun_ExitWords(t *testing.T) {
	t.Parallel()

	for _, word := range []string{"quit", "QUIT", "q", "Exit", " exit "} {
		p := &recorder{}
		out := run(t, word+"\nhello\n", p)
		assert.Empty(t, p.Queries(), "word: %q", word)
		assert.Equal(t, "You: Goodbye!\n", out)
	}
}

func TestRun_EndOfInput(t *testing.T) {
	t.Parallel()

	p := &recorder{}
	out := run(t, "", p)
	assert.Empty(t, p.Queries())
	assert.Equal(t, "You: \n", out)

	// the last line without new line is processed
	out = run(t, "hello", p)
	assert.Equal(t, []string{"hello"}, p.Queries())
	assert.Equal(t, "You: Agent: answer to hello\nYou: \n", out)
}

func TestRun_ToolsCalled(t *testing.T) {
	t.Parallel()

	p := &recorder{
		fn: func(_ context.Context, query string) agent.Result {
			return agent.Result{
				Text: "Done.",
				ToolCalls: []chatmodel.ToolInvocation{
					{ID: "1", Name: "list_docs", Arguments: "{}", Content: "list_docs tool called"},
					{ID: "2", Name: "ask_web", Arguments: `{"query":"go"}`, Content: "ask_web tool called with query: go"},
				},
			}
		},
	}
	out := run(t, "search\nq\n", p)
	assert.Equal(t,
		"You: \nTools called:\n"+
			"- list_docs: list_docs tool called\n"+
			"- ask_web: ask_web tool called with query: go\n"+
			"Agent: Done.\n"+
			"You: Goodbye!\n",
		out)
}

func TestRun_Failure(t *testing.T) {
	t.Parallel()

	p := &recorder{
		fn: func(_ context.Context, query string) agent.Result {
			if query == "bad" {
				return agent.Result{Err: errors.New("access denied")}
			}
			return agent.Result{Text: "ok"}
		},
	}
	out := run(t, "bad\ngood\n", p)
	assert.Equal(t, []string{"bad", "good"}, p.Queries())
	assert.Equal(t,
		"You: Agent: Error: access denied\n"+
			"You: Agent: ok\n"+
			"You: \n",
		out)
}

type flakyReader struct {
	errs int
	r    io.Reader
}

func (f *flakyReader) Read(p []byte) (int, error) {
	if f.errs > 0 {
		f.errs--
		return 0, errors.New("device not ready")
	}
	return f.r.Read(p)
}

func TestRun_ReadErrors(t *testing.T) {
	t.Parallel()

	t.Run("recovered", func(t *testing.T) {
		t.Parallel()
		p := &recorder{}
		var out strings.Builder
		in := &flakyReader{errs: 2, r: strings.NewReader("hello\n")}
		require.NoError(t, repl.New(in, &out, p).Run(context.Background()))

		assert.Equal(t, []string{"hello"}, p.Queries())
		assert.Equal(t,
			"You: Error: failed to read input: device not ready\n"+
				"You: Error: failed to read input: device not ready\n"+
				"You: Agent: answer to hello\n"+
				"You: \n",
			out.String())
	})

	t.Run("exhausted", func(t *testing.T) {
		t.Parallel()
		p := &recorder{}
		var out strings.Builder
		in := &flakyReader{errs: 100, r: strings.NewReader("hello\n")}
		require.NoError(t, repl.New(in, &out, p).Run(context.Background()))

		assert.Empty(t, p.Queries())
		assert.Equal(t, 3, strings.Count(out.String(), "Error: failed to read input: device not ready\n"))
	})
}

func TestRun_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("blocked read", func(t *testing.T) {
		t.Parallel()
		pr, pw := io.Pipe()
		t.Cleanup(func() { _ = pw.Close() })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := &recorder{}
		var out strings.Builder
		require.NoError(t, repl.New(pr, &out, p).Run(ctx))
		assert.Empty(t, p.Queries())
		assert.Equal(t, "You: \n", out.String())
	})

	t.Run("in flight query", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := &recorder{
			fn: func(ctx context.Context, _ string) agent.Result {
				cancel()
				return agent.Result{Err: errors.WithMessage(ctx.Err(), "failed to generate content from LLM")}
			},
		}
		var out strings.Builder
		require.NoError(t, repl.New(strings.NewReader("first\nsecond\n"), &out, p).Run(ctx))
		assert.Equal(t, []string{"first"}, p.Queries())
		assert.Equal(t, "You: Agent: Error: failed to generate content from LLM: context canceled\n", out.String())
	})
}
