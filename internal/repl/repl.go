// Package repl implements the line-oriented read loop of the orchestrator.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/agent"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator/internal", "repl")

const (
	// Prompt is printed before each line is read.
	Prompt = "You: "
	// AnswerPrefix is printed before each answer.
	AnswerPrefix = "Agent: "

	// maxReadErrors is the number of consecutive read failures
	// after which the input is considered exhausted.
	maxReadErrors = 3
)

// exitWords terminate the loop, compared in lower case.
var exitWords = map[string]bool{
	"quit": true,
	"exit": true,
	"q":    true,
}

// Processor answers a query.
type Processor interface {
	Process(ctx context.Context, query string) agent.Result
}

// REPL reads queries from the input and prints the answers.
type REPL struct {
	in  io.Reader
	out io.Writer
	p   Processor
}

type line struct {
	text string
	err  error
}

// New returns the read loop.
func New(in io.Reader, out io.Writer, p Processor) *REPL {
	return &REPL{
		in:  in,
		out: out,
		p:   p,
	}
}

// IsExitWord returns true if the input terminates the loop.
func IsExitWord(input string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(input))]
}

// Run reads lines until an exit word, the end of input,
// or the context is cancelled. The loop always ends with nil error,
// failures of a single query or read are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan line)
	go r.read(lines, done)

	for {
		r.print(Prompt)

		var ln line
		var ok bool
		select {
		case <-ctx.Done():
			r.print("\n")
			logger.KV(xlog.DEBUG, "status", "interrupted")
			return nil
		case ln, ok = <-lines:
		}
		if !ok {
			r.print("\n")
			logger.KV(xlog.DEBUG, "status", "end_of_input")
			return nil
		}
		if ln.err != nil {
			r.print(fmt.Sprintf("Error: %s\n", ln.err.Error()))
			continue
		}

		input := strings.TrimSpace(ln.text)
		if IsExitWord(input) {
			r.print("Goodbye!\n")
			return nil
		}
		if input == "" {
			continue
		}

		r.handle(ctx, input)

		if ctx.Err() != nil {
			logger.KV(xlog.DEBUG, "status", "interrupted")
			return nil
		}
	}
}

func (r *REPL) handle(ctx context.Context, input string) {
	res := r.p.Process(ctx, input)
	if len(res.ToolCalls) > 0 {
		var sb strings.Builder
		sb.WriteString("\nTools called:\n")
		for _, tc := range res.ToolCalls {
			fmt.Fprintf(&sb, "- %s: %s\n", tc.Name, tc.Content)
		}
		r.print(sb.String())
	}
	r.print(AnswerPrefix + res.String() + "\n")

	if res.Failed() {
		logger.KV(xlog.DEBUG,
			"status", "query_failed",
			"query", slices.StringUpto(input, 64),
			"err", res.Err.Error(),
		)
	}
}

// read sends the input lines to the channel, and closes it at the end of input.
func (r *REPL) read(lines chan<- line, done <-chan struct{}) {
	defer close(lines)

	send := func(ln line) bool {
		select {
		case lines <- ln:
			return true
		case <-done:
			return false
		}
	}

	br := bufio.NewReader(r.in)
	failures := 0
	for {
		text, err := br.ReadString('\n')
		if text != "" {
			failures = 0
			if !send(line{text: text}) {
				return
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}

		failures++
		logger.KV(xlog.ERROR, "status", "read_failed", "failures", failures, "err", err.Error())
		if !send(line{err: errors.WithMessage(err, "failed to read input")}) || failures >= maxReadErrors {
			return
		}
	}
}

func (r *REPL) print(s string) {
	_, _ = io.WriteString(r.out, s)
}
