// Package agent binds the model, the tool catalog and the instruction text,
// and turns every query into an explicit success or failure result.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/assistants"
	"github.com/effective-security/orchestrator/callbacks"
	"github.com/effective-security/orchestrator/chatmodel"
	"github.com/effective-security/orchestrator/internal/config"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/pkg/metricskey"
	"github.com/effective-security/orchestrator/tools"
	"github.com/effective-security/orchestrator/tools/catalog"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator", "agent")

// Name of the orchestrator assistant
const Name = "orchestrator"

var (
	// ErrEmptyQuery is returned for an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrMissingModel is returned when no model is provided.
	ErrMissingModel = errors.New("model is required")
)

// Option configures the Agent.
type Option func(*options)

type options struct {
	callback assistants.Callback
	registry *catalog.Registry
	chatID   string
}

// WithCallback adds a callback for the decision loop events.
func WithCallback(callback assistants.Callback) Option {
	return func(o *options) {
		o.callback = callback
	}
}

// WithRegistry sets the tool registry, by default catalog.New() is used.
func WithRegistry(registry *catalog.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithChatID sets the session ID, by default a new ID is generated.
func WithChatID(chatID string) Option {
	return func(o *options) {
		o.chatID = chatID
	}
}

// Agent is the session of the orchestrator,
// one Agent serves the queries of the process sequentially.
type Agent struct {
	assistant  *assistants.Assistant
	registry   *catalog.Registry
	chatCtx    chatmodel.ChatContext
	scratchpad *callbacks.Scratchpad
	timeout    time.Duration
}

// New returns the Agent for the model.
func New(cfg *config.Config, model llms.Model, opts ...Option) (*Agent, error) {
	if cfg == nil || strings.TrimSpace(cfg.ModelID) == "" {
		return nil, errors.WithStack(config.ErrMissingModelID)
	}
	if model == nil {
		return nil, errors.WithStack(ErrMissingModel)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	registry := o.registry
	if registry == nil {
		var err error
		registry, err = catalog.New()
		if err != nil {
			return nil, err
		}
	}

	prompt, err := SystemPrompt(registry.Descriptors())
	if err != nil {
		return nil, err
	}

	mode := callbacks.ModeDefault
	if cfg.Verbose {
		mode = callbacks.ModeVerbose
	}
	scratchpad := callbacks.NewScratchpad(mode)
	fanout := callbacks.NewFanout(scratchpad, callbacks.NewPackageLogger(logger))
	if o.callback != nil {
		fanout.Add(o.callback)
	}

	assistant := assistants.NewAssistant(model, prompt,
		assistants.WithCallback(fanout),
		assistants.WithMaxTokens(cfg.MaxTokens),
		assistants.WithTemperature(cfg.Temperature),
		assistants.WithMaxToolCalls(cfg.MaxToolCalls),
		assistants.WithMaxMessages(cfg.MaxMessages),
	).
		WithName(Name).
		WithDescription("Orchestrates the document, company, web and spreadsheet tools to answer user queries.").
		WithTools(registry.Tools()...)

	a := &Agent{
		assistant:  assistant,
		registry:   registry,
		chatCtx:    chatmodel.NewChatContext(o.chatID, cfg),
		scratchpad: scratchpad,
		timeout:    cfg.Timeout(),
	}

	logger.KV(xlog.DEBUG,
		"status", "created",
		"chat_id", a.chatCtx.GetChatID(),
		"model", model.GetName(),
		"provider", model.GetProviderType(),
		"tools", len(a.Tools()),
		"timeout", a.timeout,
	)
	return a, nil
}

// ChatID returns the session ID.
func (a *Agent) ChatID() string {
	return a.chatCtx.GetChatID()
}

// Tools returns the tools available to the model.
func (a *Agent) Tools() []tools.ITool {
	return a.assistant.GetTools()
}

// SystemPrompt returns the instruction text.
func (a *Agent) SystemPrompt() string {
	return a.assistant.SystemPrompt()
}

// Process answers the query. Errors are never returned,
// any failure is reported in the Result.
func (a *Agent) Process(ctx context.Context, query string) (res Result) {
	started := time.Now()
	defer metricskey.PerfQuery.MeasureSince(started, Name)

	ctx = chatmodel.WithChatContext(ctx, a.chatCtx)
	ctx = chatmodel.WithRunID(ctx, "")

	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "panic",
				"reason", r,
			)
			res = Result{Err: errors.Newf("agent panic: %v", r)}
		}
		a.finish(ctx, query, &res)
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Err: errors.WithStack(ErrEmptyQuery)}
	}

	runCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	a.scratchpad.StartRun(runCtx)

	out, err := a.assistant.Run(runCtx, query)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = errors.WithMessagef(err, "query timed out after %s", a.timeout)
		}
		return Result{Err: err}
	}

	return Result{
		Text:      out.Text,
		ToolCalls: chatmodel.InvocationsFromMessages(out.Messages),
		Turns:     chatmodel.TurnsFromMessages(out.Messages),
	}
}

func (a *Agent) finish(ctx context.Context, query string, res *Result) {
	stats, transcript := a.scratchpad.EndRun(ctx)
	res.Stats = stats
	res.Transcript = string(transcript)
	if len(transcript) > 0 {
		logger.ContextKV(ctx, xlog.TRACE, "transcript", res.Transcript)
	}

	if res.Failed() {
		metricskey.StatsQueryFailed.IncrCounter(1, Name)
		logger.ContextKV(ctx, xlog.ERROR,
			"chat_id", chatmodel.GetChatID(ctx),
			"run_id", chatmodel.GetRunID(ctx),
			"query", slices.StringUpto(query, 64),
			"err", res.Err.Error(),
		)
		return
	}

	metricskey.StatsQuerySucceeded.IncrCounter(1, Name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"chat_id", chatmodel.GetChatID(ctx),
		"run_id", chatmodel.GetRunID(ctx),
		"query", slices.StringUpto(query, 64),
		"tool_calls", len(res.ToolCalls),
	)
}
