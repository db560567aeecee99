package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/orchestrator/assistants"
	"github.com/effective-security/orchestrator/chatmodel"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/pkg/llmutils"
	"github.com/effective-security/orchestrator/tools"
)

var _ assistants.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

// RunStats are the counters of a single query run.
type RunStats struct {
	ChatID string `json:"chat_id" yaml:"chat_id"`
	RunID  string `json:"run_id" yaml:"run_id"`

	Duration             time.Duration `json:"duration" yaml:"duration"`
	TotalMessages        uint32        `json:"total_messages" yaml:"total_messages"`
	LLMBytesOut          uint64        `json:"llm_bytes_out" yaml:"llm_bytes_out"`
	LLMBytesIn           uint64        `json:"llm_bytes_in" yaml:"llm_bytes_in"`
	LLMInputTokens       uint64        `json:"llm_input_tokens" yaml:"llm_input_tokens"`
	LLMOutputTokens      uint64        `json:"llm_output_tokens" yaml:"llm_output_tokens"`
	LLMTotalTokens       uint64        `json:"llm_total_tokens" yaml:"llm_total_tokens"`
	AssistantLLMCalls    uint32        `json:"llm_calls" yaml:"llm_calls"`
	AssistantCallsFailed uint32        `json:"failed" yaml:"failed"`
	ToolsCalls           uint32        `json:"tool_calls" yaml:"tool_calls"`
	ToolsCallsSucceeded  uint32        `json:"tool_calls_succeeded" yaml:"tool_calls_succeeded"`
	ToolsCallsFailed     uint32        `json:"tool_calls_failed" yaml:"tool_calls_failed"`
	ToolNotFound         uint32        `json:"tool_not_found" yaml:"tool_not_found"`
}

// Scratchpad collects the stats and a plain text transcript of each run,
// runs are keyed by the run ID of the context.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

// StartRun begins collecting for the run ID of the context,
// nothing is collected when the context has no run ID.
func (l *Scratchpad) StartRun(ctx context.Context) {
	runID := chatmodel.GetRunID(ctx)
	if runID == "" {
		return
	}

	r := &run{
		stats: RunStats{
			ChatID: chatmodel.GetChatID(ctx),
			RunID:  runID,
		},
		started: TimeNowFn(),
	}

	l.lock.Lock()
	l.runs[runID] = r
	l.lock.Unlock()

	r.print("*** Run Started ***")
}

// EndRun returns the stats and the transcript of the run,
// or nil if the run was not started.
func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	r := l.getRun(ctx)
	if r == nil {
		return nil, nil
	}

	stats := r.stats
	stats.Duration = TimeNowFn().Sub(r.started)

	r.print(fmt.Sprintf("Tool calls: %d, Failed: %d, Not Found: %d",
		stats.ToolsCalls,
		stats.ToolsCallsFailed,
		stats.ToolNotFound,
	))
	r.print(fmt.Sprintf("LLM calls: %d, Messages: %d, Bytes Out: %d, Bytes In: %d, Input Tokens: %d, Output Tokens: %d, Total Tokens: %d",
		stats.AssistantLLMCalls,
		stats.TotalMessages,
		stats.LLMBytesOut,
		stats.LLMBytesIn,
		stats.LLMInputTokens,
		stats.LLMOutputTokens,
		stats.LLMTotalTokens,
	))
	r.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, stats.RunID)
	l.lock.Unlock()

	return &stats, r.w.Bytes()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	runID := chatmodel.GetRunID(ctx)
	if runID == "" {
		return nil
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[runID]
}

func (l *Scratchpad) OnAssistantStart(ctx context.Context, assistant assistants.IAssistant, input string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	r.print(assistant.Name(), "*** Assistant Start ***")
	r.print(assistant.Name(), "Input:", input)
}

func (l *Scratchpad) OnAssistantEnd(ctx context.Context, assistant assistants.IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	if l.mode == ModeVerbose {
		var buf strings.Builder
		llmutils.PrintMessageContents(&buf, messages)
		r.print(assistant.Name(), "Conversation:\n"+strings.TrimSuffix(buf.String(), "\n"))
	}
	r.print(assistant.Name(), "*** Assistant End ***")
}

func (l *Scratchpad) OnAssistantError(ctx context.Context, assistant assistants.IAssistant, input string, err error, messages []llms.Message) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.AssistantCallsFailed, 1)
	r.print(assistant.Name(), "*** Error ***", err.Error())
	r.print(assistant.Name(), printMessages(messages))
}

func (l *Scratchpad) OnAssistantLLMCallStart(ctx context.Context, assistant assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}

	atomic.AddUint64(&r.stats.LLMBytesOut, llmutils.CountMessagesContentSize(payload))
	atomic.AddUint32(&r.stats.AssistantLLMCalls, 1)
	count := uint32(len(payload))
	atomic.AddUint32(&r.stats.TotalMessages, count)

	r.print(assistant.Name(), "*** LLM Call ***", fmt.Sprintf("%s model, %d messages", llm.GetName(), count))
	if l.mode == ModeVerbose {
		r.print(assistant.Name(), printMessages(payload))
	}
}

func (l *Scratchpad) OnAssistantLLMCallEnd(ctx context.Context, assistant assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}

	atomic.AddUint64(&r.stats.LLMBytesIn, llmutils.CountResponseContentSize(resp))
	tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
	atomic.AddUint64(&r.stats.LLMInputTokens, uint64(tokensIn))
	atomic.AddUint64(&r.stats.LLMOutputTokens, uint64(tokensOut))
	atomic.AddUint64(&r.stats.LLMTotalTokens, uint64(tokensTotal))

	r.print(assistant.Name(), "*** LLM Call End ***", fmt.Sprintf("%s model, %d input tokens, %d output tokens, %d total tokens", llm.GetName(), tokensIn, tokensOut, tokensTotal))
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool tools.ITool, assistantName, input string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCalls, 1)
	r.print(assistantName, tool.Name(), "*** Tool Start ***")
	r.print(assistantName, tool.Name(), "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool tools.ITool, assistantName, input string, output string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		r.print(assistantName, tool.Name(), "Output:", output)
	}
	r.print(assistantName, tool.Name(), "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool tools.ITool, assistantName, input string, err error) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCallsFailed, 1)
	r.print(assistantName, tool.Name(), "*** Tool Error ***", err.Error())
}

func (l *Scratchpad) OnToolNotFound(ctx context.Context, assistant assistants.IAssistant, tool string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolNotFound, 1)
	r.print(assistant.Name(), "*** Tool Not Found ***", tool)
}

func printMessages(messages []llms.Message) string {
	var buf strings.Builder
	buf.WriteString("Messages:\n")
	for idx, msg := range messages {
		fmt.Fprintf(&buf, "[%d] %s:\n", idx, msg.Role)
		textParts := 0
		toolParts := 0
		toolResponseParts := 0
		for _, part := range msg.Parts {
			switch typ := part.(type) {
			case llms.TextContent:
				textParts++
			case llms.ToolCall:
				toolParts++
				buf.WriteString("  - ")
				buf.WriteString(typ.String())
				buf.WriteString("\n")
			case llms.ToolCallResponse:
				toolResponseParts++
				buf.WriteString("  - ")
				buf.WriteString(typ.String())
				buf.WriteString("\n")
			}
		}
		fmt.Fprintf(&buf, "  - %d texts, %d tool calls, %d tool responses\n", textParts, toolParts, toolResponseParts)
	}
	return buf.String()
}

type run struct {
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

// print writes the entries to the run's output in the format:
// timestamp chatID.runID entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ts := TimeNowFn().Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.stats.ChatID)
	_, _ = r.w.WriteString(".")
	_, _ = r.w.WriteString(r.stats.RunID)
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
