package assistants

import (
	"context"

	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator", "assistants")

//go:generate mockgen -destination=../mocks/mockllms/llm_mock.gen.go -package mockllms github.com/effective-security/orchestrator/pkg/llms Model

type IAssistant interface {
	// Name returns the name of the Assistant.
	Name() string
	// Description returns the description of the Assistant.
	Description() string
	// GetTools returns the tools the Assistant may call.
	GetTools() []tools.ITool
}

type HasCallback interface {
	GetCallback() Callback
}

// Callback receives the events of the decision loop.
type Callback interface {
	tools.Callback
	OnAssistantStart(ctx context.Context, assistant IAssistant, input string)
	OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, resp *llms.ContentResponse, messages []llms.Message)
	OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error, messages []llms.Message)
	OnAssistantLLMCallStart(ctx context.Context, assistant IAssistant, llm llms.Model, payload []llms.Message)
	OnAssistantLLMCallEnd(ctx context.Context, assistant IAssistant, llm llms.Model, resp *llms.ContentResponse)
	OnToolNotFound(ctx context.Context, assistant IAssistant, tool string)
}

// RunResult is the outcome of a successful Run.
type RunResult struct {
	// Response is the last model response.
	Response *llms.ContentResponse
	// Text is the final answer of the model.
	Text string
	// Messages are all messages of the run, starting with the system prompt.
	Messages []llms.Message
	// ToolCalls is the number of tool calls requested by the model.
	ToolCalls int
}
