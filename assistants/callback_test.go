package assistants_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/effective-security/orchestrator/assistants"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/tools"
)

// eventsCallback records the decision loop events.
type eventsCallback struct {
	lock   sync.Mutex
	events []string
}

var _ assistants.Callback = (*eventsCallback)(nil)

func (c *eventsCallback) add(format string, args ...any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.events = append(c.events, fmt.Sprintf(format, args...))
}

func (c *eventsCallback) OnAssistantStart(_ context.Context, a assistants.IAssistant, input string) {
	c.add("assistant_start:%s:%s", a.Name(), input)
}

func (c *eventsCallback) OnAssistantEnd(_ context.Context, a assistants.IAssistant, _ string, _ *llms.ContentResponse, messages []llms.Message) {
	c.add("assistant_end:%s:%d", a.Name(), len(messages))
}

func (c *eventsCallback) OnAssistantError(_ context.Context, _ assistants.IAssistant, _ string, err error, messages []llms.Message) {
	c.add("assistant_error:%s:%d", err.Error(), len(messages))
}

func (c *eventsCallback) OnAssistantLLMCallStart(_ context.Context, _ assistants.IAssistant, llm llms.Model, payload []llms.Message) {
	c.add("llm_call_start:%s:%d", llm.GetName(), len(payload))
}

func (c *eventsCallback) OnAssistantLLMCallEnd(_ context.Context, _ assistants.IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	c.add("llm_call_end:%s:%d", llm.GetName(), len(resp.Choices))
}

func (c *eventsCallback) OnToolStart(_ context.Context, tool tools.ITool, assistantName, _ string) {
	c.add("tool_start:%s:%s", tool.Name(), assistantName)
}

func (c *eventsCallback) OnToolEnd(_ context.Context, tool tools.ITool, _ string, _ string, output string) {
	c.add("tool_end:%s:%s", tool.Name(), output)
}

func (c *eventsCallback) OnToolError(_ context.Context, tool tools.ITool, _ string, _ string, _ error) {
	c.add("tool_error:%s", tool.Name())
}

func (c *eventsCallback) OnToolNotFound(_ context.Context, _ assistants.IAssistant, tool string) {
	c.add("tool_not_found:%s", tool)
}
