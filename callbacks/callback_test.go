package callbacks_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/assistants"
	"github.com/effective-security/orchestrator/callbacks"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
)

type fakeAssistant struct {
	name string
}

func (f *fakeAssistant) Name() string            { return f.name }
func (f *fakeAssistant) Description() string     { return "useful assistant" }
func (f *fakeAssistant) GetTools() []tools.ITool { return nil }

type fakeTool struct {
	name        string
	description string
}

func (f *fakeTool) Name() string                                 { return f.name }
func (f *fakeTool) Description() string                          { return values.StringsCoalesce(f.description, "useful tool") }
func (f *fakeTool) Parameters() *jsonschema.Schema               { return nil }
func (f *fakeTool) Call(context.Context, string) (string, error) { return "", nil }

type fakeModel struct{}

func (fakeModel) GetName() string                    { return "test-model" }
func (fakeModel) GetProviderType() llms.ProviderType { return llms.ProviderBedrock }
func (fakeModel) GenerateContent(context.Context, []llms.Message, ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, nil
}

func fireAll(cb assistants.Callback) {
	ctx := context.Background()
	ast := &fakeAssistant{name: "test-assistant"}
	tool := &fakeTool{name: "test-tool"}
	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:   "test output",
				ToolCalls: []llms.ToolCall{{ID: "1", FunctionCall: &llms.FunctionCall{Name: "test-tool"}}},
			},
		},
	}
	messages := []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "test input")}

	cb.OnAssistantStart(ctx, ast, "test input")
	cb.OnAssistantLLMCallStart(ctx, ast, fakeModel{}, messages)
	cb.OnAssistantLLMCallEnd(ctx, ast, fakeModel{}, resp)
	cb.OnToolStart(ctx, tool, ast.Name(), "tool input")
	cb.OnToolEnd(ctx, tool, ast.Name(), "tool input", "tool output")
	cb.OnToolError(ctx, tool, ast.Name(), "tool input", errors.New("test error"))
	cb.OnToolNotFound(ctx, ast, "missing-tool")
	cb.OnAssistantEnd(ctx, ast, "test input", resp, messages)
	cb.OnAssistantError(ctx, ast, "test input", errors.New("test error"), messages)
}

func TestPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fireAll(callbacks.NewPrinter(&buf, callbacks.ModeVerbose))

	res := buf.String()
	assert.Contains(t, res, "Assistant Start: test-assistant\nInput: test input\n")
	assert.Contains(t, res, "Assistant LLM Call: test-assistant: test-model model, 1 messages\n")
	assert.Contains(t, res, "Assistant LLM Call End: test-assistant: test-model model, 1 tool calls\n")
	assert.Contains(t, res, "Tool Start: test-tool (test-assistant)\nInput: tool input\n")
	assert.Contains(t, res, "Tool End: test-tool (test-assistant)\nOutput: tool output\n")
	assert.Contains(t, res, "Tool Error: test-tool (test-assistant): test error\n")
	assert.Contains(t, res, "Tool Not Found: missing-tool\n")
	assert.Contains(t, res, "Assistant End: test-assistant\ntest output\n")
	assert.Contains(t, res, "Assistant Error: test-assistant: test error\n")

	buf.Reset()
	fireAll(callbacks.NewPrinter(&buf, callbacks.ModeDefault))
	res = buf.String()
	assert.Contains(t, res, "Tool End: test-tool (test-assistant)\n")
	assert.NotContains(t, res, "Output: tool output")
	assert.NotContains(t, res, "\ntest output\n")
}

func TestFanout(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	fan := callbacks.NewFanout(callbacks.NewPrinter(&buf1, callbacks.ModeDefault))
	fan.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))
	fan.Add(callbacks.NewPackageLogger(xlog.NewPackageLogger("github.com/effective-security/orchestrator", "callbacks_test")))
	fireAll(fan)

	assert.NotEmpty(t, buf1.String())
	assert.Equal(t, buf1.String(), buf2.String())
}
