package bedrockclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProvider(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		modelID  string
		expected string
	}{
		{"direct anthropic", "anthropic.claude-3-sonnet-20240229-v1:0", "anthropic"},
		{"us profile", "us.anthropic.claude-3-5-sonnet-20241022-v2:0", "anthropic"},
		{"eu profile", "eu.anthropic.claude-3-haiku-20240307-v1:0", "anthropic"},
		{"direct amazon", "amazon.titan-text-premier-v1:0", "amazon"},
		{"us amazon", "us.amazon.nova-micro-v1:0", "amazon"},
		{"direct meta", "meta.llama3-2-1b-instruct-v1:0", "meta"},
		{"global profile", "global.anthropic.claude-sonnet-4-5-20250929-v1:0", "anthropic"},
		{"apac profile", "apac.anthropic.claude-3-5-sonnet-20240620-v1:0", "anthropic"},
		{"us-gov profile", "us-gov.anthropic.claude-3-5-sonnet-20240620-v1:0", "anthropic"},
		{"us meta", "us.meta.llama3-2-11b-instruct-v1:0", "meta"},
		{"single part", "anthropic", "anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getProvider(tt.modelID))
		})
	}
}

func TestCreateCompletion_UnsupportedProvider(t *testing.T) {
	t.Parallel()
	c := NewClient(nil)
	_, err := c.CreateCompletion(context.Background(), "us.meta.llama3-2-11b-instruct-v1:0", nil, llms.CallOptions{})
	assert.EqualError(t, err, `bedrock: unsupported provider "meta"`)
}

func TestCheckModel(t *testing.T) {
	t.Parallel()
	for _, id := range []string{
		"anthropic.claude-3-haiku-20240307-v1:0",
		"us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		"global.anthropic.claude-sonnet-4-5-20250929-v1:0",
		"apac.anthropic.claude-3-5-sonnet-20240620-v1:0",
		"us-gov.anthropic.claude-3-5-sonnet-20240620-v1:0",
	} {
		assert.NoError(t, CheckModel(id), id)
	}
	assert.EqualError(t, CheckModel("amazon.titan-text-premier-v1:0"), `bedrock: unsupported provider "amazon"`)
	assert.EqualError(t, CheckModel("global.cohere.command-r-v1:0"), `bedrock: unsupported provider "cohere"`)
}

func TestGetMaxTokens(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 2048, getMaxTokens(0, 2048))
	assert.Equal(t, 2048, getMaxTokens(-1, 2048))
	assert.Equal(t, 100, getMaxTokens(100, 2048))
}

func TestProcessInputMessagesAnthropic(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		{Role: llms.RoleSystem, Type: "text", Content: "be brief. "},
		{Role: llms.RoleSystem, Type: "text", Content: "use tools."},
		{Role: llms.RoleHuman, Type: "text", Content: "list docs"},
		{Role: llms.RoleAI, Type: "text", Content: "checking"},
		{Role: llms.RoleAI, Type: "tool_use", ToolCallID: "t1", ToolName: "list_docs", ToolInput: `{}`},
		{Role: llms.RoleTool, Type: "tool_result", ToolCallID: "t1", Content: "list_docs tool called"},
		{Role: llms.RoleHuman, Type: "text", Content: "thanks"},
	}
	res, system, err := processInputMessagesAnthropic(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be brief. use tools.", system)
	require.Len(t, res, 3)

	assert.Equal(t, "user", res[0].Role)
	assert.Equal(t, []anthropicInputContent{{Type: "text", Text: "list docs"}}, res[0].Content)

	assert.Equal(t, "assistant", res[1].Role)
	require.Len(t, res[1].Content, 2)
	assert.Equal(t, "tool_use", res[1].Content[1].Type)
	assert.Equal(t, "t1", res[1].Content[1].ID)
	assert.Equal(t, json.RawMessage(`{}`), res[1].Content[1].Input)

	// tool result and human text share the user turn
	assert.Equal(t, "user", res[2].Role)
	assert.Equal(t, []anthropicInputContent{
		{Type: "tool_result", ToolUseID: "t1", Content: "list_docs tool called"},
		{Type: "text", Text: "thanks"},
	}, res[2].Content)

	_, _, err = processInputMessagesAnthropic([]Message{
		{Role: llms.RoleSystem, Type: "text", Content: "a"},
		{Role: llms.RoleHuman, Type: "text", Content: "b"},
		{Role: llms.RoleSystem, Type: "text", Content: "c"},
	})
	assert.EqualError(t, err, "multiple system prompts")

	_, _, err = processInputMessagesAnthropic([]Message{
		{Role: llms.RoleSystem, Type: "tool_result", Content: "a"},
	})
	assert.EqualError(t, err, "system prompt must be text")

	_, _, err = processInputMessagesAnthropic([]Message{
		{Role: llms.Role("generic"), Type: "text", Content: "a"},
	})
	assert.EqualError(t, err, `role not supported: "generic"`)

	_, _, err = processInputMessagesAnthropic([]Message{
		{Role: llms.RoleAI, Type: "tool_use", ToolCallID: "t2", ToolName: "doc_ask", ToolInput: `{bad`},
	})
	assert.EqualError(t, err, "bedrock: invalid tool call arguments: t2")

	res, _, err = processInputMessagesAnthropic([]Message{
		{Role: llms.RoleAI, Type: "tool_use", ToolCallID: "t3", ToolName: "list_docs"},
	})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{}`), res[0].Content[0].Input)
}

type weatherInput struct {
	City string `json:"city" jsonschema:"description=City name"`
	Unit string `json:"unit,omitempty"`
}

func TestBuildAnthropicInput(t *testing.T) {
	t.Parallel()

	sc, err := schema.For[weatherInput]()
	require.NoError(t, err)

	opts := llms.NewCallOptions("m",
		llms.WithMaxTokens(100),
		llms.WithTemperature(0.5),
		llms.WithTools([]llms.Tool{
			{Type: "function", Function: &llms.FunctionDefinition{Name: "weather", Description: "Gets weather", Parameters: sc.Parameters}},
			{Type: "function", Function: &llms.FunctionDefinition{Name: "noargs", Description: "No args"}},
		}),
	)
	body, err := buildAnthropicInput([]Message{
		{Role: llms.RoleSystem, Type: "text", Content: "sys"},
		{Role: llms.RoleHuman, Type: "text", Content: "hi"},
	}, opts)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "bedrock-2023-05-31", got["anthropic_version"])
	assert.Equal(t, float64(100), got["max_tokens"])
	assert.Equal(t, 0.5, got["temperature"])
	assert.Equal(t, "sys", got["system"])

	tools := got["tools"].([]any)
	require.Len(t, tools, 2)
	weather := tools[0].(map[string]any)
	assert.Equal(t, "weather", weather["name"])
	is := weather["input_schema"].(map[string]any)
	assert.Equal(t, "object", is["type"])
	assert.Equal(t, []any{"city"}, is["required"])
	assert.Contains(t, is["properties"], "city")
	assert.Contains(t, is["properties"], "unit")

	noargs := tools[1].(map[string]any)
	assert.Equal(t, map[string]any{"type": "object"}, noargs["input_schema"])

	got = nil
	body, err = buildAnthropicInput([]Message{{Role: llms.RoleHuman, Type: "text", Content: "hi"}}, llms.CallOptions{})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, float64(DefaultMaxTokens), got["max_tokens"])
	assert.NotContains(t, got, "temperature")

	// zero temperature is sent when set
	got = nil
	body, err = buildAnthropicInput([]Message{{Role: llms.RoleHuman, Type: "text", Content: "hi"}},
		llms.NewCallOptions("m", llms.WithTemperature(0)))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 0.0, got["temperature"])
}

func TestParseAnthropicOutput(t *testing.T) {
	t.Parallel()

	res, err := parseAnthropicOutput([]byte(`{
		"type":"message","role":"assistant",
		"content":[
			{"type":"text","text":"Let me look."},
			{"type":"tool_use","id":"toolu_1","name":"doc_ask","input":{"query":"revenue","document_name":"Q3"}},
			{"type":"tool_use","id":"toolu_2","name":"list_docs"}
		],
		"stop_reason":"tool_use",
		"usage":{"input_tokens":10,"output_tokens":5}
	}`))
	require.NoError(t, err)
	require.Len(t, res.Choices, 1)
	c := res.Choices[0]
	assert.Equal(t, "Let me look.", c.Content)
	assert.Equal(t, "tool_use", c.StopReason)
	assert.Equal(t, 15, c.GenerationInfo["TotalTokens"])
	require.Len(t, c.ToolCalls, 2)
	assert.Equal(t, "toolu_1", c.ToolCalls[0].ID)
	assert.Equal(t, "function", c.ToolCalls[0].Type)
	assert.Equal(t, "doc_ask", c.ToolCalls[0].FunctionCall.Name)
	assert.Equal(t, `{"document_name":"Q3","query":"revenue"}`, c.ToolCalls[0].FunctionCall.Arguments)
	assert.Equal(t, `{}`, c.ToolCalls[1].FunctionCall.Arguments)

	_, err = parseAnthropicOutput([]byte(`{"content":[],"stop_reason":"end_turn"}`))
	assert.EqualError(t, err, "no results")

	_, err = parseAnthropicOutput([]byte(`{"content":[{"type":"text","text":"cut"}],"stop_reason":"max_tokens"}`))
	assert.EqualError(t, err, "completed due to max_tokens. Maybe try increasing max tokens")

	_, err = parseAnthropicOutput([]byte(`not json`))
	assert.ErrorContains(t, err, "failed to unmarshal response")
}
