package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/chatmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text  string `json:"text" jsonschema:"description=Text to echo"`
	Times int    `json:"times,omitempty" jsonschema:"description=Number of repeats"`
}

type echoOutput struct {
	Result string `json:"result"`
}

func (o echoOutput) String() string {
	return o.Result
}

func newEcho(t *testing.T) *Typed[echoInput, echoOutput] {
	tool, err := New[echoInput, echoOutput]("echo", "Echoes the text",
		func(_ context.Context, in *echoInput) (*echoOutput, error) {
			if in.Text == "fail" {
				return nil, errors.New("echo failed")
			}
			return &echoOutput{Result: strings.Repeat(in.Text, max(in.Times, 1))}, nil
		})
	require.NoError(t, err)
	return tool
}

func TestTyped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tool := newEcho(t)

	assert.Equal(t, "echo", tool.Name())
	assert.Equal(t, "Echoes the text", tool.Description())
	require.NotNil(t, tool.Parameters())
	assert.Equal(t, "object", tool.Parameters().Type)
	assert.Equal(t, []string{"text"}, tool.Parameters().Required)

	tcases := []struct {
		name  string
		input string
		exp   string
		err   string
	}{
		{name: "plain", input: `{"text":"ab","times":2}`, exp: "abab"},
		{name: "wrapped", input: "Here you go: ```json\n{\"text\":\"x\"}\n```", exp: "x"},
		{name: "empty", input: "", exp: ""},
		{name: "handler error", input: `{"text":"fail"}`, err: "echo failed"},
		{name: "bad json", input: `{"text":1}`, err: "failed to unmarshal input"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tool.Call(ctx, tc.input)
			if tc.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.exp, res)
		})
	}

	_, err := tool.Call(ctx, `{"text":`)
	assert.True(t, errors.Is(err, chatmodel.ErrFailedUnmarshalInput))
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	_, err := New[echoInput, echoOutput]("", "d", func(context.Context, *echoInput) (*echoOutput, error) { return nil, nil })
	assert.EqualError(t, err, "tool name is required")
	_, err = New[echoInput, echoOutput]("echo", "d", nil)
	assert.EqualError(t, err, "tool echo: handler is required")
	_, err = New[string, echoOutput]("str", "d", func(context.Context, *string) (*echoOutput, error) { return nil, nil })
	assert.ErrorContains(t, err, "unsupported type")
}

func TestNilOutput(t *testing.T) {
	t.Parallel()
	tool, err := New[echoInput, echoOutput]("nil", "d", func(context.Context, *echoInput) (*echoOutput, error) { return nil, nil })
	require.NoError(t, err)
	res, err := tool.Call(context.Background(), "{}")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDescriptionsAndDefinitions(t *testing.T) {
	t.Parallel()
	tool := newEcho(t)

	desc := GetDescriptions(tool)
	assert.Equal(t, "\n```yaml\nTools:\n    - Name: echo\n      Description: Echoes the text\n```\n", desc)

	defs := Definitions(tool)
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)
	assert.Equal(t, "Echoes the text", defs[0].Function.Description)
	assert.Same(t, tool.Parameters(), defs[0].Function.Parameters)
}
