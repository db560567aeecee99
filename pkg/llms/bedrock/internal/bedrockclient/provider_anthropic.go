package bedrockclient

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/x/values"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html

// anthropicInputContent is a single content block of a message.
type anthropicInputContent struct {
	// One of: "text", "tool_use", "tool_result"
	Type string `json:"type"`
	// Required if type is "text"
	Text string `json:"text,omitempty"`
	// Tool use fields
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
	// Tool result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicInputMessage struct {
	// One of: ["user", "assistant"]
	// For system prompt, use the system field in the input
	Role    string                  `json:"role"`
	Content []anthropicInputContent `json:"content"`
}

// anthropicTool represents a tool that can be used by the model
type anthropicTool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InputSchema anthropicInputSchema `json:"input_schema"`
}

// anthropicInputSchema represents the JSON schema for tool input
type anthropicInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// anthropicInput is the request body.
type anthropicInput struct {
	AnthropicVersion string                   `json:"anthropic_version"`
	MaxTokens        int                      `json:"max_tokens"`
	System           string                   `json:"system,omitempty"`
	Messages         []*anthropicInputMessage `json:"messages"`
	Temperature      *float64                 `json:"temperature,omitempty"`
	TopP             float64                  `json:"top_p,omitempty"`
	TopK             int                      `json:"top_k,omitempty"`
	StopSequences    []string                 `json:"stop_sequences,omitempty"`
	Tools            []anthropicTool          `json:"tools,omitempty"`
}

type anthropicOutputContent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

// anthropicOutput is the response body.
type anthropicOutput struct {
	Type         string                   `json:"type"`
	Role         string                   `json:"role"`
	Content      []anthropicOutputContent `json:"content"`
	StopReason   string                   `json:"stop_reason"`
	StopSequence string                   `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Finish reason for the completion of the generation.
const (
	AnthropicCompletionReasonEndTurn      = "end_turn"
	AnthropicCompletionReasonMaxTokens    = "max_tokens"
	AnthropicCompletionReasonStopSequence = "stop_sequence"
	AnthropicCompletionReasonToolUse      = "tool_use"
)

const (
	AnthropicLatestVersion = "bedrock-2023-05-31"
	// DefaultMaxTokens is used when the call options do not set max tokens.
	DefaultMaxTokens = 2048
)

// Role attribute for the anthropic message.
const (
	AnthropicSystem        = "system"
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

// Type attribute for the anthropic message.
const (
	AnthropicMessageTypeText       = "text"
	AnthropicMessageTypeToolUse    = "tool_use"
	AnthropicMessageTypeToolResult = "tool_result"
)

func createAnthropicCompletion(ctx context.Context,
	client *bedrockruntime.Client,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	body, err := buildAnthropicInput(messages, options)
	if err != nil {
		return nil, err
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "bedrock: invoke model")
	}

	return parseAnthropicOutput(resp.Body)
}

func buildAnthropicInput(messages []Message, options llms.CallOptions) ([]byte, error) {
	inputContents, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	var tools []anthropicTool
	for _, tool := range options.Tools {
		if tool.Function == nil {
			continue
		}
		schema := anthropicInputSchema{Type: "object"}
		if params := tool.Function.Parameters; params != nil {
			if params.Properties != nil && params.Properties.Len() > 0 {
				schema.Properties = make(map[string]any, params.Properties.Len())
				for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
					schema.Properties[pair.Key] = pair.Value
				}
			}
			schema.Required = params.Required
		}
		tools = append(tools, anthropicTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: schema,
		})
	}

	input := anthropicInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        getMaxTokens(options.MaxTokens, DefaultMaxTokens),
		System:           systemPrompt,
		Messages:         inputContents,
		TopP:             options.TopP,
		TopK:             options.TopK,
		StopSequences:    options.StopWords,
		Tools:            tools,
	}

	if options.HasTemperature() {
		temperature := options.Temperature
		input.Temperature = &temperature
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}
	return body, nil
}

func parseAnthropicOutput(body []byte) (*llms.ContentResponse, error) {
	var output anthropicOutput
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	if len(output.Content) == 0 {
		return nil, errors.New("no results")
	} else if stopReason := output.StopReason; stopReason != AnthropicCompletionReasonEndTurn &&
		stopReason != AnthropicCompletionReasonStopSequence &&
		stopReason != AnthropicCompletionReasonToolUse {
		return nil, errors.New("completed due to " + stopReason + ". Maybe try increasing max tokens")
	}

	choice := &llms.ContentChoice{
		StopReason: output.StopReason,
		GenerationInfo: map[string]any{
			"InputTokens":  output.Usage.InputTokens,
			"OutputTokens": output.Usage.OutputTokens,
			"TotalTokens":  output.Usage.InputTokens + output.Usage.OutputTokens,
		},
	}

	for _, c := range output.Content {
		switch c.Type {
		case AnthropicMessageTypeText:
			choice.Content += c.Text
		case AnthropicMessageTypeToolUse:
			input := c.Input
			if input == nil {
				input = map[string]any{}
			}
			argumentsJSON, err := json.Marshal(input)
			if err != nil {
				return nil, errors.Wrap(err, "failed to marshal tool arguments")
			}
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   c.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      c.Name,
					Arguments: string(argumentsJSON),
				},
			})
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{choice},
	}, nil
}

// process the input messages to anthropic supported input
// returns the input content and system prompt.
// Consecutive messages that map to the same role are merged.
func processInputMessagesAnthropic(messages []Message) ([]*anthropicInputMessage, string, error) {
	inputContents := make([]*anthropicInputMessage, 0, len(messages))
	var systemPrompt string
	var last *anthropicInputMessage
	var lastRole string

	for _, message := range messages {
		role, err := getAnthropicRole(message.Role)
		if err != nil {
			return nil, "", err
		}
		if role == AnthropicSystem {
			if systemPrompt != "" && lastRole != AnthropicSystem {
				return nil, "", errors.New("multiple system prompts")
			}
			if message.Type != AnthropicMessageTypeText {
				return nil, "", errors.New("system prompt must be text")
			}
			systemPrompt += message.Content
			lastRole = role
			continue
		}
		if role != lastRole || last == nil {
			last = &anthropicInputMessage{Role: role}
			inputContents = append(inputContents, last)
		}
		content, err := getAnthropicInputContent(message)
		if err != nil {
			return nil, "", err
		}
		last.Content = append(last.Content, content)
		lastRole = role
	}
	return inputContents, systemPrompt, nil
}

// process the role of the message to anthropic supported role.
func getAnthropicRole(role llms.Role) (string, error) {
	switch role {
	case llms.RoleSystem:
		return AnthropicSystem, nil
	case llms.RoleAI:
		return AnthropicRoleAssistant, nil
	case llms.RoleHuman, llms.RoleTool:
		return AnthropicRoleUser, nil
	default:
		return "", errors.Newf("role not supported: %q", role)
	}
}

func getAnthropicInputContent(message Message) (anthropicInputContent, error) {
	var c anthropicInputContent
	switch message.Type {
	case AnthropicMessageTypeText:
		c = anthropicInputContent{
			Type: message.Type,
			Text: message.Content,
		}
	case AnthropicMessageTypeToolUse:
		args := values.StringsCoalesce(message.ToolInput, "{}")
		if !json.Valid([]byte(args)) {
			return c, errors.Newf("bedrock: invalid tool call arguments: %s", message.ToolCallID)
		}
		c = anthropicInputContent{
			Type:  message.Type,
			ID:    message.ToolCallID,
			Name:  message.ToolName,
			Input: json.RawMessage(args),
		}
	case AnthropicMessageTypeToolResult:
		c = anthropicInputContent{
			Type:      message.Type,
			ToolUseID: message.ToolCallID,
			Content:   message.Content,
		}
	}
	return c, nil
}
