package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/pkg/llms"
)

// Client is a Bedrock client.
type Client struct {
	client *bedrockruntime.Client
}

// Message is a chunk of text or a tool exchange
// that will be sent to the provider.
//
// The provider may then transform the message to its own
// format before sending it to the LLM model API.
type Message struct {
	Role    llms.Role
	Content string
	// Type may be "text", "tool_use", "tool_result"
	Type string
	// Tool-specific fields
	ToolCallID string // For tool use and tool results
	ToolName   string // For tool use
	ToolInput  string // For tool use (JSON)
}

// providers are the model families served by Bedrock.
var providers = map[string]bool{
	"ai21":      true,
	"amazon":    true,
	"anthropic": true,
	"cohere":    true,
	"deepseek":  true,
	"meta":      true,
	"mistral":   true,
	"openai":    true,
	"qwen":      true,
	"writer":    true,
}

// getProvider returns the model family of direct model IDs
// ("anthropic.claude-3-sonnet-20240229-v1:0") and of inference profiles
// with any geography prefix ("us.", "global.", "apac.", "us-gov.").
func getProvider(modelID string) string {
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 && !providers[parts[0]] {
		return parts[1]
	}
	return parts[0]
}

// CheckModel returns an error if the model cannot be routed to a supported provider.
func CheckModel(modelID string) error {
	if provider := getProvider(modelID); provider != "anthropic" {
		return errors.Newf("bedrock: unsupported provider %q", provider)
	}
	return nil
}

// NewClient creates a new Bedrock client.
func NewClient(client *bedrockruntime.Client) *Client {
	return &Client{
		client: client,
	}
}

// CreateCompletion creates a new completion response from the provider
// after sending the messages to the provider.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	if err := CheckModel(modelID); err != nil {
		return nil, err
	}
	return createAnthropicCompletion(ctx, c.client, modelID, messages, options)
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
