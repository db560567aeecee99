package assistants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/chatmodel"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/pkg/llmutils"
	"github.com/effective-security/orchestrator/pkg/metricskey"
	"github.com/effective-security/orchestrator/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

// Assistant runs the decision loop for a model with a fixed system prompt
// and a fixed set of tools.
type Assistant struct {
	LLM llms.Model

	toolsByName map[string]tools.ITool
	toolsNames  []string
	tools       []tools.ITool
	llmToolDefs []llms.Tool

	cfg          *Config
	name         string
	description  string
	systemPrompt string
}

var (
	_ IAssistant  = (*Assistant)(nil)
	_ HasCallback = (*Assistant)(nil)
)

// NewAssistant returns an Assistant for the model.
func NewAssistant(llmModel llms.Model, systemPrompt string, options ...Option) *Assistant {
	return &Assistant{
		LLM:          llmModel,
		cfg:          NewConfig(options...),
		systemPrompt: systemPrompt,
		name:         "Generic Assistant",
		description:  "An AI assistant that can perform various tasks.",
	}
}

// GetCallConfig returns the config of a single run.
func (a *Assistant) GetCallConfig(opts ...Option) *Config {
	return a.cfg.Apply(opts...)
}

// GetCallback returns the callback handler, if configured.
func (a *Assistant) GetCallback() Callback {
	return a.cfg.CallbackHandler
}

// WithName sets the name of the Assistant.
func (a *Assistant) WithName(name string) *Assistant {
	a.name = name
	return a
}

// WithDescription sets the description of the Assistant.
func (a *Assistant) WithDescription(description string) *Assistant {
	a.description = description
	return a
}

// Name returns the name of the Assistant.
func (a *Assistant) Name() string {
	return a.name
}

// Description returns the description of the Assistant.
func (a *Assistant) Description() string {
	return a.description
}

// SystemPrompt returns the instruction text sent first in every run.
func (a *Assistant) SystemPrompt() string {
	return a.systemPrompt
}

func (a *Assistant) GetTools() []tools.ITool {
	return a.tools
}

// WithTools adds new tools to the Assistant,
// existing tools are not replaced.
func (a *Assistant) WithTools(list ...tools.ITool) *Assistant {
	if a.toolsByName == nil {
		a.toolsByName = make(map[string]tools.ITool)
	}
	for _, tool := range list {
		name := tool.Name()
		// use lowercase for the key
		nameLowerCase := strings.ToLower(name)
		if a.toolsByName[nameLowerCase] == nil {
			a.toolsByName[nameLowerCase] = tool
			a.toolsNames = append(a.toolsNames, name)
			a.tools = append(a.tools, tool)
			a.llmToolDefs = append(a.llmToolDefs, tools.Definitions(tool)...)
		}
	}
	return a
}

// Run executes the decision loop for the input.
func (a *Assistant) Run(ctx context.Context, input string, opts ...Option) (*RunResult, error) {
	// create a per call config
	cfg := a.GetCallConfig(opts...)

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAssistantStart(ctx, a, input)
	}

	res, messages, err := a.run(ctx, cfg, input)
	if err != nil {
		if callback != nil {
			callback.OnAssistantError(ctx, a, input, err, messages)
		}
		return nil, err
	}
	if callback != nil {
		callback.OnAssistantEnd(ctx, a, input, res.Response, messages)
	}
	return res, nil
}

func (a *Assistant) run(ctx context.Context, cfg *Config, input string) (*RunResult, []llms.Message, error) {
	assistantName := a.Name()
	if strings.TrimSpace(input) == "" {
		return nil, nil, errors.Newf("assistant %s: input is required", assistantName)
	}

	var messageHistory []llms.Message
	if a.systemPrompt != "" {
		messageHistory = append(messageHistory, llms.MessageFromTextParts(llms.RoleSystem, a.systemPrompt))
	}
	messageHistory = append(messageHistory, llms.MessageFromTextParts(llms.RoleHuman, input))

	var extraOptions []llms.CallOption
	if len(a.llmToolDefs) > 0 {
		prov := a.LLM.GetProviderType()
		if !prov.Supports(llms.CapabilityFunctionCalling) {
			return nil, messageHistory, errors.Newf("assistant %s: the LLM does not support function calling", assistantName)
		}
		extraOptions = append(extraOptions, llms.WithTools(a.llmToolDefs))
	}
	callOpts := cfg.GetCallOptions(extraOptions...)

	modelName := a.LLM.GetName()
	messagesLimit := values.NumbersCoalesce(cfg.MaxMessages, DefaultMaxMessages)
	bytesLimit := uint64(values.NumbersCoalesce(cfg.MaxContentSize, DefaultMaxContentSize))
	toolsLimit := values.NumbersCoalesce(cfg.MaxToolCalls, DefaultMaxToolCalls)

	totalToolCalls := 0
	notFoundCount := 0
	for {
		if len(messageHistory) >= messagesLimit {
			return nil, messageHistory, errors.Newf("assistant %s: the messages count exceeded limit", assistantName)
		}
		bytesSent := llmutils.CountMessagesContentSize(messageHistory)
		if bytesSent > bytesLimit {
			return nil, messageHistory, errors.Newf("assistant %s: the content size exceeded limit", assistantName)
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAssistantLLMCallStart(ctx, a, a.LLM, messageHistory)
		}

		metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messageHistory)), assistantName, modelName)
		metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), assistantName, modelName)

		started := time.Now()
		resp, err := a.LLM.GenerateContent(ctx, messageHistory, callOpts...)
		metricskey.PerfLLMCall.MeasureSince(started, assistantName, modelName)
		if err != nil {
			return nil, messageHistory, errors.Wrapf(err, "failed to generate content from LLM")
		}
		if resp == nil || len(resp.Choices) == 0 {
			logger.ContextKV(ctx, xlog.ERROR,
				"assistant", assistantName,
				"status", "empty_choices",
				"input", slices.StringUpto(input, 64),
			)
			return nil, messageHistory, errors.Newf("assistant %s: LLM returned empty response", assistantName)
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAssistantLLMCallEnd(ctx, a, a.LLM, resp)
		}

		metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), assistantName, modelName)
		tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
		metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), assistantName, modelName)
		metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), assistantName, modelName)
		metricskey.StatsLLMTotalTokens.IncrCounter(float64(tokensTotal), assistantName, modelName)

		text, toolCalls := collectChoices(resp)
		if len(toolCalls) == 0 {
			if strings.TrimSpace(text) == "" {
				logger.ContextKV(ctx, xlog.ERROR,
					"assistant", assistantName,
					"status", "empty_response",
					"input", slices.StringUpto(input, 64),
				)
				return nil, messageHistory, errors.Newf("assistant %s: LLM returned empty response", assistantName)
			}

			messageHistory = append(messageHistory, llms.MessageFromTextParts(llms.RoleAI, text))

			logger.ContextKV(ctx, xlog.DEBUG,
				"assistant", assistantName,
				"status", "completed",
				"tool_calls", totalToolCalls,
				"messages", len(messageHistory),
			)

			return &RunResult{
				Response:  resp,
				Text:      text,
				Messages:  messageHistory,
				ToolCalls: totalToolCalls,
			}, messageHistory, nil
		}

		totalToolCalls += len(toolCalls)
		if totalToolCalls > toolsLimit {
			return nil, messageHistory, errors.Newf("assistant %s: the tool calls limit is exceeded", assistantName)
		}

		var notFound int
		messageHistory, notFound, err = a.executeToolCalls(ctx, cfg, messageHistory, text, toolCalls)
		if err != nil {
			return nil, messageHistory, err
		}
		notFoundCount += notFound
		if notFoundCount > DefaultMaxToolsNotFound {
			return nil, messageHistory, errors.Newf("assistant %s: the number of not found tools is exceeded", assistantName)
		}
	}
}

// collectChoices returns the combined text and the tool calls of the response.
func collectChoices(resp *llms.ContentResponse) (string, []llms.ToolCall) {
	var texts []string
	var toolCalls []llms.ToolCall
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		if choice.Content != "" {
			texts = append(texts, choice.Content)
		}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			if tc.ID == "" {
				tc.ID = uuid.NewString()
			}
			tc.Type = values.StringsCoalesce(tc.Type, "function")
			toolCalls = append(toolCalls, tc)
		}
	}
	return strings.Join(texts, "\n\n"), toolCalls
}

// executeToolCalls executes the tool calls in the requested order and returns the
// updated message history and the number of tools not found.
func (a *Assistant) executeToolCalls(ctx context.Context, cfg *Config, messageHistory []llms.Message, text string, toolCalls []llms.ToolCall) ([]llms.Message, int, error) {
	assistantName := a.Name()

	var parts []llms.ContentPart
	if text != "" {
		parts = append(parts, llms.TextPart(text))
	}
	for _, tc := range toolCalls {
		parts = append(parts, tc)
	}
	messageHistory = append(messageHistory, llms.MessageFromParts(llms.RoleAI, parts...))

	notFoundCount := 0
	responses := make([]llms.ToolCallResponse, 0, len(toolCalls))
	for _, tc := range toolCalls {
		toolName := tc.FunctionCall.Name
		toolArgs := tc.FunctionCall.Arguments

		logger.ContextKV(ctx, xlog.DEBUG,
			"assistant", assistantName,
			"status", "tool_call",
			"tool_call_id", tc.ID,
			"tool_name", toolName,
		)

		var content string

		// use lowercase for the key
		tool := a.toolsByName[strings.ToLower(toolName)]
		if tool == nil {
			notFoundCount++
			metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)
			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolNotFound(ctx, a, toolName)
			}

			availableTools := strings.Join(a.toolsNames, ", ")
			logger.ContextKV(ctx, xlog.WARNING,
				"assistant", assistantName,
				"status", "tool_not_found",
				"tool_name", toolName,
				"available_tools", availableTools,
			)
			content = fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, availableTools)
		} else {
			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolStart(ctx, tool, assistantName, toolArgs)
			}

			started := time.Now()
			res, err := tool.Call(ctx, toolArgs)
			metricskey.PerfToolCall.MeasureSince(started, toolName)

			if err != nil {
				if cfg.CallbackHandler != nil {
					cfg.CallbackHandler.OnToolError(ctx, tool, assistantName, toolArgs, err)
				}
				if !errors.Is(err, chatmodel.ErrFailedUnmarshalInput) {
					metricskey.StatsToolCallsFailed.IncrCounter(1, toolName)
					return messageHistory, notFoundCount, errors.WithMessagef(err, "failed to call tool %s", toolName)
				}

				metricskey.StatsToolCallsBadInput.IncrCounter(1, toolName)
				logger.ContextKV(ctx, xlog.WARNING,
					"assistant", assistantName,
					"status", "tool_bad_input",
					"tool_name", toolName,
					"input", slices.StringUpto(toolArgs, 64),
					"err", err.Error(),
				)
				res = llmutils.AddComment("assistant", assistantName, "error", "Failed to unmarshal input, check the JSON schema and try again.")
			} else {
				metricskey.StatsToolCallsSucceeded.IncrCounter(1, toolName)
				if cfg.CallbackHandler != nil {
					cfg.CallbackHandler.OnToolEnd(ctx, tool, assistantName, toolArgs, res)
				}
			}
			content = res
		}

		responses = append(responses, llms.ToolCallResponse{
			ToolCallID: tc.ID,
			Name:       toolName,
			Content:    content,
		})
	}

	messageHistory = append(messageHistory, llms.MessageFromToolResponses(llms.RoleTool, responses...))
	return messageHistory, notFoundCount, nil
}
