package assistants

import (
	"github.com/effective-security/orchestrator/pkg/llms"
)

const (
	// DefaultMaxMessages is the limit of messages sent to the model in a run.
	DefaultMaxMessages = 50
	// DefaultMaxToolCalls is the limit of tool calls in a run.
	DefaultMaxToolCalls = 20
	// DefaultMaxContentSize is the limit of bytes sent to the model in a call.
	DefaultMaxContentSize = 1024 * 1024
	// DefaultMaxToolsNotFound is the number of unknown tool calls tolerated in a run.
	DefaultMaxToolsNotFound = 3
)

// Option is a function that can be used to modify the behavior of the Assistant Config.
type Option func(*Config)

type Config struct {
	// Model is the model to use in an LLM call.
	Model    string
	modelSet bool

	// MaxTokens is the maximum number of tokens to generate to use in an LLM call.
	MaxTokens    int
	maxTokensSet bool

	// Temperature is the temperature for sampling to use in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// StopWords is a list of words to stop on to use in an LLM call.
	StopWords    []string
	stopWordsSet bool

	// TopK is the number of tokens to consider for top-k sampling in an LLM call.
	TopK    int
	topkSet bool

	// TopP is the cumulative probability for top-p sampling in an LLM call.
	TopP    float64
	toppSet bool

	// ToolChoice is the choice of tool to use, it can either be "none", "auto" (the default behavior), or a specific tool.
	ToolChoice    any
	toolChoiceSet bool

	// CallbackHandler is the callback handler of the decision loop.
	CallbackHandler Callback

	//
	// Below are the options for the Assistant, not related to LLM call
	//

	// MaxMessages is the limit of messages sent to the model in a run.
	MaxMessages int
	// MaxToolCalls is the limit of tool calls in a run.
	MaxToolCalls int
	// MaxContentSize is the limit of bytes sent to the model in a call.
	MaxContentSize int
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		MaxMessages:    DefaultMaxMessages,
		MaxToolCalls:   DefaultMaxToolCalls,
		MaxContentSize: DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModel is an option for LLM.Call.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
		o.modelSet = true
	}
}

// WithMaxTokens is an option for LLM.Call.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
		o.maxTokensSet = true
	}
}

// WithTemperature is an option for LLM.Call.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
		o.temperatureSet = true
	}
}

// WithStopWords is an option for setting the stop words for LLM.Call.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
		o.stopWordsSet = true
	}
}

// WithTopK will add an option to use top-k sampling for LLM.Call.
func WithTopK(topK int) Option {
	return func(o *Config) {
		o.TopK = topK
		o.topkSet = true
	}
}

// WithTopP will add an option to use top-p sampling for LLM.Call.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
		o.toppSet = true
	}
}

// WithToolChoice is an option for LLM.Call.
func WithToolChoice(choice any) Option {
	return func(o *Config) {
		o.ToolChoice = choice
		o.toolChoiceSet = true
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithMaxMessages sets the limit of messages sent to the model in a run.
func WithMaxMessages(maxMessages int) Option {
	return func(o *Config) {
		o.MaxMessages = maxMessages
	}
}

// WithMaxToolCalls sets the limit of tool calls in a run.
func WithMaxToolCalls(maxToolCalls int) Option {
	return func(o *Config) {
		o.MaxToolCalls = maxToolCalls
	}
}

// WithMaxContentSize sets the limit of bytes sent to the model in a call.
func WithMaxContentSize(size int) Option {
	return func(o *Config) {
		o.MaxContentSize = size
	}
}

// GetCallOptions returns the model call options for the values set in the config,
// followed by the extra options.
func (c *Config) GetCallOptions(extra ...llms.CallOption) []llms.CallOption {
	var callOptions []llms.CallOption
	if c.modelSet {
		callOptions = append(callOptions, llms.WithModel(c.Model))
	}
	if c.maxTokensSet {
		callOptions = append(callOptions, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.temperatureSet {
		callOptions = append(callOptions, llms.WithTemperature(c.Temperature))
	}
	if c.stopWordsSet {
		callOptions = append(callOptions, llms.WithStopWords(c.StopWords))
	}
	if c.topkSet {
		callOptions = append(callOptions, llms.WithTopK(c.TopK))
	}
	if c.toppSet {
		callOptions = append(callOptions, llms.WithTopP(c.TopP))
	}
	if c.toolChoiceSet {
		callOptions = append(callOptions, llms.WithToolChoice(c.ToolChoice))
	}
	return append(callOptions, extra...)
}
