// Package config provides the process configuration of the orchestrator.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/pkg/llmfactory"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator/internal", "config")

// Environment variables
const (
	EnvConfigFile   = "ORCHESTRATOR_CONFIG"
	EnvModelID      = "BEDROCK_CLAUDE_MODEL"
	EnvRegion       = "AWS_REGION"
	EnvProvider     = "ORCHESTRATOR_PROVIDER"
	EnvProfile      = "AWS_PROFILE"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvMaxTokens    = "ORCHESTRATOR_MAX_TOKENS"
	EnvAgentTimeout = "ORCHESTRATOR_AGENT_TIMEOUT"
	EnvLogLevel     = "ORCHESTRATOR_LOG_LEVEL"
	EnvVerbose      = "ORCHESTRATOR_VERBOSE"
)

// Defaults
const (
	DefaultRegion       = "us-east-1"
	DefaultProvider     = llmfactory.ProviderTypeBedrock
	DefaultMaxTokens    = 2048
	DefaultMaxToolCalls = 20
	DefaultMaxMessages  = 50
	DefaultLogLevel     = "error"
)

// ErrMissingModelID is returned when the model identifier is not configured.
var ErrMissingModelID = errors.New("model ID is required: set " + EnvModelID + " environment variable")

// Config of the orchestrator process
type Config struct {
	// ModelID is the model identifier, for Bedrock it may carry
	// an inference profile prefix, like us.anthropic.claude-...
	ModelID string `json:"model_id" yaml:"model_id"`
	// Region is the AWS region of Bedrock
	Region string `json:"region" yaml:"region" validate:"required"`
	// Provider is BEDROCK or ANTHROPIC
	Provider string `json:"provider" yaml:"provider" validate:"oneof=BEDROCK ANTHROPIC"`
	// AWSProfile is the shared config profile
	AWSProfile string `json:"aws_profile,omitempty" yaml:"aws_profile,omitempty"`
	// AnthropicAPIKey is the token of the ANTHROPIC provider
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty" yaml:"anthropic_api_key,omitempty"`
	// BaseURL overrides the endpoint of the provider
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`

	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens" validate:"gte=1"`
	Temperature  float64 `json:"temperature" yaml:"temperature" validate:"gte=0,lte=1"`
	MaxToolCalls int     `json:"max_tool_calls" yaml:"max_tool_calls" validate:"gte=1"`
	MaxMessages  int     `json:"max_messages" yaml:"max_messages" validate:"gte=3"`
	// AgentTimeout is the limit of a query in seconds, 0 means no limit
	AgentTimeout int `json:"agent_timeout" yaml:"agent_timeout" validate:"gte=0"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"oneof=critical error warning notice info debug trace"`
	// Verbose prints the decision loop events to stderr
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// Default returns the config with default values
func Default() *Config {
	return &Config{
		Region:       DefaultRegion,
		Provider:     DefaultProvider,
		MaxTokens:    DefaultMaxTokens,
		MaxToolCalls: DefaultMaxToolCalls,
		MaxMessages:  DefaultMaxMessages,
		LogLevel:     DefaultLogLevel,
	}
}

// LoadDotEnv loads the .env files into the environment,
// variables already set are not overridden, missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return errors.WithMessagef(err, "failed to load %s", file)
		}
		logger.KV(xlog.DEBUG, "status", "loaded_env", "file", file)
	}
	return nil
}

// Load returns the config with defaults, the optional file
// and the environment overrides applied.
func Load(file string) (*Config, error) {
	cfg := Default()
	if file != "" {
		err := configloader.UnmarshalAndExpand(file, cfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to load config %s", file)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return errors.Newf("invalid %s value: %q", key, v)
			}
			*dst = n
		}
		return nil
	}

	str(EnvModelID, &c.ModelID)
	str(EnvRegion, &c.Region)
	str(EnvProvider, &c.Provider)
	str(EnvProfile, &c.AWSProfile)
	str(EnvAnthropicKey, &c.AnthropicAPIKey)
	str(EnvLogLevel, &c.LogLevel)
	if err := num(EnvMaxTokens, &c.MaxTokens); err != nil {
		return err
	}
	if err := num(EnvAgentTimeout, &c.AgentTimeout); err != nil {
		return err
	}
	if v, ok := lookup(EnvVerbose); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Newf("invalid %s value: %q", EnvVerbose, v)
		}
		c.Verbose = b
	}
	return nil
}

// Validate returns an error if the config is not valid,
// the provider and log level are normalized.
func (c *Config) Validate() error {
	c.ModelID = strings.TrimSpace(c.ModelID)
	if c.ModelID == "" {
		return errors.WithStack(ErrMissingModelID)
	}
	c.Provider = strings.ToUpper(c.Provider)
	c.LogLevel = strings.ToLower(c.LogLevel)

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	return nil
}

// Timeout returns the query timeout, zero means no limit
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AgentTimeout) * time.Second
}

// ProviderConfig returns the model provider config
func (c *Config) ProviderConfig() *llmfactory.ProviderConfig {
	return &llmfactory.ProviderConfig{
		Name:         strings.ToLower(c.Provider),
		Type:         c.Provider,
		Token:        c.AnthropicAPIKey,
		DefaultModel: c.ModelID,
		Bedrock: llmfactory.BedrockConfig{
			Region:       c.Region,
			Profile:      c.AWSProfile,
			BaseEndpoint: c.BaseURL,
		},
		Anthropic: llmfactory.AnthropicConfig{
			BaseURL: c.BaseURL,
		},
	}
}
