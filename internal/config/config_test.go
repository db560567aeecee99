package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/internal/config"
	"github.com/effective-security/orchestrator/pkg/llmfactory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	config.EnvModelID,
	config.EnvRegion,
	config.EnvProvider,
	config.EnvProfile,
	config.EnvAnthropicKey,
	config.EnvMaxTokens,
	config.EnvAgentTimeout,
	config.EnvLogLevel,
	config.EnvVerbose,
}

func clearEnv(t *testing.T) {
	for _, key := range allEnv {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvModelID, "us.anthropic.claude-3-5-sonnet-20241022-v2:0")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "us.anthropic.claude-3-5-sonnet-20241022-v2:0", cfg.ModelID)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, llmfactory.ProviderTypeBedrock, cfg.Provider)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 20, cfg.MaxToolCalls)
	assert.Equal(t, 50, cfg.MaxMessages)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.Timeout())
	assert.False(t, cfg.Verbose)

	pc := cfg.ProviderConfig()
	assert.Equal(t, "BEDROCK", pc.Type)
	assert.Equal(t, "bedrock", pc.Name)
	assert.Equal(t, cfg.ModelID, pc.FindModel())
	assert.Equal(t, "us-east-1", pc.Bedrock.Region)
}

func TestLoad_MissingModel(t *testing.T) {
	clearEnv(t)

	_, err := config.Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingModelID))
	assert.Contains(t, err.Error(), "BEDROCK_CLAUDE_MODEL")

	t.Setenv(config.EnvModelID, "   ")
	_, err = config.Load("")
	assert.True(t, errors.Is(err, config.ErrMissingModelID))
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvModelID, "model")
	t.Setenv(config.EnvRegion, "us-west-2")
	t.Setenv(config.EnvProvider, "anthropic")
	t.Setenv(config.EnvProfile, "dev")
	t.Setenv(config.EnvAnthropicKey, "sk-test")
	t.Setenv(config.EnvMaxTokens, "512")
	t.Setenv(config.EnvAgentTimeout, "60")
	t.Setenv(config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvVerbose, "true")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, "ANTHROPIC", cfg.Provider)
	assert.Equal(t, "dev", cfg.AWSProfile)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, time.Minute, cfg.Timeout())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Verbose)

	pc := cfg.ProviderConfig()
	assert.Equal(t, "sk-test", pc.Token)
	assert.Equal(t, "dev", pc.Bedrock.Profile)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tcases := []struct {
		key    string
		value  string
		expErr string
	}{
		{config.EnvMaxTokens, "many", `invalid ORCHESTRATOR_MAX_TOKENS value: "many"`},
		{config.EnvAgentTimeout, "1m", `invalid ORCHESTRATOR_AGENT_TIMEOUT value: "1m"`},
		{config.EnvVerbose, "maybe", `invalid ORCHESTRATOR_VERBOSE value: "maybe"`},
	}
	for _, tc := range tcases {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(config.EnvModelID, "model")
			t.Setenv(tc.key, tc.value)

			_, err := config.Load("")
			require.Error(t, err)
			assert.Equal(t, tc.expErr, err.Error())
		})
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_ORCHESTRATOR_MODEL", "claude-from-file")

	cfg, err := config.Load("testdata/orchestrator.yaml")
	require.NoError(t, err)
	assert.Equal(t, "claude-from-file", cfg.ModelID)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "ANTHROPIC", cfg.Provider)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 5, cfg.MaxToolCalls)
	assert.Equal(t, 20, cfg.MaxMessages)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.LogLevel)

	// environment overrides the file
	t.Setenv(config.EnvModelID, "claude-from-env")
	cfg, err = config.Load("testdata/orchestrator.yaml")
	require.NoError(t, err)
	assert.Equal(t, "claude-from-env", cfg.ModelID)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)

	_, err := config.Load("testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config testdata/missing.yaml")

	_, err = config.Load("testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "Provider")
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("TEST_ORCHESTRATOR_DOTENV", "")
	require.NoError(t, os.Unsetenv("TEST_ORCHESTRATOR_DOTENV"))

	require.NoError(t, config.LoadDotEnv("testdata/missing.env"))
	_, ok := os.LookupEnv("TEST_ORCHESTRATOR_DOTENV")
	assert.False(t, ok)

	require.NoError(t, config.LoadDotEnv("testdata/test.env"))
	assert.Equal(t, "from-dotenv", os.Getenv("TEST_ORCHESTRATOR_DOTENV"))

	// existing values are not overridden
	t.Setenv("TEST_ORCHESTRATOR_DOTENV", "from-env")
	require.NoError(t, config.LoadDotEnv("testdata/test.env"))
	assert.Equal(t, "from-env", os.Getenv("TEST_ORCHESTRATOR_DOTENV"))
}
