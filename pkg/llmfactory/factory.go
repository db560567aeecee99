package llmfactory

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/pkg/llms"
	"github.com/effective-security/orchestrator/pkg/llms/anthropic"
	"github.com/effective-security/orchestrator/pkg/llms/bedrock"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator/pkg", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// CreateLLM returns the model for the provider.
func CreateLLM(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	provType := strings.ToUpper(cfg.Type)
	logger.KV(xlog.DEBUG,
		"provider", cfg.Name,
		"type", provType,
		"model", cfg.FindModel(preferredModels...),
	)

	switch provType {
	case ProviderTypeAnthropic:
		return newAnthropic(cfg, preferredModels...)
	case ProviderTypeBedrock, "":
		return newBedrock(cfg, preferredModels...)
	}
	return nil, errors.Errorf("unsupported provider type: %s", provType)
}

func newAnthropic(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	var opts []anthropic.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, anthropic.WithModel(model))
	if cfg.Token != "" {
		opts = append(opts, anthropic.WithToken(cfg.Token))
	}
	if cfg.Anthropic.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	return anthropic.New(opts...)
}

func newBedrock(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	var opts []bedrock.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, bedrock.WithModel(model))
	if cfg.Bedrock.Region != "" {
		opts = append(opts, bedrock.WithRegion(cfg.Bedrock.Region))
	}
	if cfg.Bedrock.Profile != "" {
		opts = append(opts, bedrock.WithSharedConfigProfile(cfg.Bedrock.Profile))
	}
	if cfg.Bedrock.BaseEndpoint != "" {
		opts = append(opts, bedrock.WithBaseEndpoint(cfg.Bedrock.BaseEndpoint))
	}
	return bedrock.New(opts...)
}
