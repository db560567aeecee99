// Package llmfactory creates the LLM model for a provider configuration,
// supporting AWS Bedrock and the Anthropic API.
package llmfactory
