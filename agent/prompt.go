package agent

import (
	"github.com/effective-security/orchestrator/pkg/prompts"
	"github.com/effective-security/orchestrator/tools/catalog"
)

const systemPromptText = `You are an intelligent AI agent that orchestrates various tools to help users with their queries.

Available tools:
{{- range .Tools }}
- {{ .Name }}: {{ .Description | trim | trimSuffix "." }}
{{- end }}

When a user asks a question, determine which tool(s) would be most appropriate and use them to provide a helpful response.
Always explain what you're doing and provide clear, actionable information.

IMPORTANT: Always use the appropriate tools when the user asks for specific information. Don't just describe what you would do - actually execute the tools and provide the results.`

var systemPrompt = prompts.Must(prompts.NewPromptTemplate("system", systemPromptText, []string{"Tools"}))

// SystemPrompt returns the instruction text for the tools.
func SystemPrompt(descriptors []catalog.Descriptor) (string, error) {
	return systemPrompt.Format(map[string]any{
		"Tools": descriptors,
	})
}
