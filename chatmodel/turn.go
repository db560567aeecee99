package chatmodel

import (
	"github.com/effective-security/orchestrator/pkg/llms"
)

// TurnRole is the author of a conversation turn.
type TurnRole string

const (
	TurnRoleUser  TurnRole = "user"
	TurnRoleAgent TurnRole = "agent"
	TurnRoleTool  TurnRole = "tool"
)

// Turn is one step of a query run, as seen by the user.
type Turn struct {
	Role    TurnRole `json:"role" yaml:"role"`
	Content string   `json:"content,omitempty" yaml:"content,omitempty"`
	// ToolName is set for tool requests and tool results.
	ToolName string `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	// ToolArgs is the JSON arguments of a tool request.
	ToolArgs string `json:"tool_args,omitempty" yaml:"tool_args,omitempty"`
}

// ToolInvocation is a tool call performed during a query.
type ToolInvocation struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
	Content   string `json:"content" yaml:"content"`
}

// TurnsFromMessages converts the run messages to conversation turns.
// System messages are not part of the conversation and are skipped.
func TurnsFromMessages(messages []llms.Message) []Turn {
	var turns []Turn
	for _, m := range messages {
		switch m.Role {
		case llms.RoleHuman:
			turns = append(turns, Turn{Role: TurnRoleUser, Content: m.GetText()})
		case llms.RoleAI:
			if text := m.GetText(); text != "" {
				turns = append(turns, Turn{Role: TurnRoleAgent, Content: text})
			}
			for _, p := range m.Parts {
				if tc, ok := p.(llms.ToolCall); ok && tc.FunctionCall != nil {
					turns = append(turns, Turn{
						Role:     TurnRoleAgent,
						ToolName: tc.FunctionCall.Name,
						ToolArgs: tc.FunctionCall.Arguments,
					})
				}
			}
		case llms.RoleTool:
			for _, p := range m.Parts {
				if tr, ok := p.(llms.ToolCallResponse); ok {
					turns = append(turns, Turn{
						Role:     TurnRoleTool,
						ToolName: tr.Name,
						Content:  tr.Content,
					})
				}
			}
		}
	}
	return turns
}

// InvocationsFromMessages returns the tool calls found in the messages,
// matched with their responses, in the order the model requested them.
func InvocationsFromMessages(messages []llms.Message) []ToolInvocation {
	var list []ToolInvocation
	index := map[string]int{}
	for _, m := range messages {
		for _, p := range m.Parts {
			switch v := p.(type) {
			case llms.ToolCall:
				if v.FunctionCall == nil {
					continue
				}
				index[v.ID] = len(list)
				list = append(list, ToolInvocation{
					ID:        v.ID,
					Name:      v.FunctionCall.Name,
					Arguments: v.FunctionCall.Arguments,
				})
			case llms.ToolCallResponse:
				if i, ok := index[v.ToolCallID]; ok {
					list[i].Content = v.Content
				}
			}
		}
	}
	return list
}
