// Package tools defines the Tool interface for the agent and a typed tool
// built from a Go input struct, whose JSON schema is reflected once and
// advertised to the model as the function parameters.
package tools
