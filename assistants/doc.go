// Package assistants provides the decision loop of a tool-calling assistant:
// the model is asked for an answer, requested tools are executed in order
// and their results are sent back until the model answers without tool calls.
package assistants
