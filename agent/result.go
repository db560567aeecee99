package agent

import (
	"github.com/effective-security/orchestrator/callbacks"
	"github.com/effective-security/orchestrator/chatmodel"
)

// Result is the outcome of a query: either Text or Err is set.
type Result struct {
	// Text is the final answer of the model.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Err is the failure of the query.
	Err error `json:"-" yaml:"-"`
	// ToolCalls are the tools invoked during the query, in order.
	ToolCalls []chatmodel.ToolInvocation `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	// Turns is the conversation of the query.
	Turns []chatmodel.Turn `json:"turns,omitempty" yaml:"turns,omitempty"`
	// Stats are the counters of the run.
	Stats *callbacks.RunStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	// Transcript is the plain text log of the run.
	Transcript string `json:"-" yaml:"-"`
}

// Failed returns true if the query failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// OK returns true if the query succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// String returns the answer, or "Error: <message>" for a failure.
func (r Result) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	return r.Text
}
