package tools

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/chatmodel"
	"github.com/effective-security/orchestrator/pkg/llmutils"
	"github.com/effective-security/orchestrator/pkg/schema"
	"github.com/invopop/jsonschema"
)

// RunFunc is the handler of a typed tool.
type RunFunc[I any, O any] func(context.Context, *I) (*O, error)

// Typed is a tool with a Go input and output type.
// The output is returned to the model via chatmodel.Stringify.
type Typed[I any, O any] struct {
	name        string
	description string
	params      *jsonschema.Schema
	run         RunFunc[I, O]
}

// ensure Typed implements the Tool interface
var _ Tool[struct{}, string] = (*Typed[struct{}, string])(nil)

// New returns a typed tool, the parameters are reflected from I.
func New[I any, O any](name, description string, run RunFunc[I, O]) (*Typed[I, O], error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if run == nil {
		return nil, errors.Newf("tool %s: handler is required", name)
	}
	sc, err := schema.For[I]()
	if err != nil {
		return nil, errors.WithMessagef(err, "tool %s", name)
	}
	return &Typed[I, O]{
		name:        name,
		description: description,
		params:      sc.Parameters,
		run:         run,
	}, nil
}

func (t *Typed[I, O]) Name() string {
	return t.name
}

func (t *Typed[I, O]) Description() string {
	return t.description
}

func (t *Typed[I, O]) Parameters() *jsonschema.Schema {
	return t.params
}

func (t *Typed[I, O]) Run(ctx context.Context, req *I) (*O, error) {
	return t.run(ctx, req)
}

// Call decodes the JSON input and runs the tool.
// Empty input is treated as an empty object.
func (t *Typed[I, O]) Call(ctx context.Context, input string) (string, error) {
	var req I
	bs := llmutils.CleanJSON([]byte(input))
	if len(bytes.TrimSpace(bs)) == 0 {
		bs = []byte("{}")
	}
	if err := json.Unmarshal(bs, &req); err != nil {
		return "", errors.WithMessagef(chatmodel.ErrFailedUnmarshalInput, "%s: %s", t.name, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return chatmodel.Stringify(*out), nil
}
