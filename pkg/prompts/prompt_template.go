// Package prompts renders prompt templates with text/template and sprig functions.
package prompts

import (
	"maps"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
)

// PromptTemplate is a template with declared input variables.
type PromptTemplate struct {
	// InputVariables are required to be present when formatting.
	InputVariables []string
	// PartialVariables are merged with the values, the values take precedence.
	PartialVariables map[string]any

	tmpl *template.Template
}

// NewPromptTemplate parses the template text.
func NewPromptTemplate(name, text string, inputVariables []string) (*PromptTemplate, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template %s", name)
	}
	return &PromptTemplate{
		InputVariables: inputVariables,
		tmpl:           tmpl,
	}, nil
}

// Must panics if the template failed to parse.
func Must(t *PromptTemplate, err error) *PromptTemplate {
	if err != nil {
		panic(err)
	}
	return t
}

// WithPartialVariables sets the variables that are merged with the values of every Format call.
func (p *PromptTemplate) WithPartialVariables(partial map[string]any) *PromptTemplate {
	p.PartialVariables = partial
	return p
}

// GetInputVariables returns the input variables the template expects.
func (p *PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}

// Format renders the template with the values.
func (p *PromptTemplate) Format(values map[string]any) (string, error) {
	data := make(map[string]any, len(p.PartialVariables)+len(values))
	maps.Copy(data, p.PartialVariables)
	maps.Copy(data, values)

	for _, name := range p.InputVariables {
		if _, ok := data[name]; !ok {
			return "", errors.Newf("template %s: missing input variable %q", p.tmpl.Name(), name)
		}
	}

	var buf strings.Builder
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "failed to render template %s", p.tmpl.Name())
	}
	return buf.String(), nil
}
