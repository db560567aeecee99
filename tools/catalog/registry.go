package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/orchestrator/pkg/schema"
	"github.com/effective-security/orchestrator/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/orchestrator/tools", "catalog")

// Field describes one input or output field of a tool.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Descriptor describes a tool of the catalog.
type Descriptor struct {
	Kind        Kind    `json:"-" yaml:"-"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Input       []Field `json:"input,omitempty" yaml:"input,omitempty"`
	Output      []Field `json:"output,omitempty" yaml:"output,omitempty"`
}

// Registry is the immutable set of tools.
type Registry struct {
	tools       []tools.ITool
	descriptors []Descriptor
	byName      map[string]int
}

// New returns the registry with all tools of the catalog.
func New() (*Registry, error) {
	r := &Registry{
		byName: make(map[string]int, kindCount),
	}

	binders := []func() (tools.ITool, Descriptor, error){
		func() (tools.ITool, Descriptor, error) {
			return bind[ListDocsInput, ListDocsOutput](ListDocs, "Lists the user's uploaded documents", HandleListDocs)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[DocAskInput, DocAskOutput](DocAsk, "Brings the document the user wants to query", HandleDocAsk)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[ListCompaniesInput, ListCompaniesOutput](ListCompanies, "Lists the companies which are stored in the database", HandleListCompanies)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[AskWebInput, AskWebOutput](AskWeb, "Does a web search on the user's query", HandleAskWeb)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[ReadWebpageInput, ReadWebpageOutput](ReadWebpage, "Reads a webpage the user specifies", HandleReadWebpage)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[OperateExcelInput, OperateExcelOutput](OperateExcel, "Operates an Excel agent (the agent is already defined), this just orchestrates it", HandleOperateExcel)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[ListTablesInput, ListTablesOutput](ListTables, "Lists all the Excel spreadsheets the user has uploaded", HandleListTables)
		},
		func() (tools.ITool, Descriptor, error) {
			return bind[AskCompanyInput, AskCompanyOutput](AskCompany, "The user queries company specific docs", HandleAskCompany)
		},
	}

	for _, b := range binders {
		tool, desc, err := b()
		if err != nil {
			return nil, err
		}
		r.byName[tool.Name()] = len(r.tools)
		r.tools = append(r.tools, tool)
		r.descriptors = append(r.descriptors, desc)
	}

	logger.KV(xlog.DEBUG, "status", "registered", "tools", len(r.tools))
	return r, nil
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []tools.ITool {
	return append([]tools.ITool(nil), r.tools...)
}

// Descriptors returns the tool descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Lookup returns the tool by name.
func (r *Registry) Lookup(name string) (tools.ITool, bool) {
	if i, ok := r.byName[name]; ok {
		return r.tools[i], true
	}
	return nil, false
}

// Get returns the tool of the kind.
func (r *Registry) Get(k Kind) tools.ITool {
	t, _ := r.Lookup(k.String())
	return t
}

func bind[I any, O any](k Kind, description string, handler func(I) string) (tools.ITool, Descriptor, error) {
	tool, err := tools.New[I, string](k.String(), description, func(_ context.Context, in *I) (*string, error) {
		res := handler(*in)
		return &res, nil
	})
	if err != nil {
		return nil, Descriptor{}, err
	}

	out, err := schema.For[O]()
	if err != nil {
		return nil, Descriptor{}, errors.WithMessagef(err, "tool %s output", k)
	}
	in, err := schema.For[I]()
	if err != nil {
		return nil, Descriptor{}, errors.WithMessagef(err, "tool %s input", k)
	}

	return tool, Descriptor{
		Kind:        k,
		Name:        k.String(),
		Description: description,
		Input:       fields(in),
		Output:      fields(out),
	}, nil
}

func fields(s *schema.Schema) []Field {
	var list []Field
	for _, p := range s.Properties() {
		list = append(list, Field{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
		})
	}
	return list
}
