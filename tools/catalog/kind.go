package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies a tool of the catalog.
type Kind int

const (
	ListDocs Kind = iota
	DocAsk
	ListCompanies
	AskWeb
	ReadWebpage
	OperateExcel
	ListTables
	AskCompany

	kindCount
)

var kindNames = [kindCount]string{
	ListDocs:      "list_docs",
	DocAsk:        "doc_ask",
	ListCompanies: "list_companies",
	AskWeb:        "ask_web",
	ReadWebpage:   "read_webpage",
	OperateExcel:  "operate_excel",
	ListTables:    "list_tables",
	AskCompany:    "ask_company",
}

// Kinds returns all tool kinds in registration order.
func Kinds() []Kind {
	list := make([]Kind, kindCount)
	for i := range list {
		list[i] = Kind(i)
	}
	return list
}

// String returns the tool name
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind returns the Kind for the tool name.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(name)
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return -1, errors.Newf("unknown tool: %q", name)
}
