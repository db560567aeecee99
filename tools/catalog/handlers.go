package catalog

import (
	"fmt"

	"github.com/effective-security/orchestrator/pkg/llmutils"
)

// Handlers are stubs: each returns "<name> tool called",
// followed by the arguments in declaration order.

func HandleListDocs(ListDocsInput) string {
	return called(ListDocs)
}

func HandleDocAsk(in DocAskInput) string {
	return fmt.Sprintf("%s with document: %s, query: %s", called(DocAsk), in.DocumentName, in.Query)
}

func HandleListCompanies(ListCompaniesInput) string {
	return called(ListCompanies)
}

func HandleAskWeb(in AskWebInput) string {
	return fmt.Sprintf("%s with query: %s", called(AskWeb), in.Query)
}

func HandleReadWebpage(in ReadWebpageInput) string {
	return fmt.Sprintf("%s with URL: %s", called(ReadWebpage), in.URL)
}

// HandleOperateExcel renders parameters as compact JSON with sorted keys.
func HandleOperateExcel(in OperateExcelInput) string {
	params := in.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return fmt.Sprintf("%s with operation: %s, file: %s, parameters: %s",
		called(OperateExcel), in.Operation, in.FileName, llmutils.ToJSON(params))
}

func HandleListTables(ListTablesInput) string {
	return called(ListTables)
}

func HandleAskCompany(in AskCompanyInput) string {
	return fmt.Sprintf("%s with company: %s, query: %s", called(AskCompany), in.CompanyName, in.Query)
}

func called(k Kind) string {
	return k.String() + " tool called"
}
