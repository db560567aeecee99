package catalog

// ListDocsInput has no arguments.
type ListDocsInput struct{}

type ListDocsOutput struct {
	Documents []string `json:"documents" jsonschema:"description=List of uploaded documents"`
}

type DocAskInput struct {
	DocumentName string `json:"document_name" jsonschema:"description=Name of the document to query"`
	Query        string `json:"query" jsonschema:"description=Query to ask about the document"`
}

type DocAskOutput struct {
	Answer string `json:"answer" jsonschema:"description=Answer from the document"`
}

// ListCompaniesInput has no arguments.
type ListCompaniesInput struct{}

type ListCompaniesOutput struct {
	Companies []string `json:"companies" jsonschema:"description=List of companies in the database"`
}

type AskWebInput struct {
	Query string `json:"query" jsonschema:"description=Query to search on the web"`
}

type AskWebOutput struct {
	Results []string `json:"results" jsonschema:"description=Web search results"`
}

type ReadWebpageInput struct {
	URL string `json:"url" jsonschema:"description=URL of the webpage to read"`
}

type ReadWebpageOutput struct {
	Content string `json:"content" jsonschema:"description=Content of the webpage"`
}

type OperateExcelInput struct {
	Operation  string         `json:"operation" jsonschema:"description=Excel operation to perform"`
	FileName   string         `json:"file_name" jsonschema:"description=Name of the Excel file"`
	Parameters map[string]any `json:"parameters" jsonschema:"description=Additional parameters for the operation"`
}

type OperateExcelOutput struct {
	Result string `json:"result" jsonschema:"description=Result of the Excel operation"`
}

// ListTablesInput has no arguments.
type ListTablesInput struct{}

type ListTablesOutput struct {
	Tables []string `json:"tables" jsonschema:"description=List of Excel spreadsheets"`
}

type AskCompanyInput struct {
	CompanyName string `json:"company_name" jsonschema:"description=Name of the company to query"`
	Query       string `json:"query" jsonschema:"description=Query about the company"`
}

type AskCompanyOutput struct {
	Answer string `json:"answer" jsonschema:"description=Answer about the company"`
}
