// Package catalog declares the fixed set of tools the orchestrator agent can
// call. Each tool is a variant of Kind with typed input and output shapes and
// a pure handler that echoes its arguments, standing in for the document,
// company, web and spreadsheet backends.
package catalog
