// Package llms provides the provider-neutral types used to talk to a chat model:
// messages and their parts, tool definitions, tool calls and call options.
//
// Each subpackage implements Model for one backend. The internal directories
// within these subpackages contain the wire formats of the backend API.
package llms
