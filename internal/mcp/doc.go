// Package mcp exposes devflow over the Model Context Protocol.
//
// The server is built on github.com/modelcontextprotocol/go-sdk/mcp and
// answers every tool from a status.Service. Tools return compact text by
// default (a few dozen tokens) so an assistant can poll them cheaply; json
// and full formats are available where the tool documents them. Three
// prompts nudge the assistant towards the tools and two resources
// (dev://status, dev://config) mirror the status line and project config.
//
// tool_search and tool_list let clients discover tools from the registry
// instead of loading every definition up front.
package mcp
