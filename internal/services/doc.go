// Package services wires devflow's collectors for one project directory.
//
// Build turns a loaded configuration into a Registry: a command runner, the
// git collector, linters, the pull request provider (gh CLI or REST API),
// the version reader, a shared TTL cache with its optional .git watcher, and
// the status.Service that answers every query. The CLI, MCP server and HTTP
// API all start from a Registry.
package services
