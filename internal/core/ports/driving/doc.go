// Package driving defines what the CLI, HTTP, MCP, TUI and watch adapters
// call into: ingesting a file, asking about it, listing and linking
// uploads, and managing settings.
//
// Implementations live in internal/core/services.
package driving
