// Package driving declares what the CLI, HTTP API, MCP server and chat UI
// may ask of askdocs: ask, retrieve, ingest, rebuild, describe the index
// and edit settings.
//
// internal/core/services implements every interface here.
package driving
