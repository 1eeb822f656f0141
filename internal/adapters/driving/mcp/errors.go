// Package mcp provides an MCP (Model Context Protocol) server adapter for quizhunter.
// It lets AI assistants search the exam corpus and read individual items.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
