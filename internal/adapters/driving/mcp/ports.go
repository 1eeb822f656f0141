package mcp

import (
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driving"
)

// Ports aggregates the driving ports and defaults required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers search, similar-item and item lookups.
	Retrieval driving.RetrievalService

	// Defaults fills TopK and Alpha when a tool call omits them.
	Defaults domain.SearchOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}

func (p *Ports) options(topK int, alpha *float64) domain.SearchOptions {
	opts := p.Defaults
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}
	if topK > 0 {
		opts.TopK = topK
	}
	if alpha != nil {
		opts.Alpha = *alpha
	}
	return opts
}
