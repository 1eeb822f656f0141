package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query   string   `json:"query" jsonschema:"free text or the question stem to search for"`
	Context string   `json:"context,omitempty" jsonschema:"shared passage of a question group, prepended to the query"`
	TopK    int      `json:"top_k,omitempty" jsonschema:"maximum number of results to return"`
	Alpha   *float64 `json:"alpha,omitempty" jsonschema:"vector weight in [0,1]; 0 is pure keyword ranking, 1 pure semantic"`
}

// SimilarInput is the input schema for the similar tool.
type SimilarInput struct {
	ID    string   `json:"id" jsonschema:"id of the item to find neighbours for"`
	TopK  int      `json:"top_k,omitempty" jsonschema:"maximum number of results to return"`
	Alpha *float64 `json:"alpha,omitempty" jsonschema:"vector weight in [0,1]"`
}

// SearchOutput is the output schema for the search and similar tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked item.
type SearchResultOutput struct {
	ID      string  `json:"id"`
	Year    string  `json:"year"`
	Subject string  `json:"subject"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Rank exam items against a query using hybrid keyword and semantic retrieval",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "similar",
		Description: "Find exam items similar to an existing item, excluding the item and its exact duplicates",
	}, s.handleSimilar)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" && input.Context == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}

	opts := s.ports.options(input.TopK, input.Alpha)

	var (
		results []domain.SearchResult
		err     error
	)
	if input.Context != "" {
		results, err = s.ports.Retrieval.SearchQuestion(ctx, input.Context, input.Query, opts)
	} else {
		results, err = s.ports.Retrieval.Search(ctx, input.Query, opts)
	}
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, toOutput(results), nil
}

// handleSimilar handles the similar tool invocation.
func (s *Server) handleSimilar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SimilarInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.ID == "" {
		return nil, SearchOutput{}, errors.New("id is required")
	}

	results, err := s.ports.Retrieval.SearchSimilar(ctx, input.ID, s.ports.options(input.TopK, input.Alpha))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, toOutput(results), nil
}

func toOutput(results []domain.SearchResult) SearchOutput {
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ID:      results[i].ID,
			Year:    results[i].Year,
			Subject: results[i].Subject,
			Content: results[i].Content,
			Score:   results[i].Score,
		}
	}
	return output
}
