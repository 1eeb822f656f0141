package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for quizhunter resources.
	uriScheme = "quiz://"

	jsonMIME = "application/json"
)

// itemSummary is one entry of the item listing.
type itemSummary struct {
	ID      string `json:"id"`
	Year    string `json:"year"`
	Subject string `json:"subject"`
	GroupID string `json:"group_id,omitempty"`
}

type optionDetail struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// itemDetail is the full view of one item.
type itemDetail struct {
	ID           string         `json:"id"`
	Year         string         `json:"year"`
	Subject      string         `json:"subject"`
	GroupID      string         `json:"group_id,omitempty"`
	GroupContext string         `json:"group_context,omitempty"`
	Stem         string         `json:"stem,omitempty"`
	Options      []optionDetail `json:"options,omitempty"`
	Content      string         `json:"content,omitempty"`
	Date         string         `json:"date,omitempty"`
	Text         string         `json:"text"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing items.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "items",
		Name:        "items",
		Description: "Every item in the corpus with its year and subject",
		MIMEType:    jsonMIME,
	}, s.handleItemsResource)

	// Template for a single item.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "items/{itemId}",
		Name:        "item",
		Description: "Full content of a single item",
		MIMEType:    jsonMIME,
	}, s.handleItemResource)
}

// handleItemsResource lists the corpus in item-index order.
func (s *Server) handleItemsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []itemSummary{}
	for _, item := range s.ports.Retrieval.Items() {
		infos = append(infos, itemSummary{
			ID:      item.ID,
			Year:    item.Year,
			Subject: item.Subject,
			GroupID: item.GroupID,
		})
	}

	return jsonResult(req.Params.URI, infos)
}

// handleItemResource returns one item.
func (s *Server) handleItemResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract itemId from URI: quiz://items/{itemId}
	itemID := extractItemID(req.Params.URI)
	if itemID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	item, err := s.ports.Retrieval.Item(itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	detail := itemDetail{
		ID:           item.ID,
		Year:         item.Year,
		Subject:      item.Subject,
		GroupID:      item.GroupID,
		GroupContext: item.GroupContext,
		Stem:         item.Stem,
		Content:      item.Content,
		Date:         item.Date,
		Text:         item.Text,
	}
	for _, opt := range item.Options {
		detail.Options = append(detail.Options, optionDetail{Label: opt.Label, Text: opt.Text})
	}

	return jsonResult(req.Params.URI, detail)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     string(data),
		}},
	}, nil
}

// extractItemID extracts the item ID from a URI like quiz://items/{itemId}.
// IDs are path-escaped in URIs.
func extractItemID(uri string) string {
	const prefix = uriScheme + "items/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return id
}
