package server

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// pageEnvelope is the shape every paginated read resource returns.
type pageEnvelope struct {
	Items      any    `json:"items"`
	Count      int    `json:"count"`
	NextCursor string `json:"next_cursor"`
}

// parsePageParams reads limit/cursor off a resource URI's query string,
// e.g. resource://entries?limit=50&cursor=abc.
func parsePageParams(rawURI string) (limit int, cursor string) {
	limit = 50
	u, err := url.Parse(rawURI)
	if err != nil {
		return limit, ""
	}
	q := u.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return limit, q.Get("cursor")
}

func jsonContents(uri string, v pageEnvelope) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func registerResources(srv *mcp.Server, store *storage.Store) {
	srv.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "entries",
			URITemplate: "resource://entries{?limit,cursor}",
			Description: "Paginated, id-descending listing of stored entries",
			MIMEType:    "application/json",
		},
		func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			limit, cursor := parsePageParams(req.Params.URI)
			items, next, err := store.ListEntries(limit, cursor)
			if err != nil {
				return nil, err
			}
			return jsonContents(req.Params.URI, pageEnvelope{Items: items, Count: len(items), NextCursor: next})
		},
	)

	srv.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "triples",
			URITemplate: "resource://triples{?limit,cursor}",
			Description: "Paginated, id-descending listing of stored triples",
			MIMEType:    "application/json",
		},
		func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			limit, cursor := parsePageParams(req.Params.URI)
			items, next, err := store.ListTriples(limit, cursor)
			if err != nil {
				return nil, err
			}
			return jsonContents(req.Params.URI, pageEnvelope{Items: items, Count: len(items), NextCursor: next})
		},
	)

	srv.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "transactions",
			URITemplate: "resource://transactions{?limit,cursor}",
			Description: "Paginated, id-descending listing of the transaction log",
			MIMEType:    "application/json",
		},
		func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			limit, cursor := parsePageParams(req.Params.URI)
			items, next, err := store.ListTransactions(limit, cursor)
			if err != nil {
				return nil, err
			}
			return jsonContents(req.Params.URI, pageEnvelope{Items: items, Count: len(items), NextCursor: next})
		},
	)
}
