package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chxlky/trello-mcp/integrations"
	"github.com/chxlky/trello-mcp/internal/models"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "trello"
	ServerVersion = "0.4.0"

	boardFields        = "id,name,url,dateLastActivity,desc,closed"
	organizationFields = "id,name,displayName,url,idBoards,dateLastActivity"
	cardFields         = "id,name,url,dateLastActivity,desc,closed,due,idBoard,idList,labels"
)

const searchQueryDescription = `Search query with optional operators:
@name or member:name - Cards assigned to a member. @me for your cards.
#label or label:name - Cards with a specific label.
board:id or board:keyword - Cards from a specific board or boards matching keyword.
list:name - Cards within a specific list.
has:attachments - Cards with attachments. Also: has:description, has:cover, has:members, has:stickers.
due:day - Cards due in 24 hours. Also: due:week, due:month, due:overdue, or due:14 for next 14 days.
edited:day - Cards edited in last 24 hours. Also: edited:week, edited:month, or edited:21 for last 21 days.
description:text, checklist:text, comment:text, name:text - Match text in card fields.
is:open, is:complete, is:incomplete, is:starred - Filter by card status.
sort:created, sort:edited, sort:due - Sort results.`

// TrelloRequester issues a single Trello API call.
type TrelloRequester interface {
	Request(ctx context.Context, path string, opts integrations.RequestOptions, out any) error
}

// NewServer builds the MCP server with every Trello tool registered.
func NewServer(h *Handler) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	if err := h.RegisterTools(server); err != nil {
		return nil, err
	}
	return server, nil
}

func (h *Handler) RegisterTools(server *mcp.Server) error {
	boardCardsSchema, err := inputSchema[models.BoardIDInput](requireID)
	if err != nil {
		return err
	}
	searchSchema, err := inputSchema[models.SearchInput](func(s *jsonschema.Schema) {
		s.Properties["query"].Description = searchQueryDescription
	})
	if err != nil {
		return err
	}
	updateCardSchema, err := inputSchema[models.UpdateCardInput](requireID, func(s *jsonschema.Schema) {
		s.Properties["pos"] = &jsonschema.Schema{
			Description: "Position of the card",
			AnyOf: []*jsonschema.Schema{
				{Type: "number"},
				{Type: "string", Enum: []any{"top", "bottom"}},
			},
		}
	})
	if err != nil {
		return err
	}
	deleteCardSchema, err := inputSchema[models.DeleteCardInput](requireID)
	if err != nil {
		return err
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete-card",
		Title:       "Delete Card",
		Description: "Delete a card.",
		InputSchema: deleteCardSchema,
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(true), IdempotentHint: true},
	}, h.DeleteCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get-boards",
		Title:       "Get Boards",
		Description: "Retrieves all open Trello boards for the authenticated user.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.GetBoards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get-board-cards",
		Title:       "Get Board Cards",
		Description: "Get all of the open cards on a board.",
		InputSchema: boardCardsSchema,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.GetBoardCards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get-organizations",
		Title:       "Get Organizations",
		Description: "Retrieves all workspaces (organizations) for the authenticated user.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.GetOrganizations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Title:       "Search",
		Description: "Search for Trello cards using various search operators.",
		InputSchema: searchSchema,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.Search)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update-card",
		Title:       "Update Card",
		Description: "Updates a Trello card with new values.",
		InputSchema: updateCardSchema,
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true},
	}, h.UpdateCard)

	return nil
}

func (h *Handler) GetBoards(ctx context.Context, _ *mcp.CallToolRequest, _ models.EmptyInput) (*mcp.CallToolResult, any, error) {
	return h.call(ctx, "members/me/boards", integrations.RequestOptions{
		Query: map[string]any{
			"filter": "open",
			"fields": boardFields,
		},
	})
}

func (h *Handler) GetOrganizations(ctx context.Context, _ *mcp.CallToolRequest, _ models.EmptyInput) (*mcp.CallToolResult, any, error) {
	return h.call(ctx, "members/me/organizations", integrations.RequestOptions{
		Query: map[string]any{"fields": organizationFields},
	})
}

func (h *Handler) GetBoardCards(ctx context.Context, _ *mcp.CallToolRequest, in models.BoardIDInput) (*mcp.CallToolResult, any, error) {
	return h.call(ctx, fmt.Sprintf("boards/%s/cards", in.ID), integrations.RequestOptions{
		Query: map[string]any{"fields": cardFields},
	})
}

func (h *Handler) Search(ctx context.Context, _ *mcp.CallToolRequest, in models.SearchInput) (*mcp.CallToolResult, any, error) {
	return h.call(ctx, "search", integrations.RequestOptions{
		Query: map[string]any{
			"query":       in.Query,
			"modelTypes":  "cards",
			"card_fields": cardFields,
		},
	})
}

func (h *Handler) UpdateCard(ctx context.Context, _ *mcp.CallToolRequest, in models.UpdateCardInput) (*mcp.CallToolResult, any, error) {
	return h.call(ctx, fmt.Sprintf("cards/%s", in.ID), integrations.RequestOptions{
		Method: http.MethodPut,
		Query:  in.Query(),
	})
}

func (h *Handler) DeleteCard(ctx context.Context, _ *mcp.CallToolRequest, in models.DeleteCardInput) (*mcp.CallToolResult, any, error) {
	return h.call(ctx, fmt.Sprintf("cards/%s", in.ID), integrations.RequestOptions{
		Method: http.MethodDelete,
	})
}

// call performs the request and wraps the payload as a single text item.
// Errors are left to the SDK, which reports them as tool errors.
func (h *Handler) call(ctx context.Context, path string, opts integrations.RequestOptions) (*mcp.CallToolResult, any, error) {
	var payload json.RawMessage
	if err := h.Trello.Request(ctx, path, opts, &payload); err != nil {
		return nil, nil, err
	}

	var text bytes.Buffer
	if err := json.Compact(&text, payload); err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text.String()}},
	}, nil, nil
}

func inputSchema[T any](patches ...func(*jsonschema.Schema)) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to infer input schema: %w", err)
	}
	for _, patch := range patches {
		patch(schema)
	}
	return schema, nil
}

func requireID(s *jsonschema.Schema) {
	minLength := 1
	s.Properties["id"].MinLength = &minLength
}

func boolPtr(b bool) *bool {
	return &b
}
