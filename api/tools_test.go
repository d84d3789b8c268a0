package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/chxlky/trello-mcp/integrations"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trelloCall struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
}

// fakeTrello records every call and answers from a route table keyed by
// "METHOD /path".
type fakeTrello struct {
	mu     sync.Mutex
	calls  []trelloCall
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeTrello) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, trelloCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	})
	f.mu.Unlock()

	route, ok := f.routes[r.Method+" "+r.URL.Path]
	if !ok {
		http.Error(w, "The requested resource was not found.", http.StatusNotFound)
		return
	}
	route(w, r)
}

func (f *fakeTrello) lastCall(t *testing.T) trelloCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func jsonRoute(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func newSession(t *testing.T, fake *fakeTrello) *mcp.ClientSession {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	trello := integrations.NewTrelloClient("key", "token", srv.URL+"/1", 5*time.Second)
	server, err := NewServer(&Handler{Trello: trello})
	require.NoError(t, err)

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestListTools(t *testing.T) {
	session := newSession(t, &fakeTrello{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]string{}
	for _, tool := range res.Tools {
		names[tool.Name] = tool.Title
	}
	assert.Equal(t, map[string]string{
		"get-boards":        "Get Boards",
		"get-organizations": "Get Organizations",
		"get-board-cards":   "Get Board Cards",
		"search":            "Search",
		"update-card":       "Update Card",
		"delete-card":       "Delete Card",
	}, names)
}

func TestGetBoards(t *testing.T) {
	boards := `[
		{"id": "b1", "name": "Roadmap", "url": "https://trello.com/b/b1", "closed": false},
		{"id": "b2", "name": "Chores", "url": "https://trello.com/b/b2", "closed": false}
	]`
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"GET /1/members/me/boards": jsonRoute(boards),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "get-boards", map[string]any{})
	require.False(t, res.IsError)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 2)
	for _, board := range got {
		assert.Contains(t, board, "id")
		assert.Contains(t, board, "name")
		assert.Contains(t, board, "url")
	}

	call := fake.lastCall(t)
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "open", call.Query.Get("filter"))
	assert.Equal(t, boardFields, call.Query.Get("fields"))
	assert.Equal(t, `OAuth oauth_consumer_key="key", oauth_token="token"`, call.Auth)
}

func TestGetBoards_Idempotent(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"GET /1/members/me/boards": jsonRoute(`[{"id":"b1","name":"Roadmap","url":"u"}]`),
	}}
	session := newSession(t, fake)

	first := resultText(t, callTool(t, session, "get-boards", map[string]any{}))
	second := resultText(t, callTool(t, session, "get-boards", map[string]any{}))
	assert.Equal(t, first, second)
}

func TestGetOrganizations(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"GET /1/members/me/organizations": jsonRoute(`[{"id":"o1","displayName":"Team"}]`),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "get-organizations", map[string]any{})
	require.False(t, res.IsError)
	assert.JSONEq(t, `[{"id":"o1","displayName":"Team"}]`, resultText(t, res))
	assert.Equal(t, organizationFields, fake.lastCall(t).Query.Get("fields"))
}

func TestGetBoardCards(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"GET /1/boards/b1/cards": jsonRoute(`[{"id":"c1","name":"Card"}]`),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "get-board-cards", map[string]any{"id": "b1"})
	require.False(t, res.IsError)
	assert.Equal(t, `[{"id":"c1","name":"Card"}]`, resultText(t, res))
	assert.Equal(t, cardFields, fake.lastCall(t).Query.Get("fields"))
}

func TestSearch(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"GET /1/search": jsonRoute(`{"cards":[{"id":"c1"}]}`),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "search", map[string]any{"query": "@me due:week"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"cards":[{"id":"c1"}]}`, resultText(t, res))

	call := fake.lastCall(t)
	assert.Equal(t, "@me due:week", call.Query.Get("query"))
	assert.Equal(t, "cards", call.Query.Get("modelTypes"))
	assert.Equal(t, cardFields, call.Query.Get("card_fields"))
}

func TestUpdateCard(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"PUT /1/cards/abc": jsonRoute(`{"id":"abc","name":"New"}`),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "update-card", map[string]any{"id": "abc", "name": "New"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"id":"abc","name":"New"}`, resultText(t, res))

	call := fake.lastCall(t)
	assert.Equal(t, http.MethodPut, call.Method)
	assert.Equal(t, "/1/cards/abc", call.Path)
	assert.Equal(t, url.Values{"name": {"New"}}, call.Query)
}

func TestUpdateCard_MixedFields(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"PUT /1/cards/abc": jsonRoute(`{"id":"abc"}`),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "update-card", map[string]any{
		"id":       "abc",
		"closed":   true,
		"idLabels": []string{"l1", "l2"},
		"pos":      "bottom",
	})
	require.False(t, res.IsError)

	call := fake.lastCall(t)
	assert.Equal(t, "true", call.Query.Get("closed"))
	assert.Equal(t, "l1,l2", call.Query.Get("idLabels"))
	assert.Equal(t, "bottom", call.Query.Get("pos"))
}

func TestUpdateCard_RejectsInvalidPosition(t *testing.T) {
	fake := &fakeTrello{}
	session := newSession(t, fake)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "update-card",
		Arguments: map[string]any{"id": "abc", "pos": "middle"},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
	assert.Empty(t, fake.calls)
}

func TestGetBoardCards_RejectsEmptyID(t *testing.T) {
	fake := &fakeTrello{}
	session := newSession(t, fake)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get-board-cards",
		Arguments: map[string]any{"id": ""},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
	assert.Empty(t, fake.calls)
}

func TestDeleteCard_NotFound(t *testing.T) {
	session := newSession(t, &fakeTrello{})

	res := callTool(t, session, "delete-card", map[string]any{"id": "abc"})
	require.True(t, res.IsError)
	assert.Equal(t, "The requested resource was not found.\n", resultText(t, res))
}

func TestDeleteCard(t *testing.T) {
	fake := &fakeTrello{routes: map[string]func(http.ResponseWriter, *http.Request){
		"DELETE /1/cards/abc": jsonRoute(`{"limits":{}}`),
	}}
	session := newSession(t, fake)

	res := callTool(t, session, "delete-card", map[string]any{"id": "abc"})
	require.False(t, res.IsError)
	assert.Equal(t, `{"limits":{}}`, resultText(t, res))
	assert.Equal(t, http.MethodDelete, fake.lastCall(t).Method)
}
