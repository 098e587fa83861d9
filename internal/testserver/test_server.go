package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/assetguard/internal/app"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/mcp"
	"github.com/rpggio/assetguard/internal/sqlite"
	"github.com/rpggio/assetguard/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Stack  *app.Stack
}

// New starts the full stack on an in-memory database. /rpc and /mcp both
// require API keys issued with Token.
func New(t *testing.T, opts app.Options) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	stack := app.New(db, opts)
	handler := mcp.NewHandler(stack.Services())

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      stack.Services(),
		Resolver:      stack.Keys,
		AuthEnabled:   true,
		TransportMode: "http",
		Logger:        opts.Logger,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(handler,
		transport.AuthMiddleware(stack.Keys),
		transport.WithMount("/mcp", mcpHandler),
	))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, DB: db, Stack: stack}
}

// Token issues an API key for userID and returns the bearer token.
func (ts *TestServer) Token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := ts.Stack.Keys.Issue(context.Background(), user.SystemActor, userID, "test")
	require.NoError(t, err)
	return token
}

// MakeAdmin grants userID the admin role.
func (ts *TestServer) MakeAdmin(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, ts.Stack.Accounts.SetAdmin(context.Background(), user.SystemActor, userID, true))
}

// Call posts a JSON-RPC request to /rpc. A non-200 status fails the test.
func (ts *TestServer) Call(t *testing.T, token, method string, params any) transport.Response {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Result calls method and decodes a successful result into out.
func (ts *TestServer) Result(t *testing.T, token, method string, params, out any) {
	t.Helper()
	resp := ts.Call(t, token, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out))
	}
}

// ErrorCode calls method, expects an error and returns its data code.
func (ts *TestServer) ErrorCode(t *testing.T, token, method string, params any) string {
	t.Helper()
	resp := ts.Call(t, token, method, params)
	require.NotNil(t, resp.Error, "%s unexpectedly succeeded", method)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok, "error without data: %+v", resp.Error)
	code, _ := data["code"].(string)
	return code
}

// MCPSession connects an MCP client to /mcp with token.
func (ts *TestServer) MCPSession(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{
			token: token,
			base:  http.DefaultTransport,
		}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}
