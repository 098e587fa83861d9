package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	userID string
	err    error
}

func (h *testHandler) Handle(_ context.Context, userID, method string, params json.RawMessage) (any, error) {
	h.method = method
	h.userID = userID
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"user": userID}, nil
}

type codedErr struct {
	code    string
	details any
}

func (e codedErr) Error() string             { return e.code }
func (e codedErr) CodeValue() string         { return e.code }
func (e codedErr) MessageValue() string      { return "message for " + e.code }
func (e codedErr) DetailsValue() any         { return e.details }
func (e codedErr) RecoveryHintValue() string { return "hint" }

func postRPC(t *testing.T, url, token, body string) *Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	resolver := &testResolver{tokenToUser: map[string]string{"token": "alice"}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"list_assets","id":1}`)
	require.Nil(t, resp.Error)
	require.Equal(t, "list_assets", handler.method)
	require.Equal(t, "alice", handler.userID)
	require.Equal(t, map[string]any{"user": "alice"}, resp.Result)
}

func TestHTTPServer_RPCRequiresToken(t *testing.T) {
	handler := &testHandler{}
	resolver := &testResolver{tokenToUser: map[string]string{"token": "alice"}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/rpc", "application/json",
		bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_assets","id":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, handler.method)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantData string
	}{
		{name: "invalid input", err: codedErr{code: "INVALID_INPUT"}, wantCode: ErrInvalidParams, wantData: "INVALID_INPUT"},
		{name: "unknown method", err: codedErr{code: "METHOD_NOT_FOUND"}, wantCode: ErrMethodNotFound, wantData: "METHOD_NOT_FOUND"},
		{name: "quota", err: codedErr{code: "QUOTA_EXCEEDED"}, wantCode: ErrApplication, wantData: "QUOTA_EXCEEDED"},
		{name: "internal", err: codedErr{code: "INTERNAL"}, wantCode: ErrInternal, wantData: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &testHandler{err: tt.err}
			server := httptest.NewServer(NewServer(handler, FixedUserMiddleware("local")))
			t.Cleanup(server.Close)

			resp := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"send_message","id":7}`)
			require.NotNil(t, resp.Error)
			require.Equal(t, tt.wantCode, resp.Error.Code)
			require.Equal(t, "message for "+tt.wantData, resp.Error.Message)

			data, ok := resp.Error.Data.(map[string]any)
			require.True(t, ok)
			require.Equal(t, tt.wantData, data["code"])
			require.Equal(t, "hint", data["recovery_hint"])
		})
	}
}

func TestHTTPServer_RPCHidesUncodedErrors(t *testing.T) {
	handler := &testHandler{err: io.ErrUnexpectedEOF}
	server := httptest.NewServer(NewServer(handler, FixedUserMiddleware("local")))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"get_quota","id":2}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrInternal, resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestHTTPServer_RPCInvalidEnvelope(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, FixedUserMiddleware("local")))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "", `{"jsonrpc":"1.0","method":"get_quota"}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrInvalidReq, resp.Error.Code)
	require.Empty(t, handler.method)
}

func TestHTTPServer_Health(t *testing.T) {
	handler := &testHandler{}
	resolver := &testResolver{tokenToUser: map[string]string{}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
}

func TestHTTPServer_WithMount(t *testing.T) {
	handler := &testHandler{}
	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	resolver := &testResolver{tokenToUser: map[string]string{}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver), WithMount("/mcp", mounted)))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHTTPServer_RPCNotificationAndParseError(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, FixedUserMiddleware("local")))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/rpc", "application/json",
		bytes.NewBufferString(`{"jsonrpc":"2.0","method":"register_claim","params":{"asset_id":"a"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "register_claim", handler.method)

	out := postRPC(t, server.URL, "", `{"jsonrpc":`)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrParseCode, out.Error.Code)
}
