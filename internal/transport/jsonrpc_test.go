package transport

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"register_claim","params":{"asset_id":"a"},"id":1}`)
	req, err := ParseRequest(body)
	require.NoError(t, err)
	require.Equal(t, "2.0", req.JSONRPC)
	require.Equal(t, "register_claim", req.Method)
	require.Equal(t, json.RawMessage(`{"asset_id":"a"}`), req.Params)
	require.False(t, req.IsNotification())
}

func TestParseRequest_Errors(t *testing.T) {
	_, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","id":1}`))
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0",`))
	require.ErrorIs(t, err, ErrParse)
}

func TestParseRequest_Notification(t *testing.T) {
	req, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","method":"send_message"}`))
	require.NoError(t, err)
	require.True(t, req.IsNotification())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 1, ErrInvalidParams, "bad params", ErrorData{Code: "INVALID_INPUT"})

	require.Equal(t, 200, rec.Code)
	require.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32602,"message":"bad params","data":{"code":"INVALID_INPUT"}},"id":1}`, rec.Body.String())
}

func TestWriteResult(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteResult(rec, "abc", map[string]int{"max_messages": 10})

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"jsonrpc":"2.0","result":{"max_messages":10},"id":"abc"}`, rec.Body.String())
}
