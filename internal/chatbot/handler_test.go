package chatbot

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.HandlerFunc, body string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr.Code, out
}

func TestQueryHandler(t *testing.T) {
	h := NewHandler(newTestBridge(&fakeClient{result: Result{Reply: "Hello", Intent: "greeting"}}))

	code, out := post(t, h.Query, `{"message":"hi"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Hello", out["reply"])
	assert.Equal(t, "greeting", out["intent"])
	assert.Equal(t, "generated-session", out["sessionId"])
	assert.NotContains(t, out, "fallback")
}

func TestQueryHandlerValidation(t *testing.T) {
	h := NewHandler(newTestBridge(&fakeClient{}))

	code, out := post(t, h.Query, `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Message is required", out["message"])

	code, _ = post(t, h.Query, `nope`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEventHandler(t *testing.T) {
	h := NewHandler(newTestBridge(&fakeClient{result: Result{Reply: "Welcome"}}))

	code, out := post(t, h.Event, `{"eventName":"WELCOME","sessionId":"s9"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome", out["reply"])
	assert.Equal(t, "s9", out["sessionId"])

	code, out = post(t, h.Event, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Event name is required", out["message"])
}

func TestHandlerFallbackIsSuccess(t *testing.T) {
	h := NewHandler(newTestBridge(&fakeClient{err: errors.New("deadline exceeded")}))

	code, out := post(t, h.Query, `{"message":"hi"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, FallbackReply, out["reply"])
	assert.Equal(t, true, out["fallback"])
}

func TestHandlerUnconfigured(t *testing.T) {
	h := NewHandler(NewBridge(nil))

	code, out := post(t, h.Query, `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to process chatbot query", out["message"])
}
