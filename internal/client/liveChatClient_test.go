package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agency-hub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveChatServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/apps/app1/eligibility/u1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_user_eligible": true}`))
	})
	mux.HandleFunc("/v2/apps/app1/availability", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"available": false}`))
	})
	mux.HandleFunc("/v2/apps/app1/conversations", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var req CreateConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"conversation": {"id": "conv-9"}}`))
	})
	mux.HandleFunc("/v2/apps/app1/conversations/conv-9/messages", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content  map[string]string `json:"content"`
			Metadata map[string]string `json:"metadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello agent", body.Content["text"])
		assert.Equal(t, "tmp-1", body.Metadata["client_message_id"])
		w.Write([]byte(`{"messages": [{"id": "ext-1"}]}`))
	})
	return httptest.NewServer(mux)
}

func TestLiveChatClient(t *testing.T) {
	server := newLiveChatServer(t)
	defer server.Close()

	c := NewLiveChatClient(&config.LiveChat{BaseApiURL: server.URL, AppID: "app1", Key: "key", Secret: "secret"})
	ctx := context.Background()

	eligible, err := c.IsEligible(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, eligible)

	available, err := c.IsAvailable(ctx)
	require.NoError(t, err)
	assert.False(t, available)

	convID, err := c.CreateConversation(ctx, &CreateConversationRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "conv-9", convID)

	extID, err := c.SendMessage(ctx, convID, &LiveChatMessage{Text: "hello agent", ClientMessageID: "tmp-1"})
	require.NoError(t, err)
	assert.Equal(t, "ext-1", extID)
}

func TestLiveChatClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewLiveChatClient(&config.LiveChat{BaseApiURL: server.URL, AppID: "app1"})
	_, err := c.CreateConversation(context.Background(), &CreateConversationRequest{UserID: "u1"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.False(t, IsRateLimited(err))
}
