package client

import (
	"agency-hub/internal/config"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LiveChatClient bridges to the human agent messaging backend.
type LiveChatClient interface {
	IsEligible(ctx context.Context, userID string) (bool, error)
	IsAvailable(ctx context.Context) (bool, error)
	CreateConversation(ctx context.Context, req *CreateConversationRequest) (string, error)
	SendMessage(ctx context.Context, conversationID string, msg *LiveChatMessage) (string, error)
}

type CreateConversationRequest struct {
	UserID               string            `json:"user_id"`
	SupportInteractionID string            `json:"support_interaction_id,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

type LiveChatMessage struct {
	Text string `json:"text"`
	// ClientMessageID lets the backend echo our temporary id back with the stored copy.
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type liveChatClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	appID      string
	key        string
	secret     string
}

func NewLiveChatClient(cfg *config.LiveChat) LiveChatClient {
	return &liveChatClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		appID:      cfg.AppID,
		key:        cfg.Key,
		secret:     cfg.Secret,
	}
}

func (c *liveChatClientImpl) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.key + ":" + c.secret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{Service: "livechat", StatusCode: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode livechat response: %w", err)
	}
	return nil
}

func (c *liveChatClientImpl) IsEligible(ctx context.Context, userID string) (bool, error) {
	var res struct {
		IsUserEligible bool `json:"is_user_eligible"`
	}
	path := fmt.Sprintf("/v2/apps/%s/eligibility/%s", c.appID, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return false, err
	}
	return res.IsUserEligible, nil
}

func (c *liveChatClientImpl) IsAvailable(ctx context.Context) (bool, error) {
	var res struct {
		Available bool `json:"available"`
	}
	path := fmt.Sprintf("/v2/apps/%s/availability", c.appID)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return false, err
	}
	return res.Available, nil
}

func (c *liveChatClientImpl) CreateConversation(ctx context.Context, convReq *CreateConversationRequest) (string, error) {
	var res struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
	}
	path := fmt.Sprintf("/v2/apps/%s/conversations", c.appID)
	if err := c.do(ctx, http.MethodPost, path, convReq, &res); err != nil {
		return "", err
	}
	if res.Conversation.ID == "" {
		return "", fmt.Errorf("livechat returned no conversation id")
	}
	return res.Conversation.ID, nil
}

func (c *liveChatClientImpl) SendMessage(ctx context.Context, conversationID string, msg *LiveChatMessage) (string, error) {
	var res struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	path := fmt.Sprintf("/v2/apps/%s/conversations/%s/messages", c.appID, conversationID)
	payload := map[string]any{
		"author":   map[string]string{"type": "user"},
		"content":  map[string]string{"type": "text", "text": msg.Text},
		"metadata": map[string]string{"client_message_id": msg.ClientMessageID},
	}
	if err := c.do(ctx, http.MethodPost, path, payload, &res); err != nil {
		return "", err
	}
	if len(res.Messages) == 0 {
		return "", nil
	}
	return res.Messages[0].ID, nil
}
