package client

import (
	"agency-hub/internal/config"
	"agency-hub/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OdieClient talks to the AI support assistant.
type OdieClient interface {
	SendMessage(ctx context.Context, req *OdieSendRequest) (*OdieSendResponse, error)
}

type OdieSendRequest struct {
	// OdieID is zero for the first message of a conversation.
	OdieID  int64             `json:"-"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
	Version string            `json:"version,omitempty"`
}

type OdieMessage struct {
	MessageID int64                `json:"message_id"`
	Role      string               `json:"role"`
	Type      string               `json:"type"`
	Content   string               `json:"content"`
	Context   model.MessageContext `json:"context"`
}

type OdieSendResponse struct {
	ChatID   int64         `json:"chat_id"`
	Messages []OdieMessage `json:"messages"`
}

type odieClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	botID      string
	token      string
}

func NewOdieClient(cfg *config.Odie) OdieClient {
	return &odieClientImpl{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		botID:      cfg.BotID,
		token:      cfg.Token,
	}
}

func (c *odieClientImpl) SendMessage(ctx context.Context, sendReq *OdieSendRequest) (*OdieSendResponse, error) {
	url := fmt.Sprintf("%s/wpcom/v2/odie/chat/%s", c.baseApiURL, c.botID)
	if sendReq.OdieID != 0 {
		url = fmt.Sprintf("%s/%d", url, sendReq.OdieID)
	}

	body, err := json.Marshal(sendReq)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odie send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Service: "odie", StatusCode: resp.StatusCode, Body: string(b)}
	}

	var result OdieSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode odie response: %w", err)
	}

	return &result, nil
}
