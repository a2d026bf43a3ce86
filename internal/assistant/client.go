package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/mbeoliero/stayline/internal/config"
)

// Client talks to the assistant chat endpoint. The endpoint persists both
// the user's message and the assistant's reply; this client only relays.
type Client struct {
	baseURL    string
	httpClient *client.Client
}

// ChatRequest is the payload for the assistant chat endpoint
type ChatRequest struct {
	UserId  string `json:"user_id"`
	Message string `json:"message"`
}

// chatResponse mirrors the endpoint's response envelope
type chatResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// NewClient creates a new assistant client
func NewClient(cfg *config.AssistantConfig) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
	}, nil
}

// Relay forwards a user message to the assistant chat endpoint
func (c *Client) Relay(ctx context.Context, userId, content string) error {
	body, err := json.Marshal(&ChatRequest{UserId: userId, Message: content})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req := &protocol.Request{}
	resp := &protocol.Response{}
	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.baseURL + "/chat")
	req.Header.Set("Content-Type", "application/json")
	req.SetBody(body)

	if err := c.httpClient.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return fmt.Errorf("assistant endpoint returned status %d", resp.StatusCode())
	}

	var apiResp chatResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Code != 0 {
		return fmt.Errorf("assistant endpoint error: code=%d, msg=%s", apiResp.Code, apiResp.Msg)
	}
	return nil
}
