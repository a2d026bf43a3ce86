package sdk

import "context"

// conversationListData wraps the conversation list response
type conversationListData struct {
	Conversations []*ConversationInfo `json:"conversations"`
}

// openConversationData wraps the open conversation response
type openConversationData struct {
	CounterpartyId string         `json:"counterparty_id"`
	Messages       []*MessageInfo `json:"messages"`
}

// ListConversations fetches the derived conversation summaries
func (c *Client) ListConversations(ctx context.Context) ([]*ConversationInfo, error) {
	var data conversationListData
	if err := c.get(ctx, "/conversation/list", nil, &data); err != nil {
		return nil, err
	}
	return data.Conversations, nil
}

// OpenConversation fetches the full thread with a counterparty and marks
// it read server-side
func (c *Client) OpenConversation(ctx context.Context, counterpartyId string) ([]*MessageInfo, error) {
	var data openConversationData
	params := map[string]string{"counterparty_id": counterpartyId}
	if err := c.get(ctx, "/conversation/open", params, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

// MarkRead flags a conversation as fully read
func (c *Client) MarkRead(ctx context.Context, counterpartyId string) error {
	body := map[string]string{"counterparty_id": counterpartyId}
	return c.post(ctx, "/conversation/mark_read", body, nil)
}
