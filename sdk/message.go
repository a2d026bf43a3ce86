package sdk

import "context"

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	ClientMsgId    string          `json:"client_msg_id"`
	ReceiverId     string          `json:"receiver_id"`
	Content        string          `json:"content"`
	BookingRequest *BookingRequest `json:"booking_request,omitempty"`
}

// SendMessageResponse represents send message response
type SendMessageResponse struct {
	ServerMsgId string `json:"server_msg_id"`
	ClientMsgId string `json:"client_msg_id"`
	CreatedAt   int64  `json:"created_at"`
}

// SendMessage sends a message. For the assistant counterparty the response
// carries no server message id; refetch the thread with OpenConversation to
// pick up both the message and the reply.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	var resp SendMessageResponse
	if err := c.post(ctx, "/msg/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
