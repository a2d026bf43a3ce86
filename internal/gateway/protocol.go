package gateway

import (
	"encoding/json"

	"github.com/mbeoliero/stayline/internal/entity"
)

// WSRequest represents a WebSocket request message
type WSRequest struct {
	ReqIdentifier int32  `json:"req_identifier"` // Request type
	MsgIncr       string `json:"msg_incr"`       // Client message counter/trace Id
	OperationId   string `json:"operation_id"`   // Operation Id
	SendId        string `json:"send_id"`        // Sender user Id
	Data          []byte `json:"data"`           // Business data
}

// WSResponse represents a WebSocket response or push message
type WSResponse struct {
	ReqIdentifier int32  `json:"req_identifier"` // Request type (echo back, or push type)
	MsgIncr       string `json:"msg_incr"`       // Message counter (echo back)
	OperationId   string `json:"operation_id"`   // Operation Id (echo back)
	ErrCode       int    `json:"err_code"`       // Error code, 0 = success
	ErrMsg        string `json:"err_msg"`        // Error message
	Data          []byte `json:"data"`           // Response data
}

// OpenConversationReq represents open conversation request data
type OpenConversationReq struct {
	CounterpartyId string `json:"counterparty_id"`
}

// MarkReadReq represents mark read request data
type MarkReadReq struct {
	CounterpartyId string `json:"counterparty_id"`
}

// SendMsgReq represents send message request data
type SendMsgReq struct {
	ClientMsgId    string                 `json:"client_msg_id"`
	ReceiverId     string                 `json:"receiver_id"`
	Content        string                 `json:"content"`
	BookingRequest *entity.BookingRequest `json:"booking_request,omitempty"`
}

// SendMsgResp represents send message response data. Assistant sends carry
// no server message id since the rows are written by the chat endpoint.
type SendMsgResp struct {
	ServerMsgId string `json:"server_msg_id,omitempty"`
	ClientMsgId string `json:"client_msg_id"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

// PushConversationsData represents the pushed conversation list
type PushConversationsData struct {
	Conversations []*entity.ConversationInfo `json:"conversations"`
}

// PushThreadData represents the pushed open thread
type PushThreadData struct {
	CounterpartyId string                `json:"counterparty_id"`
	Messages       []*entity.MessageInfo `json:"messages"`
}

// PushMsgData represents a single pushed message
type PushMsgData struct {
	Message *entity.MessageInfo `json:"message"`
}

// PushNoticeData represents a transient notice about an inbound message
// landing outside the open conversation
type PushNoticeData struct {
	Message *entity.MessageInfo `json:"message"`
}

// Encode encodes data to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to struct
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
