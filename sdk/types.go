package sdk

// Response represents the standard API response
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Profile represents a counterparty display identity
type Profile struct {
	Id     string  `json:"id"`
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// BookingRequest represents the booking payload embedded in a message
type BookingRequest struct {
	PropertyId string  `json:"property_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	GuestCount int     `json:"guest_count"`
	Price      float64 `json:"price"`
}

// MessageInfo represents message info
type MessageInfo struct {
	Id             string          `json:"id"`
	ClientMsgId    string          `json:"client_msg_id,omitempty"`
	SenderId       *string         `json:"sender_id"`
	ReceiverId     string          `json:"receiver_id"`
	Content        string          `json:"content"`
	Read           bool            `json:"read"`
	IsAiMessage    bool            `json:"is_ai_message"`
	BookingRequest *BookingRequest `json:"booking_request,omitempty"`
	BookingStatus  string          `json:"booking_status,omitempty"`
	CreatedAt      int64           `json:"created_at"`
}

// ConversationInfo represents a conversation summary
type ConversationInfo struct {
	CounterpartyId string       `json:"counterparty_id"`
	Profile        *Profile     `json:"profile"`
	LastMessage    *MessageInfo `json:"last_message"`
	UnreadCount    int64        `json:"unread_count"`
}
