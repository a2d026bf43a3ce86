package entity

import (
	"encoding/json"

	"github.com/mbeoliero/stayline/pkg/constant"
)

// BookingRequest is the structured payload embedded in booking-related
// messages. It round-trips through aggregation and push unchanged; the
// booking workflow itself lives outside this service.
type BookingRequest struct {
	PropertyId string  `json:"property_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	GuestCount int     `json:"guest_count"`
	Price      float64 `json:"price"`
}

// Message represents a message
type Message struct {
	Id             string  `json:"id" gorm:"column:id;primaryKey"`
	ClientMsgId    string  `json:"client_msg_id" gorm:"column:client_msg_id"`
	SenderId       *string `json:"sender_id" gorm:"column:sender_id"` // nil marks a system/assistant message
	ReceiverId     string  `json:"receiver_id" gorm:"column:receiver_id"`
	Content        string  `json:"content" gorm:"column:content"`
	Read           bool    `json:"read" gorm:"column:read"`
	Hidden         bool    `json:"hidden" gorm:"column:hidden_from_ui"`
	BookingRequest *string `json:"booking_request" gorm:"column:booking_request;type:json"`
	BookingStatus  string  `json:"booking_status" gorm:"column:booking_status"`
	CreatedAt      int64   `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      int64   `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// IsSystem reports whether the message was authored by the system/assistant.
func (m *Message) IsSystem() bool {
	return m.SenderId == nil
}

// IsFrom reports whether the message was sent by the given user.
func (m *Message) IsFrom(userId string) bool {
	return m.SenderId != nil && *m.SenderId == userId
}

// IsSelfNote reports whether the message is a self-addressed note. These are
// the scratch/echo channel of the assistant view.
func (m *Message) IsSelfNote(selfId string) bool {
	return m.IsFrom(selfId) && m.ReceiverId == selfId
}

// Counterparty classifies the message from selfId's perspective:
// system messages and self-notes belong to the assistant conversation,
// otherwise the counterparty is whichever end isn't self.
func (m *Message) Counterparty(selfId string) string {
	if m.IsSystem() || m.IsSelfNote(selfId) {
		return constant.AssistantUserId
	}
	if m.IsFrom(selfId) {
		return m.ReceiverId
	}
	return *m.SenderId
}

// Inbound reports whether the message counts toward selfId's unread state.
// Messages sent by self never do, system messages always target self.
func (m *Message) Inbound(selfId string) bool {
	return m.ReceiverId == selfId && !m.IsFrom(selfId)
}

// GetBookingRequest decodes the booking payload, nil when absent or invalid
func (m *Message) GetBookingRequest() *BookingRequest {
	if m.BookingRequest == nil {
		return nil
	}
	var br BookingRequest
	if err := json.Unmarshal([]byte(*m.BookingRequest), &br); err != nil {
		return nil
	}
	return &br
}

// SetBookingRequest encodes the booking payload onto the message
func (m *Message) SetBookingRequest(br *BookingRequest) error {
	if br == nil {
		m.BookingRequest = nil
		return nil
	}
	data, err := json.Marshal(br)
	if err != nil {
		return err
	}
	s := string(data)
	m.BookingRequest = &s
	return nil
}

// MessageInfo represents message info for API response and push frames
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

// ToMessageInfo converts Message to MessageInfo
func (m *Message) ToMessageInfo() *MessageInfo {
	return &MessageInfo{
		Id:             m.Id,
		ClientMsgId:    m.ClientMsgId,
		SenderId:       m.SenderId,
		ReceiverId:     m.ReceiverId,
		Content:        m.Content,
		Read:           m.Read,
		IsAiMessage:    m.IsSystem(),
		BookingRequest: m.GetBookingRequest(),
		BookingStatus:  m.BookingStatus,
		CreatedAt:      m.CreatedAt,
	}
}
