package entity

// Conversation is a derived per-counterparty summary. It is never persisted:
// the bulk load recomputes it from the message set and the realtime merge
// layer patches it incrementally.
type Conversation struct {
	CounterpartyId string
	Profile        *Profile
	LastMessage    *Message
	UnreadCount    int64
}

// ConversationInfo represents conversation info for API response and push frames
type ConversationInfo struct {
	CounterpartyId string       `json:"counterparty_id"`
	Profile        *Profile     `json:"profile"`
	LastMessage    *MessageInfo `json:"last_message"`
	UnreadCount    int64        `json:"unread_count"`
}

// ToConversationInfo converts Conversation to ConversationInfo
func (c *Conversation) ToConversationInfo() *ConversationInfo {
	info := &ConversationInfo{
		CounterpartyId: c.CounterpartyId,
		Profile:        c.Profile,
		UnreadCount:    c.UnreadCount,
	}
	if c.LastMessage != nil {
		info.LastMessage = c.LastMessage.ToMessageInfo()
	}
	return info
}
