package gateway

import "time"

// WebSocket protocol identifiers
const (
	// Request identifiers
	WSListConversations = 1001 // Reload and push the conversation list
	WSOpenConversation  = 1002 // Open a conversation thread
	WSCloseConversation = 1003 // Close the open thread
	WSSendMsg           = 1004 // Send a message
	WSMarkRead          = 1005 // Mark a conversation read

	// Push identifiers
	WSPushConversations = 2001 // Server push: full conversation list
	WSPushThread        = 2002 // Server push: open thread contents
	WSPushMsg           = 2003 // Server push: single message
	WSKickOnlineMsg     = 2004 // Kick user offline
	WSPushNotice        = 2005 // Server push: transient new-message notice
)

// Timeout constants
const (
	// WriteWait is time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is time allowed to read the next pong message from the peer
	PongWait = 30 * time.Second

	// PingPeriod is period between pings. Must be less than PongWait
	PingPeriod = (PongWait * 9) / 10

	// MaxMessageSize is maximum message size allowed from peer
	MaxMessageSize = 51200
)

// Query parameter keys
const (
	QueryToken       = "token"
	QuerySendId      = "send_id"
	QueryPlatformId  = "platform_id"
	QueryOperationId = "operation_id"
)
