package sdk

// AssistantUserId is the reserved counterparty id of the assistant
// conversation
const AssistantUserId = "ai-assistant"

// Booking request statuses
const (
	BookingStatusPending  = "pending"
	BookingStatusAccepted = "accepted"
	BookingStatusRejected = "rejected"
)
