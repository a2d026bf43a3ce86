package constant

// AssistantUserId is the reserved pseudo-identity grouping system/AI-authored
// messages into one conversation. It never resolves against the users table.
const AssistantUserId = "ai-assistant"

// Assistant display identity (hardcoded, not looked up)
const (
	AssistantName   = "Stayline Assistant"
	AssistantAvatar = "https://cdn.stayline.app/assistant.png"
)

// Booking request statuses
const (
	BookingStatusPending  = "pending"
	BookingStatusAccepted = "accepted"
	BookingStatusRejected = "rejected"
)

// Push notification types
const (
	NotifyTypeNewMessage     = "new_message"
	NotifyTypeBookingRequest = "booking_request"
)

// Online status
const (
	StatusOffline = 0
	StatusOnline  = 1
)

// Platform Ids
const (
	PlatformIdUnknown = 0
	PlatformIdIOS     = 1
	PlatformIdAndroid = 2
	PlatformIdWindows = 3
	PlatformIdMacOS   = 4
	PlatformIdWeb     = 5
)

// PlatformIdToName converts platform Id to name
func PlatformIdToName(platformId int) string {
	switch platformId {
	case PlatformIdIOS:
		return "iOS"
	case PlatformIdAndroid:
		return "Android"
	case PlatformIdWindows:
		return "Windows"
	case PlatformIdMacOS:
		return "macOS"
	case PlatformIdWeb:
		return "Web"
	default:
		return "Unknown"
	}
}

// Redis key patterns (without prefix, use RedisKey() to get full key)
const (
	redisKeyOnline      = "online:%s"  // online:{user_id}
	redisKeyUserProfile = "profile:%s" // profile:{user_id}

	// Pub/sub channels carrying message insert events. Two filtered channels
	// per user: inbound (receiver == user) and outbound (sender == user).
	redisChanInbound  = "msg:in:%s"  // msg:in:{user_id}
	redisChanOutbound = "msg:out:%s" // msg:out:{user_id}
)

// redisKeyPrefix is the global prefix for all Redis keys and channels
var redisKeyPrefix = "stayline:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeyOnline() string      { return redisKeyPrefix + redisKeyOnline }
func RedisKeyUserProfile() string { return redisKeyPrefix + redisKeyUserProfile }
func RedisChanInbound() string    { return redisKeyPrefix + redisChanInbound }
func RedisChanOutbound() string   { return redisKeyPrefix + redisChanOutbound }
