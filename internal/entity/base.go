package entity

import (
	"sort"
	"time"
)

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// Newer reports whether a is strictly more recent than b.
// Ordered by created_at, tie-break by id so every replica picks the
// same "latest" message regardless of arrival order.
func Newer(a, b *Message) bool {
	if b == nil {
		return a != nil
	}
	if a == nil {
		return false
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.Id > b.Id
}

// SortMessagesAsc sorts messages by created_at ascending, tie-break by id.
func SortMessagesAsc(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt != msgs[j].CreatedAt {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		}
		return msgs[i].Id < msgs[j].Id
	})
}
