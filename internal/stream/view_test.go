package stream

import (
	"testing"

	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/internal/service"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func msg(id string, sender *string, receiver string, read bool, createdAt int64) *entity.Message {
	return &entity.Message{
		Id:         id,
		SenderId:   sender,
		ReceiverId: receiver,
		Read:       read,
		CreatedAt:  createdAt,
	}
}

func TestViewApplyIdempotent(t *testing.T) {
	self := "tr__1"
	other := "ho__2"
	v := NewView(self)

	m := msg("1", strPtr(other), self, false, 100)
	assert.Equal(t, ApplyUpdated, v.Apply(m))
	assert.Equal(t, ApplyDiscarded, v.Apply(m), "same event twice is a no-op")

	convs := v.Summaries()
	require.Len(t, convs, 1)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
}

func TestViewApplyHiddenDiscarded(t *testing.T) {
	self := "tr__1"
	other := "ho__2"
	v := NewView(self)

	hidden := msg("1", strPtr(other), self, false, 100)
	hidden.Hidden = true
	assert.Equal(t, ApplyDiscarded, v.Apply(hidden))
	assert.Empty(t, v.Summaries())
}

func TestViewApplyReadTransition(t *testing.T) {
	self := "tr__1"
	other := "ho__2"
	v := NewView(self)

	v.Apply(msg("1", strPtr(other), self, false, 100))
	convs := v.Summaries()
	require.Len(t, convs, 1)
	require.Equal(t, int64(1), convs[0].UnreadCount)

	// The same row arrives again with read flipped
	assert.Equal(t, ApplyUpdated, v.Apply(msg("1", strPtr(other), self, true, 100)))
	convs = v.Summaries()
	require.Len(t, convs, 1)
	assert.Equal(t, int64(0), convs[0].UnreadCount)
}

func TestViewBulkAndIncrementalConverge(t *testing.T) {
	self := "tr__1"
	a := "ho__2"
	b := "cr__3"

	all := []*entity.Message{
		msg("1", strPtr(a), self, false, 100),
		msg("2", strPtr(self), a, false, 150),
		msg("3", strPtr(b), self, false, 200),
		msg("4", nil, self, false, 300),
	}

	bulk := NewView(self)
	bulk.ResetAll(all)

	incremental := NewView(self)
	for _, m := range all {
		incremental.Apply(m)
	}
	// Duplicates change nothing
	for _, m := range all {
		incremental.Apply(m)
	}

	want := bulk.Summaries()
	got := incremental.Summaries()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].CounterpartyId, got[i].CounterpartyId)
		assert.Equal(t, want[i].LastMessage.Id, got[i].LastMessage.Id)
		assert.Equal(t, want[i].UnreadCount, got[i].UnreadCount)
	}

	// Both match a plain aggregate of the same set
	agg := service.Aggregate(self, all)
	require.Equal(t, len(agg), len(want))
	for i := range agg {
		assert.Equal(t, agg[i].CounterpartyId, want[i].CounterpartyId)
	}
}

func TestViewOpenThreadDedupAndOrder(t *testing.T) {
	self := "tr__1"
	other := "ho__2"
	v := NewView(self)

	initial := []*entity.Message{
		msg("1", strPtr(other), self, true, 100),
		msg("2", strPtr(self), other, false, 200),
	}
	v.OpenThread(other, initial)
	require.Len(t, v.OpenMessages(), 2)

	// Echo of a message already in the thread must not duplicate
	v.Apply(msg("2", strPtr(self), other, false, 200))
	assert.Len(t, v.OpenMessages(), 2)

	// A new event lands in the open thread, ordered by created_at
	v.Apply(msg("3", strPtr(other), self, false, 150))
	msgs := v.OpenMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "1", msgs[0].Id)
	assert.Equal(t, "3", msgs[1].Id)
	assert.Equal(t, "2", msgs[2].Id)

	// Events for other counterparties never leak into the thread
	v.Apply(msg("4", strPtr("cr__9"), self, false, 400))
	assert.Len(t, v.OpenMessages(), 3)
}

func TestViewOpenThreadSkipsHidden(t *testing.T) {
	self := "tr__1"
	other := "ho__2"
	v := NewView(self)

	hidden := msg("2", strPtr(other), self, false, 200)
	hidden.Hidden = true
	v.OpenThread(other, []*entity.Message{
		msg("1", strPtr(other), self, true, 100),
		hidden,
	})
	require.Len(t, v.OpenMessages(), 1)
	assert.Equal(t, "1", v.OpenMessages()[0].Id)
}

func TestViewMarkConversationRead(t *testing.T) {
	self := "tr__1"
	a := "ho__2"
	b := "cr__3"
	v := NewView(self)

	v.Apply(msg("1", strPtr(a), self, false, 100))
	v.Apply(msg("2", strPtr(a), self, false, 200))
	v.Apply(msg("3", strPtr(b), self, false, 300))

	v.MarkConversationRead(a)

	for _, conv := range v.Summaries() {
		switch conv.CounterpartyId {
		case a:
			assert.Equal(t, int64(0), conv.UnreadCount)
		case b:
			assert.Equal(t, int64(1), conv.UnreadCount, "other conversations untouched")
		}
	}

	// Idempotent
	v.MarkConversationRead(a)
	for _, conv := range v.Summaries() {
		if conv.CounterpartyId == a {
			assert.Equal(t, int64(0), conv.UnreadCount)
		}
	}
}

func TestViewAssistantThread(t *testing.T) {
	self := "tr__1"
	v := NewView(self)

	system := msg("1", nil, self, false, 100)
	note := msg("2", strPtr(self), self, false, 200)
	v.OpenThread(constant.AssistantUserId, []*entity.Message{system, note})

	// A fresh system event joins the assistant thread
	v.Apply(msg("3", nil, self, false, 300))
	msgs := v.OpenMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "3", msgs[2].Id)

	// An ordinary peer message does not
	v.Apply(msg("4", strPtr("ho__2"), self, false, 400))
	assert.Len(t, v.OpenMessages(), 3)
}

func TestViewResetAllSupersedesMergedState(t *testing.T) {
	self := "tr__1"
	other := "ho__2"
	v := NewView(self)

	v.Apply(msg("1", strPtr(other), self, false, 100))
	v.ResetAll([]*entity.Message{
		msg("1", strPtr(other), self, true, 100),
		msg("2", strPtr(other), self, false, 200),
	})

	convs := v.Summaries()
	require.Len(t, convs, 1)
	assert.Equal(t, "2", convs[0].LastMessage.Id)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
}
