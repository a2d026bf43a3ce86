package service

import (
	"testing"

	"github.com/mbeoliero/stayline/internal/entity"
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

func TestAggregateBasicScenario(t *testing.T) {
	// self is U1, chatting with U2 plus one system tip
	self := "tr__1"
	other := "ho__2"

	msgs := []*entity.Message{
		msg("1", strPtr(other), self, false, 100), // hi
		msg("2", strPtr(self), other, false, 200), // hey
		msg("3", nil, self, false, 300),           // tip
	}

	convs := Aggregate(self, msgs)
	require.Len(t, convs, 2)

	// Ordered by recency: assistant (300) before the peer (200)
	assert.Equal(t, constant.AssistantUserId, convs[0].CounterpartyId)
	assert.Equal(t, "3", convs[0].LastMessage.Id)
	assert.Equal(t, int64(1), convs[0].UnreadCount)

	assert.Equal(t, other, convs[1].CounterpartyId)
	assert.Equal(t, "2", convs[1].LastMessage.Id)
	// The inbound "hi" is unread, the outbound "hey" never counts
	assert.Equal(t, int64(1), convs[1].UnreadCount)
}

func TestAggregateOwnMessagesNeverUnread(t *testing.T) {
	self := "tr__1"
	other := "ho__2"

	msgs := []*entity.Message{
		msg("1", strPtr(self), other, false, 100),
		msg("2", strPtr(self), other, false, 200),
	}

	convs := Aggregate(self, msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(0), convs[0].UnreadCount)
}

func TestAggregateHiddenExcluded(t *testing.T) {
	self := "tr__1"
	other := "ho__2"

	hidden := msg("2", strPtr(other), self, false, 200)
	hidden.Hidden = true

	msgs := []*entity.Message{
		msg("1", strPtr(other), self, false, 100),
		hidden,
	}

	convs := Aggregate(self, msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, "1", convs[0].LastMessage.Id)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
}

func TestAggregateSelfNotesFoldIntoAssistant(t *testing.T) {
	self := "tr__1"

	msgs := []*entity.Message{
		msg("1", strPtr(self), self, false, 100), // self note
		msg("2", nil, self, false, 200),          // system message
	}

	convs := Aggregate(self, msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, constant.AssistantUserId, convs[0].CounterpartyId)
	assert.Equal(t, "2", convs[0].LastMessage.Id)
	// Only the system message is inbound unread
	assert.Equal(t, int64(1), convs[0].UnreadCount)
}

func TestAggregateOrderIsInputIndependent(t *testing.T) {
	self := "tr__1"
	a := "ho__2"
	b := "cr__3"

	base := []*entity.Message{
		msg("1", strPtr(a), self, true, 100),
		msg("2", strPtr(self), b, false, 300),
		msg("3", strPtr(a), self, false, 200),
		msg("4", nil, self, true, 50),
	}
	reversed := []*entity.Message{base[3], base[2], base[1], base[0]}

	got1 := Aggregate(self, base)
	got2 := Aggregate(self, reversed)

	require.Equal(t, len(got1), len(got2))
	for i := range got1 {
		assert.Equal(t, got1[i].CounterpartyId, got2[i].CounterpartyId)
		assert.Equal(t, got1[i].LastMessage.Id, got2[i].LastMessage.Id)
		assert.Equal(t, got1[i].UnreadCount, got2[i].UnreadCount)
	}

	// b (300) before a (200) before assistant (50)
	assert.Equal(t, b, got1[0].CounterpartyId)
	assert.Equal(t, a, got1[1].CounterpartyId)
	assert.Equal(t, constant.AssistantUserId, got1[2].CounterpartyId)
}

func TestAggregateTieBreakByCounterpartyId(t *testing.T) {
	self := "tr__1"
	a := "ho__2"
	b := "cr__3"

	msgs := []*entity.Message{
		msg("1", strPtr(a), self, true, 100),
		msg("2", strPtr(b), self, true, 100),
	}

	convs := Aggregate(self, msgs)
	require.Len(t, convs, 2)
	assert.Equal(t, b, convs[0].CounterpartyId, "cr__3 sorts before ho__2 on equal recency")
	assert.Equal(t, a, convs[1].CounterpartyId)
}

func TestAggregateDuplicateIdsIdempotent(t *testing.T) {
	self := "tr__1"
	other := "ho__2"

	m := msg("1", strPtr(other), self, false, 100)
	convs := Aggregate(self, []*entity.Message{m, m})

	require.Len(t, convs, 1)
	assert.Equal(t, "1", convs[0].LastMessage.Id)
	assert.Equal(t, int64(1), convs[0].UnreadCount, "duplicate row must not double count")
}

func TestAggregateEmpty(t *testing.T) {
	convs := Aggregate("tr__1", nil)
	assert.Empty(t, convs)
}
