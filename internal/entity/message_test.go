package entity

import (
	"testing"

	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCounterpartyClassification(t *testing.T) {
	self := "tr__1"
	other := "ho__2"

	outbound := &Message{Id: "1", SenderId: strPtr(self), ReceiverId: other}
	assert.Equal(t, other, outbound.Counterparty(self))
	assert.False(t, outbound.Inbound(self))

	inbound := &Message{Id: "2", SenderId: strPtr(other), ReceiverId: self}
	assert.Equal(t, other, inbound.Counterparty(self))
	assert.True(t, inbound.Inbound(self))

	system := &Message{Id: "3", SenderId: nil, ReceiverId: self}
	assert.True(t, system.IsSystem())
	assert.Equal(t, constant.AssistantUserId, system.Counterparty(self))
	assert.True(t, system.Inbound(self))

	selfNote := &Message{Id: "4", SenderId: strPtr(self), ReceiverId: self}
	assert.True(t, selfNote.IsSelfNote(self))
	assert.Equal(t, constant.AssistantUserId, selfNote.Counterparty(self))
	assert.False(t, selfNote.Inbound(self), "own messages never count as unread")
}

func TestBookingRequestRoundTrip(t *testing.T) {
	msg := &Message{Id: "1"}
	assert.Nil(t, msg.GetBookingRequest())

	br := &BookingRequest{
		PropertyId: "prop_9",
		CheckIn:    "2025-07-01",
		CheckOut:   "2025-07-05",
		GuestCount: 3,
		Price:      420.50,
	}
	require.NoError(t, msg.SetBookingRequest(br))
	require.NotNil(t, msg.BookingRequest)

	got := msg.GetBookingRequest()
	require.NotNil(t, got)
	assert.Equal(t, br, got)

	info := msg.ToMessageInfo()
	assert.Equal(t, br, info.BookingRequest)

	require.NoError(t, msg.SetBookingRequest(nil))
	assert.Nil(t, msg.BookingRequest)
}

func TestBookingRequestInvalidJson(t *testing.T) {
	raw := "not json"
	msg := &Message{Id: "1", BookingRequest: &raw}
	assert.Nil(t, msg.GetBookingRequest())
}

func TestNewerOrdering(t *testing.T) {
	a := &Message{Id: "a", CreatedAt: 100}
	b := &Message{Id: "b", CreatedAt: 200}

	assert.True(t, Newer(b, a))
	assert.False(t, Newer(a, b))
	assert.True(t, Newer(a, nil))
	assert.False(t, Newer(nil, a))

	// Equal timestamps fall back to id so ordering is deterministic
	c := &Message{Id: "c", CreatedAt: 200}
	assert.True(t, Newer(c, b))
	assert.False(t, Newer(b, c))
}

func TestSortMessagesAsc(t *testing.T) {
	msgs := []*Message{
		{Id: "3", CreatedAt: 300},
		{Id: "1", CreatedAt: 100},
		{Id: "2b", CreatedAt: 200},
		{Id: "2a", CreatedAt: 200},
	}
	SortMessagesAsc(msgs)

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.Id)
	}
	assert.Equal(t, []string{"1", "2a", "2b", "3"}, ids)
}
