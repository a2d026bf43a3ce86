package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMapRegisterUnregister(t *testing.T) {
	ctx := context.Background()
	m := NewUserMap(nil)

	c1 := &Client{UserId: "tr__1", ConnId: "conn-1"}
	c2 := &Client{UserId: "tr__1", ConnId: "conn-2"}

	m.Register(ctx, c1)
	m.Register(ctx, c2)

	clients, ok := m.GetAll("tr__1")
	require.True(t, ok)
	assert.Len(t, clients, 2)
	assert.Equal(t, 1, m.GetOnlineUserCount())
	assert.Equal(t, 2, m.GetOnlineConnCount())

	// Dropping one connection keeps the user online
	offline := m.Unregister(ctx, c1)
	assert.False(t, offline)
	assert.True(t, m.HasConnection("tr__1"))

	// Dropping the last connection takes the user offline
	offline = m.Unregister(ctx, c2)
	assert.True(t, offline)
	assert.False(t, m.HasConnection("tr__1"))
	assert.Equal(t, 0, m.GetOnlineUserCount())

	_, ok = m.GetAll("tr__1")
	assert.False(t, ok)
}

func TestUserMapUnregisterUnknown(t *testing.T) {
	ctx := context.Background()
	m := NewUserMap(nil)

	offline := m.Unregister(ctx, &Client{UserId: "tr__9", ConnId: "conn-x"})
	assert.False(t, offline)
}
