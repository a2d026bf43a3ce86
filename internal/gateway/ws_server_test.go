package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func (f *fakeConn) ReadMessage() ([]byte, error) { return nil, ErrConnClosed }

func (f *fakeConn) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func TestRegisterClientKicksSamePlatform(t *testing.T) {
	ctx := context.Background()
	s := &WsServer{userMap: NewUserMap(nil)}

	oldConn := &fakeConn{}
	old := NewClient(oldConn, "tr__1", 1, "tok", "conn-old", s)
	s.registerClient(ctx, old)

	// A second platform coexists with the first
	tablet := NewClient(&fakeConn{}, "tr__1", 2, "tok", "conn-tab", s)
	s.registerClient(ctx, tablet)
	assert.False(t, old.IsClosed())

	// A newer login on the same platform replaces the older connection
	fresh := NewClient(&fakeConn{}, "tr__1", 1, "tok", "conn-new", s)
	s.registerClient(ctx, fresh)

	assert.True(t, old.IsClosed())
	assert.False(t, tablet.IsClosed())
	assert.False(t, fresh.IsClosed())
	assert.True(t, oldConn.closed)

	// The replaced connection received a kick frame before closing
	require.Len(t, oldConn.writes, 1)
	var resp WSResponse
	require.NoError(t, Decode(oldConn.writes[0], &resp))
	assert.Equal(t, int32(WSKickOnlineMsg), resp.ReqIdentifier)
}
