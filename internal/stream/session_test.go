package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pushWait = 2 * time.Second

type fakeStore struct {
	mu          sync.Mutex
	msgs        []*entity.Message
	markCalls   []string
	visibleGate chan struct{} // when set, ListVisible blocks until closed
	betweenGate map[string]chan struct{}
}

func (f *fakeStore) ListVisible(ctx context.Context, userId string) ([]*entity.Message, error) {
	if f.visibleGate != nil {
		<-f.visibleGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Message, len(f.msgs))
	copy(out, f.msgs)
	return out, nil
}

func (f *fakeStore) ListBetween(ctx context.Context, userId, otherId string) ([]*entity.Message, error) {
	f.mu.Lock()
	gate := f.betweenGate[otherId]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.msgs {
		if m.Counterparty(userId) == otherId {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAssistant(ctx context.Context, userId string) ([]*entity.Message, error) {
	return f.ListBetween(ctx, userId, constant.AssistantUserId)
}

func (f *fakeStore) MarkConversationRead(ctx context.Context, userId, otherId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, otherId)
	var n int64
	for _, m := range f.msgs {
		if m.Counterparty(userId) == otherId && m.Inbound(userId) && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) markedWith(otherId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.markCalls {
		if id == otherId {
			return true
		}
	}
	return false
}

type fakeResolver struct{}

func (fakeResolver) GetProfiles(ctx context.Context, ids []string) map[string]*entity.Profile {
	out := make(map[string]*entity.Profile, len(ids))
	for _, id := range ids {
		out[id] = entity.PlaceholderProfile(id)
	}
	return out
}

type fakeSubscriber struct {
	events chan *entity.Message
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, userId string) (<-chan *entity.Message, func(), error) {
	return f.events, func() {}, nil
}

type threadPush struct {
	counterpartyId string
	msgs           []*entity.MessageInfo
}

type fakeSink struct {
	convs   chan []*entity.ConversationInfo
	threads chan *threadPush
	msgs    chan *entity.MessageInfo
	notices chan *entity.MessageInfo
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		convs:   make(chan []*entity.ConversationInfo, 64),
		threads: make(chan *threadPush, 64),
		msgs:    make(chan *entity.MessageInfo, 64),
		notices: make(chan *entity.MessageInfo, 64),
	}
}

func (f *fakeSink) PushConversations(convs []*entity.ConversationInfo) { f.convs <- convs }
func (f *fakeSink) PushThread(id string, msgs []*entity.MessageInfo) {
	f.threads <- &threadPush{counterpartyId: id, msgs: msgs}
}
func (f *fakeSink) PushMessage(msg *entity.MessageInfo) { f.msgs <- msg }
func (f *fakeSink) PushNotice(msg *entity.MessageInfo)  { f.notices <- msg }

func waitConvs(t *testing.T, sink *fakeSink) []*entity.ConversationInfo {
	t.Helper()
	select {
	case convs := <-sink.convs:
		return convs
	case <-time.After(pushWait):
		t.Fatal("timed out waiting for conversations push")
		return nil
	}
}

func waitThread(t *testing.T, sink *fakeSink) *threadPush {
	t.Helper()
	select {
	case push := <-sink.threads:
		return push
	case <-time.After(pushWait):
		t.Fatal("timed out waiting for thread push")
		return nil
	}
}

func startSession(t *testing.T, store *fakeStore, sub *fakeSubscriber, sink *fakeSink) *Session {
	t.Helper()
	s := NewSession("tr__1", store, fakeResolver{}, sub, sink, 64)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	return s
}

func TestSessionInitialLoad(t *testing.T) {
	other := "ho__2"
	store := &fakeStore{msgs: []*entity.Message{
		msg("1", strPtr(other), "tr__1", false, 100),
		msg("2", strPtr("tr__1"), other, false, 200),
	}}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	startSession(t, store, sub, sink)

	convs := waitConvs(t, sink)
	require.Len(t, convs, 1)
	assert.Equal(t, other, convs[0].CounterpartyId)
	assert.Equal(t, "2", convs[0].LastMessage.Id)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
	require.NotNil(t, convs[0].Profile)
}

func TestSessionEventUpdatesSummaries(t *testing.T) {
	other := "ho__2"
	store := &fakeStore{}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	startSession(t, store, sub, sink)
	waitConvs(t, sink) // initial empty push

	sub.events <- msg("1", strPtr(other), "tr__1", false, 100)
	convs := waitConvs(t, sink)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(1), convs[0].UnreadCount)

	// Duplicate event is absorbed without another push
	sub.events <- msg("1", strPtr(other), "tr__1", false, 100)
	select {
	case <-sink.convs:
		t.Fatal("duplicate event must not trigger a push")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionOpenMarksRead(t *testing.T) {
	other := "ho__2"
	store := &fakeStore{msgs: []*entity.Message{
		msg("1", strPtr(other), "tr__1", false, 100),
		msg("2", strPtr(other), "tr__1", false, 200),
	}}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	s := startSession(t, store, sub, sink)
	waitConvs(t, sink)

	s.Open(other)
	push := waitThread(t, sink)
	assert.Equal(t, other, push.counterpartyId)
	require.Len(t, push.msgs, 2)
	assert.Equal(t, "1", push.msgs[0].Id)
	assert.Equal(t, "2", push.msgs[1].Id)

	assert.True(t, store.markedWith(other))

	convs := waitConvs(t, sink)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(0), convs[0].UnreadCount, "open zeroes the unread count")
}

func TestSessionEventForOpenThread(t *testing.T) {
	other := "ho__2"
	store := &fakeStore{msgs: []*entity.Message{
		msg("1", strPtr(other), "tr__1", true, 100),
	}}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	s := startSession(t, store, sub, sink)
	waitConvs(t, sink)

	s.Open(other)
	waitThread(t, sink)
	waitConvs(t, sink)

	sub.events <- msg("2", strPtr(other), "tr__1", false, 200)
	select {
	case pushed := <-sink.msgs:
		assert.Equal(t, "2", pushed.Id)
	case <-time.After(pushWait):
		t.Fatal("timed out waiting for message push")
	}
}

func TestSessionStaleOpenDiscarded(t *testing.T) {
	a := "ho__2"
	b := "cr__3"
	gate := make(chan struct{})
	store := &fakeStore{
		msgs: []*entity.Message{
			msg("1", strPtr(a), "tr__1", true, 100),
			msg("2", strPtr(b), "tr__1", true, 200),
		},
		betweenGate: map[string]chan struct{}{a: gate},
	}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	s := startSession(t, store, sub, sink)
	waitConvs(t, sink)

	// Open a, whose fetch hangs, then switch to b
	s.Open(a)
	s.Open(b)

	push := waitThread(t, sink)
	assert.Equal(t, b, push.counterpartyId)

	// a's fetch finally lands but must be discarded as stale
	close(gate)
	select {
	case stale := <-sink.threads:
		t.Fatalf("stale open pushed a thread for %s", stale.counterpartyId)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionInboundNoticeOutsideOpenThread(t *testing.T) {
	other := "ho__2"
	store := &fakeStore{}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	s := startSession(t, store, sub, sink)
	waitConvs(t, sink)

	// No thread open: inbound surfaces as a notice
	sub.events <- msg("1", strPtr(other), "tr__1", false, 100)
	select {
	case notice := <-sink.notices:
		assert.Equal(t, "1", notice.Id)
	case <-time.After(pushWait):
		t.Fatal("timed out waiting for notice push")
	}
	waitConvs(t, sink)

	// Outbound echo never produces a notice
	sub.events <- msg("2", strPtr("tr__1"), other, false, 200)
	waitConvs(t, sink)
	select {
	case <-sink.notices:
		t.Fatal("outbound echo must not produce a notice")
	case <-time.After(100 * time.Millisecond):
	}

	// Inbound into the open thread is pushed as a message, not a notice
	s.Open(other)
	waitThread(t, sink)
	waitConvs(t, sink)

	sub.events <- msg("3", strPtr(other), "tr__1", false, 300)
	select {
	case pushed := <-sink.msgs:
		assert.Equal(t, "3", pushed.Id)
	case <-time.After(pushWait):
		t.Fatal("timed out waiting for message push")
	}
	select {
	case <-sink.notices:
		t.Fatal("open-thread message must not produce a notice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionLoadResultSurvivesFullCommandQueue(t *testing.T) {
	other := "ho__2"
	gate := make(chan struct{})
	store := &fakeStore{
		msgs:        []*entity.Message{msg("1", strPtr(other), "tr__1", true, 100)},
		visibleGate: gate,
	}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	// A slow consumer: the run loop blocks pushing to this sink, so client
	// commands pile up in the bounded queue
	sink := &fakeSink{
		convs:   make(chan []*entity.ConversationInfo, 1),
		threads: make(chan *threadPush, 64),
		msgs:    make(chan *entity.MessageInfo, 64),
		notices: make(chan *entity.MessageInfo, 64),
	}

	s := NewSession("tr__1", store, fakeResolver{}, sub, sink, 2)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	// Saturate the command queue while the bulk load is still in flight
	for i := 0; i < 20; i++ {
		s.MarkRead("cr__9")
		time.Sleep(5 * time.Millisecond)
	}
	close(gate)

	// Drain pushes until the loaded conversation appears; a dropped load
	// completion would leave the session empty forever
	deadline := time.After(pushWait)
	for {
		select {
		case convs := <-sink.convs:
			if len(convs) == 1 && convs[0].LastMessage != nil && convs[0].LastMessage.Id == "1" {
				return
			}
		case <-deadline:
			t.Fatal("bulk load result was lost under command pressure")
		}
	}
}

func TestSessionEventDuringBulkLoadNotLost(t *testing.T) {
	other := "ho__2"
	gate := make(chan struct{})
	store := &fakeStore{
		msgs:        []*entity.Message{msg("1", strPtr(other), "tr__1", true, 100)},
		visibleGate: gate,
	}
	sub := &fakeSubscriber{events: make(chan *entity.Message, 8)}
	sink := newFakeSink()

	startSession(t, store, sub, sink)

	// The bulk load is in flight when a live event arrives
	sub.events <- msg("2", strPtr(other), "tr__1", false, 200)
	close(gate)

	// Drain pushes until the session settles, then check the final state:
	// the loaded row and the live event must both survive the reset
	var last []*entity.ConversationInfo
	deadline := time.After(pushWait)
drain:
	for {
		select {
		case convs := <-sink.convs:
			last = convs
		case <-time.After(300 * time.Millisecond):
			if last != nil {
				break drain
			}
		case <-deadline:
			break drain
		}
	}

	require.Len(t, last, 1)
	assert.Equal(t, "2", last[0].LastMessage.Id)
	assert.Equal(t, int64(1), last[0].UnreadCount)
}
