package stream

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/pkg/constant"
)

// ThreadStore is the message store surface a session needs
type ThreadStore interface {
	ListVisible(ctx context.Context, userId string) ([]*entity.Message, error)
	ListBetween(ctx context.Context, userId, otherId string) ([]*entity.Message, error)
	ListAssistant(ctx context.Context, userId string) ([]*entity.Message, error)
	MarkConversationRead(ctx context.Context, userId, otherId string) (int64, error)
}

// ProfileResolver resolves counterparty display profiles in bulk
type ProfileResolver interface {
	GetProfiles(ctx context.Context, ids []string) map[string]*entity.Profile
}

// Sink receives the frames a session pushes toward its client
type Sink interface {
	PushConversations(convs []*entity.ConversationInfo)
	PushThread(counterpartyId string, msgs []*entity.MessageInfo)
	PushMessage(msg *entity.MessageInfo)
	PushNotice(msg *entity.MessageInfo)
}

// session commands, processed one at a time by the run loop
type (
	cmdReload   struct{}
	cmdOpen     struct{ counterpartyId string }
	cmdClose    struct{}
	cmdMarkRead struct{ counterpartyId string }

	cmdBulkLoaded struct {
		epoch int64
		msgs  []*entity.Message
		err   error
	}
	cmdThreadLoaded struct {
		epoch          int64
		counterpartyId string
		msgs           []*entity.Message
		err            error
	}
)

// Session is the per-connection merge actor. All view mutations happen on
// its run goroutine; store fetches run async and post their results back as
// commands, guarded by epochs so a stale load never clobbers newer state.
type Session struct {
	userId   string
	view     *View
	store    ThreadStore
	profiles ProfileResolver
	sub      Subscriber
	sink     Sink

	cmds     chan interface{}
	results  chan interface{}
	events   <-chan *entity.Message
	cancel   func()
	stopChan chan struct{}

	bulkEpoch int64
	openEpoch int64
	loading   bool
	buffered  []*entity.Message
}

// NewSession creates a merge session for one connected user
func NewSession(userId string, store ThreadStore, profiles ProfileResolver, sub Subscriber, sink Sink, queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Session{
		userId:   userId,
		view:     NewView(userId),
		store:    store,
		profiles: profiles,
		sub:      sub,
		sink:     sink,
		cmds:     make(chan interface{}, queueSize),
		results:  make(chan interface{}, 16),
		stopChan: make(chan struct{}),
	}
}

// Start subscribes to the user's event feeds, launches the run loop and
// queues the initial bulk load.
func (s *Session) Start(ctx context.Context) error {
	events, cancel, err := s.sub.Subscribe(ctx, s.userId)
	if err != nil {
		return err
	}
	s.events = events
	s.cancel = cancel
	go s.run(ctx)
	s.Reload()
	return nil
}

// Stop terminates the session and its subscription
func (s *Session) Stop() {
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
}

// Reload queues a fresh bulk load
func (s *Session) Reload() {
	s.enqueue(cmdReload{})
}

// Open queues an open-conversation request
func (s *Session) Open(counterpartyId string) {
	s.enqueue(cmdOpen{counterpartyId: counterpartyId})
}

// CloseThread queues a close of the open conversation
func (s *Session) CloseThread() {
	s.enqueue(cmdClose{})
}

// MarkRead queues a mark-read of the given conversation
func (s *Session) MarkRead(counterpartyId string) {
	s.enqueue(cmdMarkRead{counterpartyId: counterpartyId})
}

func (s *Session) enqueue(cmd interface{}) {
	select {
	case s.cmds <- cmd:
	default:
		log.Warn("session command queue full, user: %s", s.userId)
	}
}

// postResult delivers an async fetch result to the run loop. Unlike client
// commands a completion must never be dropped (a lost bulk-load result would
// leave the session loading forever), so the send blocks until the run loop
// accepts it or the session stops.
func (s *Session) postResult(cmd interface{}) {
	select {
	case s.results <- cmd:
	case <-s.stopChan:
	}
}

func (s *Session) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case msg, ok := <-s.events:
			if !ok {
				// Subscription dropped. The client reconnects and the
				// fresh session's bulk load restores ground truth.
				log.CtxWarn(ctx, "event feed closed, user: %s", s.userId)
				return
			}
			s.handleEvent(ctx, msg)
		case cmd := <-s.results:
			s.handleCmd(ctx, cmd)
		case cmd := <-s.cmds:
			s.handleCmd(ctx, cmd)
		}
	}
}

// handleEvent classifies and merges one realtime event
func (s *Session) handleEvent(ctx context.Context, msg *entity.Message) {
	if s.loading {
		// Replayed after the in-flight bulk load lands, so live events
		// racing the load snapshot are never lost
		s.buffered = append(s.buffered, msg)
	}

	if s.view.Apply(msg) == ApplyDiscarded {
		return
	}

	open := s.view.OpenWith()
	if open != "" && !msg.Hidden && msg.Counterparty(s.userId) == open {
		s.sink.PushMessage(msg.ToMessageInfo())
		// An open conversation stays read
		if msg.Inbound(s.userId) && !msg.Read {
			s.markRead(ctx, open)
		}
	} else if !msg.Hidden && msg.Inbound(s.userId) {
		// Inbound outside the open conversation surfaces as a notice
		s.sink.PushNotice(msg.ToMessageInfo())
	}

	s.pushSummaries(ctx)
}

func (s *Session) handleCmd(ctx context.Context, cmd interface{}) {
	switch c := cmd.(type) {
	case cmdReload:
		s.bulkEpoch++
		s.loading = true
		s.buffered = nil
		epoch := s.bulkEpoch
		go func() {
			msgs, err := s.store.ListVisible(ctx, s.userId)
			s.postResult(cmdBulkLoaded{epoch: epoch, msgs: msgs, err: err})
		}()

	case cmdBulkLoaded:
		if c.epoch != s.bulkEpoch {
			return
		}
		s.loading = false
		if c.err != nil {
			log.CtxError(ctx, "bulk load failed, user: %s, err: %v", s.userId, c.err)
			s.buffered = nil
			return
		}
		s.view.ResetAll(c.msgs)
		for _, msg := range s.buffered {
			s.view.Apply(msg)
		}
		s.buffered = nil
		s.pushSummaries(ctx)

	case cmdOpen:
		if c.counterpartyId == "" || c.counterpartyId == s.userId {
			log.CtxDebug(ctx, "ignoring open of invalid counterparty: %s", c.counterpartyId)
			return
		}
		s.openEpoch++
		epoch := s.openEpoch
		counterpartyId := c.counterpartyId
		go func() {
			var msgs []*entity.Message
			var err error
			if counterpartyId == constant.AssistantUserId {
				msgs, err = s.store.ListAssistant(ctx, s.userId)
			} else {
				msgs, err = s.store.ListBetween(ctx, s.userId, counterpartyId)
			}
			s.postResult(cmdThreadLoaded{epoch: epoch, counterpartyId: counterpartyId, msgs: msgs, err: err})
		}()

	case cmdThreadLoaded:
		if c.epoch != s.openEpoch {
			// A newer open superseded this fetch
			return
		}
		if c.err != nil {
			log.CtxError(ctx, "thread load failed, counterparty: %s, err: %v", c.counterpartyId, c.err)
			return
		}
		s.view.OpenThread(c.counterpartyId, c.msgs)
		s.markRead(ctx, c.counterpartyId)

		infos := make([]*entity.MessageInfo, 0, len(s.view.OpenMessages()))
		for _, msg := range s.view.OpenMessages() {
			infos = append(infos, msg.ToMessageInfo())
		}
		s.sink.PushThread(c.counterpartyId, infos)
		s.pushSummaries(ctx)

	case cmdClose:
		s.openEpoch++
		s.view.CloseThread()

	case cmdMarkRead:
		if c.counterpartyId == "" {
			return
		}
		s.markRead(ctx, c.counterpartyId)
		s.pushSummaries(ctx)
	}
}

// markRead flags the conversation read both in the store and locally.
// Store failure degrades silently; the next reload self-heals.
func (s *Session) markRead(ctx context.Context, counterpartyId string) {
	if _, err := s.store.MarkConversationRead(ctx, s.userId, counterpartyId); err != nil {
		log.CtxWarn(ctx, "mark read failed, counterparty: %s, err: %v", counterpartyId, err)
	}
	s.view.MarkConversationRead(counterpartyId)
}

// pushSummaries derives the ordered conversation list, resolves profiles
// and pushes it to the client
func (s *Session) pushSummaries(ctx context.Context) {
	convs := s.view.Summaries()
	ids := make([]string, 0, len(convs))
	for _, conv := range convs {
		ids = append(ids, conv.CounterpartyId)
	}
	profiles := s.profiles.GetProfiles(ctx, ids)

	infos := make([]*entity.ConversationInfo, 0, len(convs))
	for _, conv := range convs {
		conv.Profile = profiles[conv.CounterpartyId]
		infos = append(infos, conv.ToConversationInfo())
	}
	s.sink.PushConversations(infos)
}
