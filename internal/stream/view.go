package stream

import (
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/internal/service"
)

// ApplyResult classifies the effect of one event on the view
type ApplyResult int

const (
	// ApplyDiscarded means the event had no effect (hidden or unchanged)
	ApplyDiscarded ApplyResult = iota
	// ApplyUpdated means summaries changed
	ApplyUpdated
)

// View is the in-memory per-session state: the deduplicated message set
// plus the currently open thread. It is owned by a single session goroutine
// and is not safe for concurrent use.
//
// Summaries are always derived from the message set, so applying the same
// event twice, or interleaving a bulk load with live events, converges to
// the same state as a clean reload.
type View struct {
	selfId string
	msgs   map[string]*entity.Message

	openWith string
	openIds  map[string]struct{}
	openMsgs []*entity.Message
}

// NewView creates a View for selfId
func NewView(selfId string) *View {
	return &View{
		selfId: selfId,
		msgs:   make(map[string]*entity.Message),
	}
}

// ResetAll replaces the message set with a fresh bulk load. The loaded
// set is ground truth; anything merged before it is superseded.
func (v *View) ResetAll(messages []*entity.Message) {
	v.msgs = make(map[string]*entity.Message, len(messages))
	for _, msg := range messages {
		if msg.Hidden {
			continue
		}
		v.msgs[msg.Id] = msg
	}
}

// Apply merges one realtime event into the view. Hidden rows are discarded
// terminally. A row with a known id replaces the stored one only when it
// actually differs (read flag or booking status transitions).
func (v *View) Apply(msg *entity.Message) ApplyResult {
	if msg.Hidden {
		if _, ok := v.msgs[msg.Id]; !ok {
			return ApplyDiscarded
		}
		delete(v.msgs, msg.Id)
		v.removeFromOpen(msg.Id)
		return ApplyUpdated
	}

	if prev, ok := v.msgs[msg.Id]; ok {
		if prev.Read == msg.Read && prev.BookingStatus == msg.BookingStatus {
			return ApplyDiscarded
		}
		v.msgs[msg.Id] = msg
		v.replaceInOpen(msg)
		return ApplyUpdated
	}

	v.msgs[msg.Id] = msg
	if v.openWith != "" && msg.Counterparty(v.selfId) == v.openWith {
		v.appendToOpen(msg)
	}
	return ApplyUpdated
}

// Summaries derives the full ordered conversation list from the message set
func (v *View) Summaries() []*entity.Conversation {
	msgs := make([]*entity.Message, 0, len(v.msgs))
	for _, m := range v.msgs {
		msgs = append(msgs, m)
	}
	return service.Aggregate(v.selfId, msgs)
}

// OpenThread installs the fetched thread for a counterparty
func (v *View) OpenThread(counterpartyId string, messages []*entity.Message) {
	v.openWith = counterpartyId
	v.openIds = make(map[string]struct{}, len(messages))
	v.openMsgs = make([]*entity.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Hidden {
			continue
		}
		v.openIds[msg.Id] = struct{}{}
		v.openMsgs = append(v.openMsgs, msg)
	}
	entity.SortMessagesAsc(v.openMsgs)
}

// CloseThread clears the open thread state
func (v *View) CloseThread() {
	v.openWith = ""
	v.openIds = nil
	v.openMsgs = nil
}

// OpenWith returns the currently open counterparty, empty when none
func (v *View) OpenWith() string {
	return v.openWith
}

// OpenMessages returns the open thread, oldest first
func (v *View) OpenMessages() []*entity.Message {
	return v.openMsgs
}

// MarkConversationRead mirrors the store-side bulk mark-read locally so
// the derived unread count drops to zero without waiting for a reload.
func (v *View) MarkConversationRead(counterpartyId string) {
	for id, msg := range v.msgs {
		if msg.Counterparty(v.selfId) != counterpartyId {
			continue
		}
		if msg.Inbound(v.selfId) && !msg.Read {
			clone := *msg
			clone.Read = true
			v.msgs[id] = &clone
			v.replaceInOpen(&clone)
		}
	}
}

// appendToOpen inserts a new message into the open thread, keeping order.
// Events can arrive out of order relative to created_at.
func (v *View) appendToOpen(msg *entity.Message) {
	if _, ok := v.openIds[msg.Id]; ok {
		return
	}
	v.openIds[msg.Id] = struct{}{}
	v.openMsgs = append(v.openMsgs, msg)
	entity.SortMessagesAsc(v.openMsgs)
}

// replaceInOpen swaps an updated row into the open thread in place
func (v *View) replaceInOpen(msg *entity.Message) {
	if v.openIds == nil {
		return
	}
	if _, ok := v.openIds[msg.Id]; !ok {
		return
	}
	for i, m := range v.openMsgs {
		if m.Id == msg.Id {
			v.openMsgs[i] = msg
			return
		}
	}
}

// removeFromOpen drops a row from the open thread
func (v *View) removeFromOpen(id string) {
	if v.openIds == nil {
		return
	}
	if _, ok := v.openIds[id]; !ok {
		return
	}
	delete(v.openIds, id)
	for i, m := range v.openMsgs {
		if m.Id == id {
			v.openMsgs = append(v.openMsgs[:i], v.openMsgs[i+1:]...)
			return
		}
	}
}
