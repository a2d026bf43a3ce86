package service

import (
	"context"
	"sort"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/internal/repository"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/mbeoliero/stayline/pkg/errcode"
)

// ConversationService derives conversation summaries from the message set
type ConversationService struct {
	msgRepo  *repository.MessageRepo
	userRepo *repository.UserRepo
	repos    *repository.Repositories
}

// NewConversationService creates a new ConversationService
func NewConversationService(repos *repository.Repositories) *ConversationService {
	return &ConversationService{
		msgRepo:  repos.Message,
		userRepo: repos.User,
		repos:    repos,
	}
}

// Aggregate folds a flat message list into per-counterparty summaries.
// Pure function of its input: the bulk load and the realtime merge layer
// both rely on it producing identical results for identical message sets.
//
// System messages and self-notes land in the synthetic assistant
// conversation. A message sent by self never counts toward self's unread.
func Aggregate(selfId string, messages []*entity.Message) []*entity.Conversation {
	byCounterparty := make(map[string]*entity.Conversation)
	seen := make(map[string]struct{}, len(messages))

	for _, msg := range messages {
		if msg.Hidden {
			continue
		}
		if _, dup := seen[msg.Id]; dup {
			continue
		}
		seen[msg.Id] = struct{}{}
		key := msg.Counterparty(selfId)
		conv, ok := byCounterparty[key]
		if !ok {
			conv = &entity.Conversation{CounterpartyId: key}
			byCounterparty[key] = conv
		}
		if entity.Newer(msg, conv.LastMessage) {
			conv.LastMessage = msg
		}
		if msg.Inbound(selfId) && !msg.Read {
			conv.UnreadCount++
		}
	}

	convs := make([]*entity.Conversation, 0, len(byCounterparty))
	for _, conv := range byCounterparty {
		convs = append(convs, conv)
	}

	// Most recent first, counterparty id breaks ties deterministically
	sort.Slice(convs, func(i, j int) bool {
		a, b := convs[i].LastMessage, convs[j].LastMessage
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return convs[i].CounterpartyId < convs[j].CounterpartyId
	})
	return convs
}

// ListConversations loads the full visible message set for a user and
// aggregates it into summaries with resolved counterparty profiles.
func (s *ConversationService) ListConversations(ctx context.Context, userId string) ([]*entity.Conversation, error) {
	messages, err := s.msgRepo.ListVisible(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list visible messages failed: %v", err)
		return nil, errcode.ErrLoadFailed
	}

	convs := Aggregate(userId, messages)

	ids := make([]string, 0, len(convs))
	for _, conv := range convs {
		ids = append(ids, conv.CounterpartyId)
	}
	profiles := s.userRepo.GetProfiles(ctx, ids)
	for _, conv := range convs {
		conv.Profile = profiles[conv.CounterpartyId]
	}

	return convs, nil
}

// OpenConversation fetches the full thread with a counterparty and marks
// inbound unread messages as read. The mark-read write is best-effort:
// its failure degrades silently and the next reload self-heals.
func (s *ConversationService) OpenConversation(ctx context.Context, userId, counterpartyId string) ([]*entity.Message, error) {
	if counterpartyId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if counterpartyId == userId {
		return nil, errcode.ErrSelfConversation
	}

	var messages []*entity.Message
	var err error
	if counterpartyId == constant.AssistantUserId {
		messages, err = s.msgRepo.ListAssistant(ctx, userId)
	} else {
		messages, err = s.msgRepo.ListBetween(ctx, userId, counterpartyId)
	}
	if err != nil {
		log.CtxError(ctx, "open conversation failed, counterparty: %s, err: %v", counterpartyId, err)
		return nil, errcode.ErrLoadFailed
	}

	if n, err := s.msgRepo.MarkConversationRead(ctx, userId, counterpartyId); err != nil {
		log.CtxWarn(ctx, "mark conversation read failed, counterparty: %s, err: %v", counterpartyId, err)
	} else if n > 0 {
		log.CtxDebug(ctx, "marked %d messages read, user: %s, counterparty: %s", n, userId, counterpartyId)
	}

	return messages, nil
}

// MarkRead flags the conversation with counterpartyId as fully read
func (s *ConversationService) MarkRead(ctx context.Context, userId, counterpartyId string) error {
	if counterpartyId == "" {
		return errcode.ErrInvalidParam
	}
	if _, err := s.msgRepo.MarkConversationRead(ctx, userId, counterpartyId); err != nil {
		log.CtxError(ctx, "mark read failed, counterparty: %s, err: %v", counterpartyId, err)
		return errcode.ErrInternalServer
	}
	return nil
}
