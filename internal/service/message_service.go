package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/internal/repository"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/mbeoliero/stayline/pkg/errcode"
	"github.com/mbeoliero/stayline/pkg/idgen"
	"gorm.io/gorm"
)

// AssistantRelay forwards a user message to the assistant chat endpoint.
// The endpoint performs the store writes for both the user's message and
// the assistant's reply; the rows surface through a thread refetch.
type AssistantRelay interface {
	Relay(ctx context.Context, userId, content string) error
}

// Notifier dispatches best-effort push notifications for new messages
type Notifier interface {
	AsyncNotify(userId string, msg *entity.Message)
}

// MessageService handles message-related business logic
type MessageService struct {
	msgRepo   *repository.MessageRepo
	userRepo  *repository.UserRepo
	repos     *repository.Repositories
	idGen     idgen.IDGenerator
	assistant AssistantRelay
	notifier  Notifier
}

// NewMessageService creates a new MessageService
func NewMessageService(repos *repository.Repositories, idGen idgen.IDGenerator) *MessageService {
	return &MessageService{
		msgRepo:  repos.Message,
		userRepo: repos.User,
		repos:    repos,
		idGen:    idGen,
	}
}

// SetAssistantRelay sets the assistant chat relay
func (s *MessageService) SetAssistantRelay(relay AssistantRelay) {
	s.assistant = relay
}

// SetNotifier sets the push-notification dispatcher
func (s *MessageService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	ClientMsgId    string                 `json:"client_msg_id"`
	ReceiverId     string                 `json:"receiver_id"`
	Content        string                 `json:"content"`
	BookingRequest *entity.BookingRequest `json:"booking_request,omitempty"`
}

// SendMessage sends a message. For the assistant sentinel the content is
// relayed to the external chat endpoint instead of written here; the caller
// refetches the assistant thread to pick up both rows. For an ordinary
// counterparty the row is inserted unread and echoes back through the
// realtime event channels, never optimistically appended by the send path.
func (s *MessageService) SendMessage(ctx context.Context, senderId string, req *SendMessageRequest) (*entity.Message, error) {
	if req.ReceiverId == "" || req.Content == "" {
		return nil, errcode.ErrInvalidParam
	}
	if req.ClientMsgId == "" {
		return nil, errcode.ErrInvalidParam
	}

	if req.ReceiverId == constant.AssistantUserId {
		return nil, s.sendToAssistant(ctx, senderId, req.Content)
	}

	// Check for idempotency
	existingMsg, err := s.msgRepo.GetByClientMsgId(ctx, senderId, req.ClientMsgId)
	if err != nil {
		log.CtxError(ctx, "check idempotency failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if existingMsg != nil {
		// Return existing message (idempotent response)
		log.CtxDebug(ctx, "duplicate message: client_msg_id=%s", req.ClientMsgId)
		return existingMsg, nil
	}

	msgId, err := s.idGen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate message id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	msg := &entity.Message{
		Id:          msgId,
		ClientMsgId: req.ClientMsgId,
		SenderId:    &senderId,
		ReceiverId:  req.ReceiverId,
		Content:     req.Content,
		Read:        false,
	}
	if req.BookingRequest != nil {
		if err := msg.SetBookingRequest(req.BookingRequest); err != nil {
			return nil, errcode.ErrInvalidParam.Wrap(err)
		}
		msg.BookingStatus = constant.BookingStatusPending
	}

	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		return s.msgRepo.Create(ctx, tx, msg)
	})
	if err != nil {
		log.CtxError(ctx, "send message failed: %v", err)
		return nil, errcode.ErrSendFailed
	}

	// Fan out the insert event. Publish failure is not a send failure:
	// the row is durable and the next bulk load picks it up.
	if err := s.msgRepo.Publish(ctx, msg); err != nil {
		log.CtxWarn(ctx, "publish message event failed, id: %s, err: %v", msg.Id, err)
	}

	if s.notifier != nil {
		s.notifier.AsyncNotify(req.ReceiverId, msg)
	}

	log.CtxInfo(ctx, "message sent, sender: %s, receiver: %s, id: %s", senderId, req.ReceiverId, msg.Id)
	return msg, nil
}

// sendToAssistant relays the message to the assistant chat endpoint
func (s *MessageService) sendToAssistant(ctx context.Context, senderId, content string) error {
	if s.assistant == nil {
		return errcode.ErrAssistantUnavailable
	}
	if err := s.assistant.Relay(ctx, senderId, content); err != nil {
		log.CtxError(ctx, "assistant relay failed, user: %s, err: %v", senderId, err)
		return errcode.ErrAssistantUnavailable.Wrap(err)
	}
	log.CtxInfo(ctx, "assistant message relayed, user: %s", senderId)
	return nil
}
