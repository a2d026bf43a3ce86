package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mbeoliero/stayline/internal/middleware"
	"github.com/mbeoliero/stayline/internal/service"
	"github.com/mbeoliero/stayline/pkg/errcode"
	"github.com/mbeoliero/stayline/pkg/response"
)

// MessageHandler handles message-related requests
type MessageHandler struct {
	msgService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgService *service.MessageService) *MessageHandler {
	return &MessageHandler{msgService: msgService}
}

// SendMessage handles send message request
func (h *MessageHandler) SendMessage(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.SendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msg, err := h.msgService.SendMessage(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	// Assistant sends return no row; the chat endpoint wrote it and the
	// client refetches the thread
	if msg == nil {
		response.Success(ctx, c, nil)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"server_msg_id": msg.Id,
		"client_msg_id": msg.ClientMsgId,
		"created_at":    msg.CreatedAt,
	})
}
