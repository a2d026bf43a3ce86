package gateway

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/internal/stream"
)

// Client represents a connected WebSocket client. It owns one merge
// session and acts as its push sink.
type Client struct {
	mu         sync.Mutex
	conn       ClientConn
	UserId     string
	PlatformId int
	Token      string
	ConnId     string
	server     *WsServer
	session    *stream.Session
	closed     atomic.Bool
	closedErr  error
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewClient creates a new client
func NewClient(conn ClientConn, userId string, platformId int, token, connId string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:       conn,
		UserId:     userId,
		PlatformId: platformId,
		Token:      token,
		ConnId:     connId,
		server:     server,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetSession attaches the merge session. Called before the read loop starts.
func (c *Client) SetSession(session *stream.Session) {
	c.session = session
}

// Session returns the attached merge session
func (c *Client) Session() *stream.Session {
	return c.session
}

// readLoop continuously reads messages from the connection
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.CtxError(c.ctx, "client read loop panic: user_id=%s, error=%v", c.UserId, r)
		}
		c.close()
	}()

	for {
		message, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}

		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}

		if err := c.handleMessage(message); err != nil {
			log.CtxWarn(c.ctx, "handle message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}
	}
}

// handleMessage handles a single incoming message
func (c *Client) handleMessage(message []byte) error {
	var req WSRequest
	if err := Decode(message, &req); err != nil {
		return c.replyError(&req, ErrInvalidProtocol)
	}

	// Validate sender Id matches authenticated user
	if req.SendId != "" && req.SendId != c.UserId {
		return c.replyError(&req, ErrUserIdMismatch)
	}

	log.CtxDebug(c.ctx, "received message: req_identifier=%d, user_id=%s", req.ReqIdentifier, c.UserId)

	var resp []byte
	var err error

	switch req.ReqIdentifier {
	case WSListConversations:
		c.session.Reload()
	case WSOpenConversation:
		resp, err = c.handleOpenConversation(&req)
	case WSCloseConversation:
		c.session.CloseThread()
	case WSSendMsg:
		resp, err = c.server.HandleSendMsg(c.ctx, c, &req)
	case WSMarkRead:
		resp, err = c.server.HandleMarkRead(c.ctx, c, &req)
	default:
		return c.replyError(&req, ErrInvalidProtocol)
	}

	return c.reply(&req, err, resp)
}

// handleOpenConversation queues an open on the merge session. The thread
// arrives as a push frame once the fetch lands.
func (c *Client) handleOpenConversation(req *WSRequest) ([]byte, error) {
	var openReq OpenConversationReq
	if err := Decode(req.Data, &openReq); err != nil {
		return nil, ErrInvalidProtocol
	}
	if openReq.CounterpartyId == "" {
		return nil, ErrInvalidProtocol
	}
	c.session.Open(openReq.CounterpartyId)
	return nil, nil
}

// reply sends a response to the client
func (c *Client) reply(req *WSRequest, err error, data []byte) error {
	resp := WSResponse{
		ReqIdentifier: req.ReqIdentifier,
		MsgIncr:       req.MsgIncr,
		OperationId:   req.OperationId,
		Data:          data,
	}

	if err != nil {
		resp.ErrCode = 1
		resp.ErrMsg = err.Error()
	}

	return c.writeResponse(resp)
}

// replyError sends an error response
func (c *Client) replyError(req *WSRequest, err error) error {
	resp := WSResponse{
		ReqIdentifier: req.ReqIdentifier,
		MsgIncr:       req.MsgIncr,
		OperationId:   req.OperationId,
		ErrCode:       1,
		ErrMsg:        err.Error(),
	}
	return c.writeResponse(resp)
}

// writeResponse writes a response to the connection
func (c *Client) writeResponse(resp WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	data, err := Encode(resp)
	if err != nil {
		return err
	}

	return c.conn.WriteMessage(data)
}

// PushConversations pushes the derived conversation list
func (c *Client) PushConversations(convs []*entity.ConversationInfo) {
	data, err := Encode(&PushConversationsData{Conversations: convs})
	if err != nil {
		log.CtxWarn(c.ctx, "encode conversations push failed: %v", err)
		return
	}
	if err := c.writeResponse(WSResponse{ReqIdentifier: WSPushConversations, Data: data}); err != nil {
		log.CtxDebug(c.ctx, "push conversations failed: user_id=%s, err=%v", c.UserId, err)
	}
}

// PushThread pushes the contents of an opened conversation
func (c *Client) PushThread(counterpartyId string, msgs []*entity.MessageInfo) {
	data, err := Encode(&PushThreadData{CounterpartyId: counterpartyId, Messages: msgs})
	if err != nil {
		log.CtxWarn(c.ctx, "encode thread push failed: %v", err)
		return
	}
	if err := c.writeResponse(WSResponse{ReqIdentifier: WSPushThread, Data: data}); err != nil {
		log.CtxDebug(c.ctx, "push thread failed: user_id=%s, err=%v", c.UserId, err)
	}
}

// PushMessage pushes a single message into the open thread
func (c *Client) PushMessage(msg *entity.MessageInfo) {
	data, err := Encode(&PushMsgData{Message: msg})
	if err != nil {
		log.CtxWarn(c.ctx, "encode message push failed: %v", err)
		return
	}
	if err := c.writeResponse(WSResponse{ReqIdentifier: WSPushMsg, Data: data}); err != nil {
		log.CtxDebug(c.ctx, "push message failed: user_id=%s, err=%v", c.UserId, err)
	}
}

// PushNotice pushes a transient notice for an inbound message landing
// outside the open conversation
func (c *Client) PushNotice(msg *entity.MessageInfo) {
	data, err := Encode(&PushNoticeData{Message: msg})
	if err != nil {
		log.CtxWarn(c.ctx, "encode notice push failed: %v", err)
		return
	}
	if err := c.writeResponse(WSResponse{ReqIdentifier: WSPushNotice, Data: data}); err != nil {
		log.CtxDebug(c.ctx, "push notice failed: user_id=%s, err=%v", c.UserId, err)
	}
}

// KickOnline sends kick message and closes connection
func (c *Client) KickOnline() error {
	resp := WSResponse{
		ReqIdentifier: WSKickOnlineMsg,
	}
	c.writeResponse(resp)
	return c.Close()
}

// Close closes the client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	c.closed.Store(true)
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	c.Close()
	c.server.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
