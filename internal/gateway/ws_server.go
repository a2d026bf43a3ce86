package gateway

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/config"
	"github.com/mbeoliero/stayline/internal/repository"
	"github.com/mbeoliero/stayline/internal/service"
	"github.com/mbeoliero/stayline/internal/stream"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// WsServer is the WebSocket server. Each accepted connection gets its own
// merge session subscribed to the user's event feeds.
type WsServer struct {
	upgrader       *websocket.Upgrader
	cfg            *config.Config
	userMap        *UserMap
	registerChan   chan *Client
	unregisterChan chan *Client
	msgService     *service.MessageService
	subscriber     stream.Subscriber
	msgRepo        *repository.MessageRepo
	userRepo       *repository.UserRepo
	onlineUserNum  atomic.Int64
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, rdb *redis.Client, repos *repository.Repositories, msgService *service.MessageService) *WsServer {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return &WsServer{
		upgrader:       upgrader,
		cfg:            cfg,
		userMap:        NewUserMap(rdb),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		msgService:     msgService,
		subscriber:     stream.NewRedisSubscriber(rdb, cfg.WebSocket.EventQueueSize),
		msgRepo:        repos.Message,
		userRepo:       repos.User,
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}
}

// Run starts the WebSocket server event loop
func (s *WsServer) Run(ctx context.Context) {
	go s.eventLoop(ctx)
}

// eventLoop handles client registration, unregistration and presence upkeep
func (s *WsServer) eventLoop(ctx context.Context) {
	ticker := time.NewTicker(onlineTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		case <-ticker.C:
			s.userMap.RefreshAllOnline(ctx)
		}
	}
}

// newSession builds a merge session backed by the store and subscriber,
// pushing frames through the client
func (s *WsServer) newSession(client *Client) *stream.Session {
	return stream.NewSession(client.UserId, s.msgRepo, s.userRepo, s.subscriber, client,
		s.cfg.WebSocket.EventQueueSize)
}

// registerClient registers a client. One connection per user+platform: a
// newer login on the same platform kicks the older connection.
func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	existing, exists := s.userMap.GetAll(client.UserId)
	if !exists {
		s.onlineUserNum.Add(1)
	}

	for _, old := range existing {
		if old.PlatformId == client.PlatformId && old.ConnId != client.ConnId {
			log.CtxInfo(ctx, "kicking replaced connection: user_id=%s, platform_id=%d, conn_id=%s",
				old.UserId, old.PlatformId, old.ConnId)
			if err := old.KickOnline(); err != nil {
				log.CtxWarn(ctx, "kick failed: conn_id=%s, err=%v", old.ConnId, err)
			}
		}
	}

	s.userMap.Register(ctx, client)
	s.onlineConnNum.Add(1)

	log.CtxInfo(ctx, "client registered: user_id=%s, platform_id=%d, conn_id=%s, online_users=%d, online_conns=%d",
		client.UserId, client.PlatformId, client.ConnId, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// unregisterClient unregisters a client and stops its session
func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	if session := client.Session(); session != nil {
		session.Stop()
	}

	isUserOffline := s.userMap.Unregister(ctx, client)
	s.onlineConnNum.Add(-1)
	if isUserOffline {
		s.onlineUserNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, conn_id=%s, user_offline=%v, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, isUserOffline, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// HandleConnection handles a WebSocket connection on a plain net/http
// listener. Used when the gateway runs behind a standard mux instead of
// the Hertz server.
func (s *WsServer) HandleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if s.onlineConnNum.Load() >= s.maxConnNum {
		http.Error(w, "connection limit exceeded", http.StatusServiceUnavailable)
		return
	}

	token := r.URL.Query().Get(QueryToken)
	sendId := r.URL.Query().Get(QuerySendId)
	platformIdStr := r.URL.Query().Get(QueryPlatformId)

	if token == "" || sendId == "" {
		http.Error(w, "missing required parameters", http.StatusBadRequest)
		return
	}

	platformId := 0
	if platformIdStr != "" {
		platformId, _ = strconv.Atoi(platformIdStr)
	}

	claims, err := s.validateToken(token, sendId)
	if err != nil {
		log.CtxDebug(ctx, "token validation failed: send_id=%s, error=%v", sendId, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if platformId == 0 {
		platformId = claims.PlatformId
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}

	connId := uuid.New().String()
	wsConn := NewWebSocketClientConn(conn, s.cfg.WebSocket.MaxMessageSize, s.cfg.WebSocket.WriteChannelSize, PongWait, PingPeriod)
	client := NewClient(wsConn, claims.UserId, platformId, token, connId, s)

	// The merge session must be live before the first request is read
	session := s.newSession(client)
	client.SetSession(session)
	if err := session.Start(client.ctx); err != nil {
		log.CtxError(ctx, "start session failed: user_id=%s, error=%v", claims.UserId, err)
		client.Close()
		return
	}

	s.registerChan <- client

	go client.readLoop()
}

// GetOnlineUserCount returns online user count
func (s *WsServer) GetOnlineUserCount() int64 {
	return s.onlineUserNum.Load()
}

// GetOnlineConnCount returns online connection count
func (s *WsServer) GetOnlineConnCount() int64 {
	return s.onlineConnNum.Load()
}

// ========== Message Handlers ==========

// HandleSendMsg handles send message request
func (s *WsServer) HandleSendMsg(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var sendReq SendMsgReq
	if err := Decode(req.Data, &sendReq); err != nil {
		return nil, ErrInvalidProtocol
	}

	svcReq := &service.SendMessageRequest{
		ClientMsgId:    sendReq.ClientMsgId,
		ReceiverId:     sendReq.ReceiverId,
		Content:        sendReq.Content,
		BookingRequest: sendReq.BookingRequest,
	}

	msg, err := s.msgService.SendMessage(ctx, client.UserId, svcReq)
	if err != nil {
		return nil, err
	}

	resp := SendMsgResp{ClientMsgId: sendReq.ClientMsgId}
	if msg != nil {
		resp.ServerMsgId = msg.Id
		resp.CreatedAt = msg.CreatedAt
	} else if sendReq.ReceiverId == constant.AssistantUserId {
		// The chat endpoint wrote both rows; refetch the thread to pick
		// up the user's message and the reply
		client.Session().Open(constant.AssistantUserId)
	}

	return Encode(resp)
}

// HandleMarkRead handles mark read request
func (s *WsServer) HandleMarkRead(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var markReq MarkReadReq
	if err := Decode(req.Data, &markReq); err != nil {
		return nil, ErrInvalidProtocol
	}
	if markReq.CounterpartyId == "" {
		return nil, ErrInvalidProtocol
	}

	client.Session().MarkRead(markReq.CounterpartyId)
	return nil, nil
}
