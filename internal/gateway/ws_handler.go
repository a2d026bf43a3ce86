package gateway

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/pkg/jwt"
)

// HandleHertzConnection handles a WebSocket connection from Hertz using hertz-contrib/websocket
func (s *WsServer) HandleHertzConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	// Check connection limit
	if s.onlineConnNum.Load() >= s.maxConnNum {
		c.String(503, "connection limit exceeded")
		return
	}

	// Parse query parameters
	token := string(c.Query(QueryToken))
	sendId := string(c.Query(QuerySendId))
	platformIdStr := string(c.Query(QueryPlatformId))

	if token == "" || sendId == "" {
		c.String(400, "missing required parameters")
		return
	}

	platformId := 0
	if platformIdStr != "" {
		platformId, _ = strconv.Atoi(platformIdStr)
	}

	claims, err := s.validateToken(token, sendId)
	if err != nil {
		log.CtxDebug(ctx, "token validation failed: send_id=%s, error=%v", sendId, err)
		c.String(401, "unauthorized")
		return
	}
	if platformId == 0 {
		platformId = claims.PlatformId
	}

	// Upgrade connection using hertz-contrib/websocket
	err = upgrader.Upgrade(c, func(conn *websocket.Conn) {
		connId := uuid.New().String()
		wsConn := NewHertzWebSocketClientConn(conn, s.cfg.WebSocket.MaxMessageSize, s.cfg.WebSocket.WriteChannelSize, PongWait, PingPeriod)
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

		// Blocking message loop
		client.readLoop()
	})

	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}
}

// validateToken accepts tokens minted by this service or, when enabled,
// by the marketplace auth service
func (s *WsServer) validateToken(token, sendId string) (*jwt.Claims, error) {
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil && s.cfg.ExternalJWT.Enabled {
		claims, err = jwt.ParseExternalToken(token, s.cfg.ExternalJWT.Secret,
			s.cfg.ExternalJWT.DefaultRole, s.cfg.ExternalJWT.DefaultPlatformId)
	}
	if err != nil {
		return nil, err
	}
	if claims.UserId != sendId {
		return nil, ErrUserIdMismatch
	}
	return claims, nil
}
