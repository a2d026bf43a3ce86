package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/common"
	"github.com/mbeoliero/stayline/internal/config"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/pkg/constant"
)

const signatureHeader = "X-Stayline-Signature"

// Notification is the payload posted to the push-notification endpoint
type Notification struct {
	UserId    string `json:"user_id"`
	Type      string `json:"type"`
	MessageId string `json:"message_id"`
	SenderId  string `json:"sender_id,omitempty"`
	Preview   string `json:"preview"`
	CreatedAt int64  `json:"created_at"`
}

// Dispatcher delivers push notifications through a bounded queue and a
// fixed worker pool. Delivery is fire-and-forget: a full queue drops the
// notification, a failed POST is logged and abandoned.
type Dispatcher struct {
	baseURL    string
	secret     string
	httpClient *client.Client
	queue      chan *Notification
	workerNum  int
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(cfg *config.NotifyConfig) (*Dispatcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient, err := client.NewClient(
		client.WithDialTimeout(5*time.Second),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return &Dispatcher{
		baseURL:    cfg.BaseURL,
		secret:     cfg.Secret,
		httpClient: httpClient,
		queue:      make(chan *Notification, cfg.QueueSize),
		workerNum:  cfg.WorkerNum,
	}, nil
}

// Run starts the dispatch workers
func (d *Dispatcher) Run(ctx context.Context) {
	workerNum := d.workerNum
	if workerNum <= 0 {
		workerNum = 4
	}
	for i := 0; i < workerNum; i++ {
		go d.dispatchLoop(ctx)
	}
	log.Info("started %d notify workers", workerNum)
}

// AsyncNotify queues a notification for a newly stored message
func (d *Dispatcher) AsyncNotify(userId string, msg *entity.Message) {
	n := &Notification{
		UserId:    userId,
		Type:      constant.NotifyTypeNewMessage,
		MessageId: msg.Id,
		Preview:   preview(msg.Content),
		CreatedAt: msg.CreatedAt,
	}
	if msg.SenderId != nil {
		n.SenderId = *msg.SenderId
	}
	if msg.BookingRequest != nil {
		n.Type = constant.NotifyTypeBookingRequest
	}

	select {
	case d.queue <- n:
	default:
		log.Warn("notify queue full, notification dropped: user_id=%s, message_id=%s", userId, msg.Id)
	}
}

// dispatchLoop drains the queue until the context is cancelled
func (d *Dispatcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			if err := d.post(ctx, n); err != nil {
				log.CtxWarn(ctx, "notification dispatch failed: user_id=%s, message_id=%s, err=%v",
					n.UserId, n.MessageId, err)
			}
		}
	}
}

// post signs and delivers one notification
func (d *Dispatcher) post(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req := &protocol.Request{}
	resp := &protocol.Response{}
	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(d.baseURL + "/notify")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, common.SignPayload(body, d.secret, 32))
	req.SetBody(body)

	if err := d.httpClient.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return fmt.Errorf("notify endpoint returned status %d", resp.StatusCode())
	}
	return nil
}

// preview truncates content for the notification body
func preview(content string) string {
	const maxLen = 120
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "…"
}
