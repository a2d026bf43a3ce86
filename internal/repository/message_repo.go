package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, rdb *redis.Client) *MessageRepo {
	return &MessageRepo{db: db, rdb: rdb}
}

// visible scopes a query to rows the UI is allowed to see
func visible(db *gorm.DB) *gorm.DB {
	return db.Where("hidden_from_ui = ?", false)
}

// Create creates a new message
func (r *MessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *entity.Message) error {
	now := entity.NowUnixMilli()
	if msg.CreatedAt == 0 {
		msg.CreatedAt = now
	}
	msg.UpdatedAt = now
	return tx.WithContext(ctx).Create(msg).Error
}

// GetById gets message by Id
func (r *MessageRepo) GetById(ctx context.Context, id string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// GetByClientMsgId gets message by sender_id and client_msg_id (for idempotency check)
func (r *MessageRepo) GetByClientMsgId(ctx context.Context, senderId, clientMsgId string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND client_msg_id = ?", senderId, clientMsgId).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListVisible lists every visible message the user participates in,
// oldest first. This is the bulk-load ground truth the summaries are
// derived from.
func (r *MessageRepo) ListVisible(ctx context.Context, userId string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := visible(r.db.WithContext(ctx)).
		Where("sender_id = ? OR receiver_id = ?", userId, userId).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListBetween lists visible messages exchanged between two users, oldest first
func (r *MessageRepo) ListBetween(ctx context.Context, userId, otherId string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := visible(r.db.WithContext(ctx)).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userId, otherId, otherId, userId).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListAssistant lists the assistant thread for a user: system-authored
// messages addressed to them plus their own self-notes, oldest first.
func (r *MessageRepo) ListAssistant(ctx context.Context, userId string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := visible(r.db.WithContext(ctx)).
		Where("(sender_id IS NULL AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userId, userId, userId).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationRead flags every unread inbound message from otherId to
// userId as read. Idempotent: a second call matches zero rows.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, userId, otherId string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("receiver_id = ? AND `read` = ?", userId, false)
	if otherId == constant.AssistantUserId {
		q = q.Where("sender_id IS NULL")
	} else {
		q = q.Where("sender_id = ?", otherId)
	}
	res := q.Updates(map[string]interface{}{
		"read":       true,
		"updated_at": entity.NowUnixMilli(),
	})
	return res.RowsAffected, res.Error
}

// CountUnread counts visible unread inbound messages for a user
func (r *MessageRepo) CountUnread(ctx context.Context, userId string) (int64, error) {
	var count int64
	err := visible(r.db.WithContext(ctx).Model(&entity.Message{})).
		Where("receiver_id = ? AND `read` = ? AND (sender_id IS NULL OR sender_id != ?)",
			userId, false, userId).
		Count(&count).Error
	return count, err
}

// Publish fans the stored row out on both per-user event channels. Either
// end subscribed sees the insert; everyone else's filter never matches.
func (r *MessageRepo) Publish(ctx context.Context, msg *entity.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	inChan := fmt.Sprintf(constant.RedisChanInbound(), msg.ReceiverId)
	if err := r.rdb.Publish(ctx, inChan, payload).Err(); err != nil {
		log.CtxWarn(ctx, "publish inbound event failed, chan: %s, err: %v", inChan, err)
		return err
	}

	if msg.SenderId != nil {
		outChan := fmt.Sprintf(constant.RedisChanOutbound(), *msg.SenderId)
		if err := r.rdb.Publish(ctx, outChan, payload).Err(); err != nil {
			log.CtxWarn(ctx, "publish outbound event failed, chan: %s, err: %v", outChan, err)
			return err
		}
	}
	return nil
}
