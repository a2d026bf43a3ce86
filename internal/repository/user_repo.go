package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const profileCacheTTL = 10 * time.Minute

// UserRepo is the repository for user operations
type UserRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserRepo creates a new UserRepo
func NewUserRepo(db *gorm.DB, rdb *redis.Client) *UserRepo {
	return &UserRepo{db: db, rdb: rdb}
}

// Create creates a new user
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetById gets user by Id
func (r *UserRepo) GetById(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIds gets users by Ids
func (r *UserRepo) GetByIds(ctx context.Context, ids []string) ([]*entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*entity.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Exists checks if user exists
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetProfile resolves one display profile. See GetProfiles.
func (r *UserRepo) GetProfile(ctx context.Context, id string) *entity.Profile {
	return r.GetProfiles(ctx, []string{id})[id]
}

// GetProfiles resolves display profiles in bulk: Redis cache first, then the
// store for misses (filling the cache on the way out), then a placeholder per
// id still unresolved. Resolution degrades, it never fails.
func (r *UserRepo) GetProfiles(ctx context.Context, ids []string) map[string]*entity.Profile {
	out := make(map[string]*entity.Profile, len(ids))
	missing := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == constant.AssistantUserId {
			out[id] = entity.AssistantProfile()
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}

	missing = r.readProfileCache(ctx, missing, out)

	users, err := r.GetByIds(ctx, missing)
	if err != nil {
		log.CtxWarn(ctx, "bulk profile lookup failed, err: %v", err)
	}
	for _, u := range users {
		p := u.ToProfile()
		out[u.Id] = p
		r.writeProfileCache(ctx, u.Id, p)
	}
	for _, id := range missing {
		if _, ok := out[id]; !ok {
			out[id] = entity.PlaceholderProfile(id)
		}
	}
	return out
}

// readProfileCache fills out from cache hits and returns the ids that still
// need a store lookup
func (r *UserRepo) readProfileCache(ctx context.Context, ids []string, out map[string]*entity.Profile) []string {
	if r.rdb == nil || len(ids) == 0 {
		return ids
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileCacheKey(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.CtxWarn(ctx, "profile cache read failed, err: %v", err)
		return ids
	}
	return mergeCachedProfiles(ids, vals, out)
}

// mergeCachedProfiles decodes cached values into out, positionally matched
// to ids, and returns the ids with no decodable hit
func mergeCachedProfiles(ids []string, vals []interface{}, out map[string]*entity.Profile) []string {
	missing := make([]string, 0, len(ids))
	for i, id := range ids {
		if i < len(vals) {
			if s, ok := vals[i].(string); ok {
				var p entity.Profile
				if json.Unmarshal([]byte(s), &p) == nil && p.Id == id {
					out[id] = &p
					continue
				}
			}
		}
		missing = append(missing, id)
	}
	return missing
}

func (r *UserRepo) writeProfileCache(ctx context.Context, id string, p *entity.Profile) {
	if r.rdb == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, profileCacheKey(id), data, profileCacheTTL).Err(); err != nil {
		log.CtxWarn(ctx, "profile cache set failed, user: %s, err: %v", id, err)
	}
}

func profileCacheKey(id string) string {
	return fmt.Sprintf(constant.RedisKeyUserProfile(), id)
}
