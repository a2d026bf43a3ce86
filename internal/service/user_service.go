package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/internal/repository"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/mbeoliero/stayline/pkg/errcode"
)

// UserService handles user-related business logic
type UserService struct {
	userRepo *repository.UserRepo
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repository.UserRepo) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUserInfo gets a user's display profile. The assistant sentinel is
// served from its hardcoded identity.
func (s *UserService) GetUserInfo(ctx context.Context, userId string) (*entity.Profile, error) {
	if userId == constant.AssistantUserId {
		return entity.AssistantProfile(), nil
	}

	user, err := s.userRepo.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed, id: %s, err: %v", userId, err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	return user.ToProfile(), nil
}
