package sdk

import (
	"context"

	"github.com/mbeoliero/stayline/common"
)

// GetUserInfo fetches the authenticated user's profile
func (c *Client) GetUserInfo(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/user/info", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserInfoById fetches another user's profile
func (c *Client) GetUserInfoById(ctx context.Context, userId string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/user/info/"+userId, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// MsgUserIdFor converts a marketplace user id and role into the messaging
// user id used by this API
func MsgUserIdFor(id int64, role string) (string, error) {
	actor := common.Actor{Id: id, Role: common.RoleType(role)}
	return actor.ToMsgUserId()
}
