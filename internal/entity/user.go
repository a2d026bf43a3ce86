package entity

import "github.com/mbeoliero/stayline/pkg/constant"

// User represents a marketplace user known to the messaging system
type User struct {
	Id        string  `json:"id" gorm:"column:id;primaryKey"`
	Name      *string `json:"name" gorm:"column:name"`
	Avatar    *string `json:"avatar" gorm:"column:avatar"`
	Role      string  `json:"role" gorm:"column:role"`
	CreatedAt int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// Profile is the display identity attached to a conversation
type Profile struct {
	Id     string  `json:"id"`
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// ToProfile converts User to Profile
func (u *User) ToProfile() *Profile {
	return &Profile{
		Id:     u.Id,
		Name:   u.Name,
		Avatar: u.Avatar,
	}
}

// PlaceholderProfile is the fallback identity for counterparties that fail
// to resolve. Resolution failure is never allowed to drop a message.
func PlaceholderProfile(id string) *Profile {
	return &Profile{Id: id}
}

// AssistantProfile is the hardcoded identity of the assistant sentinel.
func AssistantProfile() *Profile {
	name := constant.AssistantName
	avatar := constant.AssistantAvatar
	return &Profile{
		Id:     constant.AssistantUserId,
		Name:   &name,
		Avatar: &avatar,
	}
}
