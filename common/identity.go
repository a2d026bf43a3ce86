package common

import (
	"fmt"
	"strconv"
)

const (
	PrefixLength = 4
)

// RoleType defines the actor role in the marketplace.
type RoleType string

const (
	RoleHost     RoleType = "host"
	RoleCreator  RoleType = "creator"
	RoleTraveler RoleType = "traveler"
	RoleManager  RoleType = "manager"
)

// Actor represents a marketplace identity that maps to a messaging user id.
type Actor struct {
	Id   int64
	Role RoleType
}

// ToMsgUserId converts an Actor to the messaging system's string user id.
//
//	Actor{Id: 42, Role: RoleHost}.ToMsgUserId()     => "ho__42"
//	Actor{Id: 7, Role: RoleTraveler}.ToMsgUserId()  => "tr__7"
func (a *Actor) ToMsgUserId() (string, error) {
	switch a.Role {
	case RoleHost:
		return fmt.Sprintf("ho__%d", a.Id), nil
	case RoleCreator:
		return fmt.Sprintf("cr__%d", a.Id), nil
	case RoleTraveler:
		return fmt.Sprintf("tr__%d", a.Id), nil
	case RoleManager:
		return fmt.Sprintf("mg__%d", a.Id), nil
	default:
		return "", fmt.Errorf("failed to transfer actor to user id, role: %s", a.Role)
	}
}

// FromMsgUserId parses a messaging user id string back into an Actor.
// Returns an error if the format is unrecognised.
func (a *Actor) FromMsgUserId(userId string) error {
	if a == nil {
		return fmt.Errorf("actor is nil")
	}
	if len(userId) < PrefixLength+1 {
		return fmt.Errorf("invalid userId: %q", userId)
	}
	prefix := userId[:PrefixLength]
	idStr := userId[PrefixLength:]
	switch prefix {
	case "ho__":
		a.Role = RoleHost
	case "cr__":
		a.Role = RoleCreator
	case "tr__":
		a.Role = RoleTraveler
	case "mg__":
		a.Role = RoleManager
	default:
		return fmt.Errorf("unknown prefix: %q", prefix)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id: %q", idStr)
	}
	a.Id = id
	return nil
}
