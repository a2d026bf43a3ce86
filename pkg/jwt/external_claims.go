package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/mbeoliero/stayline/common"
	"github.com/mbeoliero/stayline/pkg/errcode"
)

// ExternalClaims represents claims minted by the marketplace auth service.
// The external token carries an int user_id and a marketplace role which are
// converted to the messaging string user_id via common.Actor.
type ExternalClaims struct {
	UserId int64  `json:"user_id"`
	Role   string `json:"role,omitempty"` // "host", "traveler", etc. Falls back to configured default.
	jwt.RegisteredClaims
}

// ParseExternalToken parses a marketplace JWT token and converts it to the
// messaging system's Claims using Actor-based ID mapping.
//
// Parameters:
//   - tokenString: the raw JWT token from the marketplace
//   - secret: the signing secret of the marketplace auth service
//   - defaultRole: fallback role when the token doesn't carry one
//   - defaultPlatformId: platform ID to assign to the converted claims
func ParseExternalToken(tokenString, secret, defaultRole string, defaultPlatformId int) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ExternalClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	extClaims, ok := token.Claims.(*ExternalClaims)
	if !ok || !token.Valid {
		return nil, errcode.ErrTokenInvalid
	}

	// Determine role: prefer token's own role, fall back to config default
	role := common.RoleType(extClaims.Role)
	if extClaims.Role == "" {
		role = common.RoleType(defaultRole)
	}

	// Convert marketplace int ID → messaging string ID via Actor
	actor := common.Actor{Id: extClaims.UserId, Role: role}
	msgUserId, err := actor.ToMsgUserId()
	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	return &Claims{
		UserId:           msgUserId,
		PlatformId:       defaultPlatformId,
		RegisteredClaims: extClaims.RegisteredClaims,
	}, nil
}
