package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorRoundTrip(t *testing.T) {
	cases := []struct {
		actor Actor
		want  string
	}{
		{Actor{Id: 42, Role: RoleHost}, "ho__42"},
		{Actor{Id: 7, Role: RoleCreator}, "cr__7"},
		{Actor{Id: 1, Role: RoleTraveler}, "tr__1"},
		{Actor{Id: 99, Role: RoleManager}, "mg__99"},
	}

	for _, c := range cases {
		got, err := c.actor.ToMsgUserId()
		require.NoError(t, err)
		assert.Equal(t, c.want, got)

		var parsed Actor
		require.NoError(t, parsed.FromMsgUserId(got))
		assert.Equal(t, c.actor, parsed)
	}
}

func TestActorUnknownRole(t *testing.T) {
	a := Actor{Id: 1, Role: "admin"}
	_, err := a.ToMsgUserId()
	assert.Error(t, err)
}

func TestFromMsgUserIdInvalid(t *testing.T) {
	var a Actor
	assert.Error(t, a.FromMsgUserId(""))
	assert.Error(t, a.FromMsgUserId("ho__"))
	assert.Error(t, a.FromMsgUserId("xx__42"))
	assert.Error(t, a.FromMsgUserId("ho__abc"))
}
