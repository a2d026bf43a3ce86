package repository

import (
	"testing"

	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedProfile(t *testing.T, id, name string) string {
	t.Helper()
	return `{"id":"` + id + `","name":"` + name + `","avatar":null}`
}

func TestMergeCachedProfilesHitsAndMisses(t *testing.T) {
	ids := []string{"ho__1", "tr__2", "cr__3"}
	vals := []interface{}{
		cachedProfile(t, "ho__1", "Alice"),
		nil,
		cachedProfile(t, "cr__3", "Carol"),
	}

	out := make(map[string]*entity.Profile)
	missing := mergeCachedProfiles(ids, vals, out)

	assert.Equal(t, []string{"tr__2"}, missing)
	require.Contains(t, out, "ho__1")
	require.Contains(t, out, "cr__3")
	require.NotNil(t, out["ho__1"].Name)
	assert.Equal(t, "Alice", *out["ho__1"].Name)
}

func TestMergeCachedProfilesRejectsBadEntries(t *testing.T) {
	ids := []string{"ho__1", "tr__2", "cr__3"}
	vals := []interface{}{
		"not json",
		cachedProfile(t, "ho__9", "Mallory"), // id mismatch, positional slot for tr__2
		cachedProfile(t, "cr__3", "Carol"),
	}

	out := make(map[string]*entity.Profile)
	missing := mergeCachedProfiles(ids, vals, out)

	assert.Equal(t, []string{"ho__1", "tr__2"}, missing)
	assert.Len(t, out, 1)
}

func TestMergeCachedProfilesShortValueSlice(t *testing.T) {
	ids := []string{"ho__1", "tr__2"}
	vals := []interface{}{cachedProfile(t, "ho__1", "Alice")}

	out := make(map[string]*entity.Profile)
	missing := mergeCachedProfiles(ids, vals, out)

	assert.Equal(t, []string{"tr__2"}, missing)
	assert.Contains(t, out, "ho__1")
}
