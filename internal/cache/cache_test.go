package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := Instrument(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAside(t *testing.T) {
	mr, rdb := newMiniredis(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (cachedThing, error) {
		loads++
		return cachedThing{ID: 1, Name: "first"}, nil
	}

	got, err := Aside(ctx, rdb, PostKey(1), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	got, err = Aside(ctx, rdb, PostKey(1), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 1, loads)
	assert.Equal(t, PostTTL, mr.TTL("post:1"))

	InvalidatePost(ctx, rdb, 1)
	assert.False(t, mr.Exists("post:1"))

	_, err = Aside(ctx, rdb, PostKey(1), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestAside_LoadErrorIsNotCached(t *testing.T) {
	mr, rdb := newMiniredis(t)
	boom := errors.New("db down")

	_, err := Aside(context.Background(), rdb, "k", time.Minute, func(context.Context) (cachedThing, error) {
		return cachedThing{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestAside_NilClientAlwaysLoads(t *testing.T) {
	loads := 0
	for i := 0; i < 3; i++ {
		_, err := Aside(context.Background(), nil, "k", time.Minute, func(context.Context) ([]cachedThing, error) {
			loads++
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, loads)
}

func TestAside_CorruptEntryFallsBackToLoad(t *testing.T) {
	mr, rdb := newMiniredis(t)
	require.NoError(t, mr.Set("k", "{not json"))

	got, err := Aside(context.Background(), rdb, "k", time.Minute, func(context.Context) (cachedThing, error) {
		return cachedThing{ID: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), got.ID)
}

func TestInvalidateProfile_DropsListing(t *testing.T) {
	mr, rdb := newMiniredis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, rdb, ProfileKey(4), cachedThing{ID: 4}, ProfileTTL))
	require.NoError(t, SetJSON(ctx, rdb, ProfilesListKey, []cachedThing{{ID: 4}}, ListTTL))

	InvalidateProfile(ctx, rdb, 4)
	assert.False(t, mr.Exists("profile:user:4"))
	assert.False(t, mr.Exists(ProfilesListKey))

	var dst cachedThing
	assert.ErrorIs(t, GetJSON(ctx, rdb, ProfileKey(4), &dst), ErrMiss)
}
