package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProfileKeyPrefix = "profile:user:%d"
	PostKeyPrefix    = "post:%d"

	ProfilesListKey = "profiles:all"
	PostsListKey    = "posts:all"
)

const (
	ProfileTTL  = 10 * time.Minute
	PostTTL     = 30 * time.Minute
	ListTTL     = time.Minute
	WSTicketTTL = 30 * time.Second
)

// ProfileKey is keyed by owner because profiles are always addressed by user.
func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// InvalidateProfile drops the owner's profile and the profile listing, which
// embeds owner name and avatar.
func InvalidateProfile(ctx context.Context, rdb *redis.Client, userID uint) {
	Invalidate(ctx, rdb, ProfileKey(userID), ProfilesListKey)
}

func InvalidatePost(ctx context.Context, rdb *redis.Client, postID uint) {
	Invalidate(ctx, rdb, PostKey(postID), PostsListKey)
}

func InvalidatePostsList(ctx context.Context, rdb *redis.Client) {
	Invalidate(ctx, rdb, PostsListKey)
}
