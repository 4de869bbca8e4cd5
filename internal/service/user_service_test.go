package service

import (
	"context"
	"testing"

	"devconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateSelf(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	t.Run("token for one user never updates another", func(t *testing.T) {
		_, err := f.Users.UpdateSelf(ctx, alice, bob.UserID, UpdateUserInput{Name: ptr("Hacked")})
		assertCode(t, err, models.CodeUnauthorized)

		got, err := f.users.GetByID(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.Name)
	})

	t.Run("partial update rehashes the password", func(t *testing.T) {
		updated, err := f.Users.UpdateSelf(ctx, alice, alice.UserID, UpdateUserInput{
			Name:     ptr("Alice B"),
			Password: ptr("newsecret"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice B", updated.Name)
		assert.Equal(t, "alice@example.com", updated.Email)

		_, err = f.Auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: testPassword})
		assertCode(t, err, models.CodeValidation)
		_, err = f.Auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "newsecret"})
		assert.NoError(t, err)
	})

	t.Run("unknown role is a validation error", func(t *testing.T) {
		_, err := f.Users.UpdateSelf(ctx, alice, alice.UserID, UpdateUserInput{Role: ptr("Owner")})
		assertCode(t, err, models.CodeValidation)
	})

	t.Run("members cannot change their own role", func(t *testing.T) {
		_, err := f.Users.UpdateSelf(ctx, alice, alice.UserID, UpdateUserInput{Role: ptr("Admin")})
		assertCode(t, err, models.CodeForbidden)

		role, err := f.users.RoleOf(ctx, alice.UserID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleMember, role)

		_, err = f.Users.UpdateSelf(ctx, alice, alice.UserID, UpdateUserInput{Role: ptr("Member")})
		assert.NoError(t, err, "restating the current role is allowed")
	})

	t.Run("email taken by someone else conflicts", func(t *testing.T) {
		_, err := f.Users.UpdateSelf(ctx, alice, alice.UserID, UpdateUserInput{Email: ptr("BOB@example.com")})
		assertCode(t, err, models.CodeConflict)
	})
}

func TestUserService_DeleteSelf(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")

	_, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr("go")})
	require.NoError(t, err)
	post, err := f.Posts.Create(ctx, alice, CreatePostInput{Text: "hello"})
	require.NoError(t, err)

	require.NoError(t, f.Users.DeleteSelf(ctx, alice))

	_, err = f.users.GetByID(ctx, alice.UserID)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.profiles.GetByUserID(ctx, alice.UserID)
	assertCode(t, err, models.CodeNotFound)

	kept, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err, "posts are not cascaded")
	assert.Equal(t, "Alice", kept.Name)

	assertCode(t, f.Users.DeleteSelf(ctx, alice), models.CodeNotFound)
}
