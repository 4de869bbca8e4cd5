package seed

import (
	"testing"
	"time"

	"devconnect/internal/auth"
	"devconnect/internal/models"
	"devconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{BcryptCost: 4, RandSeed: 42, MaxDays: 30}
}

func TestFactory_CreateUser(t *testing.T) {
	db := testutil.NewDB(t)
	f := NewFactory(db, testOptions())

	u, err := f.CreateUser(func(u *models.User) { u.Email = "  Ada@Example.com " })
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, auth.GravatarURL("ada@example.com"), u.Avatar)
	assert.Equal(t, models.RoleMember, u.Role)

	ok, err := auth.NewHasher(4).Compare(u.Password, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotEqual(t, u.Email, other.Email)
	assert.Equal(t, u.Password, other.Password, "hash is computed once per factory")
}

func TestFactory_BuildProfile(t *testing.T) {
	f := NewFactory(nil, testOptions())
	user := &models.User{ID: 7, Name: "Ada Lovelace"}

	p := f.BuildProfile(user)
	assert.Equal(t, uint(7), p.UserID)
	assert.NotEmpty(t, p.Status)
	assert.NotEmpty(t, p.Skills)
	assert.Equal(t, "adalovelace", p.GithubUsername)
	require.NotEmpty(t, p.Experience)
	require.NotEmpty(t, p.Education)

	for i, e := range p.Experience {
		assert.NotEmpty(t, e.ID)
		if e.Current {
			assert.Zero(t, i, "only the newest entry may be current")
			assert.Nil(t, e.To)
			continue
		}
		require.NotNil(t, e.To)
		assert.False(t, e.To.Before(e.From))
		if i > 0 {
			assert.False(t, e.From.After(p.Experience[i-1].From), "entries are newest first")
		}
	}
	for _, e := range p.Education {
		require.NotNil(t, e.To)
		assert.False(t, e.To.Before(e.From))
	}
}

func TestFactory_LikesAndComments(t *testing.T) {
	f := NewFactory(nil, testOptions())
	author := &models.User{ID: 1, Name: "Author"}
	fan := &models.User{ID: 2, Name: "Fan", Avatar: "//avatar"}

	p := f.BuildPost(author)
	assert.Equal(t, "Author", p.Name)
	assert.False(t, p.CreatedAt.After(time.Now()))

	assert.True(t, f.AddLike(p, fan))
	assert.False(t, f.AddLike(p, fan))
	assert.Len(t, p.Likes, 1)

	first := f.AddComment(p, fan, "first")
	second := f.AddComment(p, fan, "")
	require.Len(t, p.Comments, 2)
	assert.Equal(t, second.ID, p.Comments[0].ID)
	assert.Equal(t, first.ID, p.Comments[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "//avatar", first.Avatar)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))
	assert.False(t, first.CreatedAt.Before(p.CreatedAt))
}

func TestSeed(t *testing.T) {
	db := testutil.NewDB(t)
	opts := testOptions()
	opts.NumUsers = 4
	opts.NumPosts = 10

	res, err := Seed(db, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Users)
	assert.Equal(t, 4, res.Profiles)
	assert.Equal(t, 10, res.Posts)

	var users, profiles int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 4, profiles)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 10)
	likes, comments := 0, 0
	for _, p := range posts {
		var author models.User
		require.NoError(t, db.First(&author, p.UserID).Error)
		assert.Equal(t, author.Name, p.Name)

		seen := map[uint]bool{}
		for _, l := range p.Likes {
			assert.NotEqual(t, p.UserID, l.UserID, "authors do not like their own posts")
			assert.False(t, seen[l.UserID], "likes are unique per user")
			seen[l.UserID] = true
		}
		likes += len(p.Likes)
		comments += len(p.Comments)
	}
	assert.Equal(t, res.Likes, likes)
	assert.Equal(t, res.Comments, comments)
}

func TestSeed_CleanRemovesExistingRows(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "Old", "old@example.com", models.RoleMember)

	opts := testOptions()
	opts.NumUsers = 2
	opts.ShouldClean = true
	_, err := Seed(db, opts)
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "old@example.com").Count(&n).Error)
	assert.Zero(t, n)
}

func TestSeed_DryRunWritesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	opts := testOptions()
	opts.NumUsers = 3
	opts.NumPosts = 5
	opts.DryRun = true

	res, err := Seed(db, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 5, res.Posts)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}
