package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devconnect/internal/auth"
	"devconnect/internal/featureflags"
	"devconnect/internal/models"
	"devconnect/internal/notifications"
	"devconnect/internal/repository"
	"devconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "secret123"

// recordingPublisher captures published activity events.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, userID uint, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[uint][]notifications.Event)
	}
	p.events[userID] = append(p.events[userID], ev)
	return p.err
}

func (p *recordingPublisher) For(userID uint) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[userID]
}

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	codec    *auth.Codec
	hasher   *auth.Hasher
	policy   *auth.Policy
	events   *recordingPublisher
	flags    *featureflags.Manager

	Auth    *AuthService
	Users   *UserService
	Profile *ProfileService
	Posts   *PostService
	Admin   *AdminService
}

func newFixture(t *testing.T, rawFlags string) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	codec, err := auth.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db, nil),
		posts:    repository.NewPostRepository(db, nil),
		codec:    codec,
		hasher:   auth.NewHasher(4),
		events:   &recordingPublisher{},
		flags:    featureflags.NewManager(rawFlags),
	}
	f.policy = auth.NewPolicy(f.users, nil)

	f.Auth = NewAuthService(f.users, f.codec, f.hasher, f.flags)
	f.Users = NewUserService(f.users, f.profiles, f.hasher, f.policy)
	f.Profile = NewProfileService(f.profiles, f.users, f.policy)
	f.Posts = NewPostService(f.posts, f.users, f.policy, f.events, f.flags)
	f.Admin = NewAdminService(f.users, f.profiles, f.posts, f.hasher)
	return f
}

// register creates an account through the auth service and returns its claim.
func (f *fixture) register(t *testing.T, name, email string) auth.SessionClaim {
	t.Helper()
	token, err := f.Auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: testPassword})
	require.NoError(t, err)
	claim, err := f.codec.Verify(token)
	require.NoError(t, err)
	return claim
}

func (f *fixture) promote(t *testing.T, claim auth.SessionClaim) {
	t.Helper()
	require.NoError(t, f.users.SetRole(context.Background(), claim.UserID, models.RoleAdmin))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
}

func ptr[T any](v T) *T {
	return &v
}
