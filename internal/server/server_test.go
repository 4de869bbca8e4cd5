package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"devconnect/internal/config"
	"devconnect/internal/middleware"
	"devconnect/internal/models"
	"devconnect/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func testConfig(flags string) *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret-test-secret-test-secret",
		TokenTTLSeconds: 3600,
		BcryptCost:      4,
		Port:            "0",
		Env:             "test",
		FeatureFlags:    flags,
	}
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)

	srv, err := NewServerWithDeps(testConfig(flags), db, rdb)
	require.NoError(t, err)
	return &testEnv{srv: srv, app: srv.App(), mr: mr, rdb: rdb}
}

// do sends a JSON request and returns the status and raw body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// register creates an account over HTTP and returns its token and id.
func (e *testEnv) register(t *testing.T, name, email string) (string, uint) {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	token := decode[map[string]string](t, body)["token"]
	require.NotEmpty(t, token)

	status, body = e.do(t, http.MethodGet, "/api/v1/auth", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	return token, decode[models.User](t, body).ID
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	return decode[models.ErrorResponse](t, raw).Code
}

func TestRegisterLoginAndProfileFlow(t *testing.T) {
	env := newTestEnv(t, "")

	status, body := env.do(t, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodPost, "/api/v1/auth", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	token := decode[map[string]string](t, body)["token"]
	require.NotEmpty(t, token)

	status, body = env.do(t, http.MethodPost, "/api/v1/profile", token, fiber.Map{
		"status": "Developer",
		"skills": "go, rust",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodGet, "/api/v1/profile/me", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	got := decode[struct {
		Profile models.Profile `json:"profile"`
	}](t, body)
	assert.Equal(t, []string{"go", "rust"}, got.Profile.Skills)
	assert.Equal(t, "Developer", got.Profile.Status)
}

func TestLikeUnlikeFlow(t *testing.T) {
	env := newTestEnv(t, "")
	tokenA, _ := env.register(t, "Author", "author@example.com")
	tokenB, idB := env.register(t, "Reader", "reader@example.com")

	status, body := env.do(t, http.MethodPost, "/api/v1/posts", tokenA, fiber.Map{"text": "hello"})
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	postPath := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/like/%d", post.ID), tokenB, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	likes := decode[[]models.Like](t, body)
	require.Len(t, likes, 1)
	assert.Equal(t, idB, likes[0].UserID)

	status, body = env.do(t, http.MethodGet, postPath, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Len(t, decode[models.Post](t, body).Likes, 1)

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/like/%d", post.ID), tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeAlreadyLiked, errorCode(t, body))

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/unlike/%d", post.ID), tokenB, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[[]models.Like](t, body))

	status, body = env.do(t, http.MethodGet, postPath, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[models.Post](t, body).Likes)

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/unlike/%d", post.ID), tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeNotLiked, errorCode(t, body))
}

func TestCommentOwnership(t *testing.T) {
	env := newTestEnv(t, "")
	tokenA, _ := env.register(t, "Author", "author@example.com")
	tokenB, _ := env.register(t, "Reader", "reader@example.com")

	_, body := env.do(t, http.MethodPost, "/api/v1/posts", tokenA, fiber.Map{"text": "hello"})
	post := decode[models.Post](t, body)

	status, body := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/comment/%d", post.ID), tokenB, fiber.Map{"text": "nice"})
	require.Equal(t, http.StatusCreated, status, string(body))
	comments := decode[[]models.Comment](t, body)
	require.Len(t, comments, 1)
	commentPath := fmt.Sprintf("/api/v1/posts/comment/%d/%s", post.ID, comments[0].ID)

	status, body = env.do(t, http.MethodDelete, commentPath, tokenA, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, errorCode(t, body))

	status, body = env.do(t, http.MethodDelete, commentPath, tokenB, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[[]models.Comment](t, body))

	status, body = env.do(t, http.MethodDelete, commentPath, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Comment does not exist", decode[models.ErrorResponse](t, body).Errors[0].Message)
}

func TestPostRoutes_Validation(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register(t, "Author", "author@example.com")

	status, body := env.do(t, http.MethodPost, "/api/v1/posts", token, fiber.Map{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, errorCode(t, body))

	status, body = env.do(t, http.MethodGet, "/api/v1/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", decode[models.ErrorResponse](t, body).Errors[0].Message)

	status, _ = env.do(t, http.MethodGet, "/api/v1/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGate_RejectsMissingAndInvalidTokens(t *testing.T) {
	env := newTestEnv(t, "")

	status, body := env.do(t, http.MethodGet, "/api/v1/auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeNoToken, decode[models.AuthErrorResponse](t, body).Code)

	status, body = env.do(t, http.MethodGet, "/api/v1/auth", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeInvalidToken, decode[models.AuthErrorResponse](t, body).Code)
}

func TestCurrentUser_OmitsPassword(t *testing.T) {
	env := newTestEnv(t, "")
	token, id := env.register(t, "Alice", "alice@example.com")

	status, body := env.do(t, http.MethodGet, "/api/v1/auth", token, nil)
	require.Equal(t, http.StatusOK, status)
	fields := decode[map[string]any](t, body)
	assert.NotContains(t, fields, "password")
	assert.Equal(t, float64(id), fields["id"])
	assert.Equal(t, "Member", fields["role"])
}

func TestUpdateUser_SelfOnly(t *testing.T) {
	env := newTestEnv(t, "")
	tokenA, idA := env.register(t, "Alice", "alice@example.com")
	_, idB := env.register(t, "Bob", "bob@example.com")

	status, body := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/update/%d", idB), tokenA, fiber.Map{"name": "Mallory"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, errorCode(t, body))

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/update/%d", idA), tokenA, fiber.Map{"name": "Alice Smith"})
	require.Equal(t, http.StatusOK, status, string(body))
	got := decode[struct {
		User models.User `json:"user"`
	}](t, body)
	assert.Equal(t, "Alice Smith", got.User.Name)

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/update/%d", idA), tokenA, fiber.Map{"role": "Admin"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeForbidden, errorCode(t, body))
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register(t, "Alice", "alice@example.com")

	status, body := env.do(t, http.MethodDelete, "/api/v1/users/delete", token, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "user deleted successfully", decode[map[string]string](t, body)["message"])

	status, _ = env.do(t, http.MethodGet, "/api/v1/auth", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProfile_ShowsOwnerRename(t *testing.T) {
	env := newTestEnv(t, "")
	token, id := env.register(t, "Alice", "alice@example.com")
	profilePath := fmt.Sprintf("/api/v1/profile/user/%d", id)

	status, body := env.do(t, http.MethodPost, "/api/v1/profile", token, fiber.Map{"status": "Developer", "skills": "go"})
	require.Equal(t, http.StatusOK, status, string(body))
	status, _ = env.do(t, http.MethodGet, profilePath, "", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/update/%d", id), token, fiber.Map{"name": "Alicia"})
	require.Equal(t, http.StatusOK, status, string(body))

	type envelope struct {
		Profile models.Profile `json:"profile"`
	}
	for _, path := range []string{profilePath, "/api/v1/profile/me"} {
		status, body = env.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		owner := decode[envelope](t, body).Profile.Owner
		require.NotNil(t, owner, path)
		assert.Equal(t, "Alicia", owner.Name, path)
	}

	status, body = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	all := decode[[]models.Profile](t, body)
	require.Len(t, all, 1)
	assert.Equal(t, "Alicia", all[0].Owner.Name)
}

func TestDeletedAccount_TokenCannotWrite(t *testing.T) {
	env := newTestEnv(t, "")
	tokenA, _ := env.register(t, "Author", "author@example.com")
	tokenB, _ := env.register(t, "Reader", "reader@example.com")

	status, body := env.do(t, http.MethodPost, "/api/v1/posts", tokenA, fiber.Map{"text": "hello"})
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)

	status, body = env.do(t, http.MethodDelete, "/api/v1/users/delete", tokenB, nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/like/%d", post.ID), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status, string(body))

	status, body = env.do(t, http.MethodPost, "/api/v1/profile", tokenB, fiber.Map{"status": "Developer", "skills": "go"})
	assert.Equal(t, http.StatusNotFound, status, string(body))

	status, body = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[[]models.Profile](t, body))

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decode[models.Post](t, body).Likes)
}

func TestRegister_DisabledByFlag(t *testing.T) {
	env := newTestEnv(t, "registration=off")

	status, body := env.do(t, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeForbidden, errorCode(t, body))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, "")
	env.register(t, "Alice", "alice@example.com")

	status, body := env.do(t, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"name":     "Other",
		"email":    "ALICE@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", decode[models.ErrorResponse](t, body).Errors[0].Message)
}

func TestProfileRoutes(t *testing.T) {
	env := newTestEnv(t, "")
	token, id := env.register(t, "Alice", "alice@example.com")

	status, body := env.do(t, http.MethodGet, "/api/v1/profile/me", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User Profile not found!", decode[models.ErrorResponse](t, body).Errors[0].Message)

	status, _ = env.do(t, http.MethodPost, "/api/v1/profile", token, fiber.Map{"status": "Developer", "skills": "go"})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPut, "/api/v1/profile/experience", token, fiber.Map{
		"title": "Engineer", "company": "Acme", "from": "2020-01-01",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = env.do(t, http.MethodPut, "/api/v1/profile/experience", token, fiber.Map{
		"title": "Lead", "company": "Initech", "from": "2022-01-01", "current": true,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	profile := decode[struct {
		Profile models.Profile `json:"profile"`
	}](t, body).Profile
	require.Len(t, profile.Experience, 2)
	assert.Equal(t, "Lead", profile.Experience[0].Title)

	status, body = env.do(t, http.MethodDelete, "/api/v1/profile/experience/unknown", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	profile = decode[struct {
		Profile models.Profile `json:"profile"`
	}](t, body).Profile
	assert.Len(t, profile.Experience, 2)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/profile/user/%d", id), "", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Len(t, decode[[]models.Profile](t, body), 1)

	status, _ = env.do(t, http.MethodDelete, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/profile/user/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Profile not found", decode[models.ErrorResponse](t, body).Errors[0].Message)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t, "")
	adminToken, adminID := env.register(t, "Root", "root@example.com")
	memberToken, memberID := env.register(t, "Alice", "alice@example.com")
	require.NoError(t, env.srv.userRepo.SetRole(context.Background(), adminID, models.RoleAdmin))

	status, body := env.do(t, http.MethodGet, "/api/v1/admin", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeForbidden, errorCode(t, body))

	status, body = env.do(t, http.MethodGet, "/api/v1/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeNoToken, decode[models.AuthErrorResponse](t, body).Code)

	status, body = env.do(t, http.MethodGet, "/api/v1/admin", adminToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	dashboard := decode[map[string]int](t, body)
	assert.Equal(t, 2, dashboard["users"])
	assert.Equal(t, 1, dashboard["admins"])

	status, body = env.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	listed := decode[[]map[string]any](t, body)
	require.Len(t, listed, 2)
	for _, u := range listed {
		assert.NotContains(t, u, "password")
		assert.NotContains(t, u, "avatar")
	}

	status, body = env.do(t, http.MethodPost, "/api/v1/admin/users/add", adminToken, fiber.Map{
		"name": "Carol", "email": "carol@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/update/%d", memberID), adminToken, fiber.Map{"role": "Admin"})
	require.Equal(t, http.StatusOK, status, string(body))
	got := decode[struct {
		User models.User `json:"user"`
	}](t, body)
	assert.Equal(t, models.RoleAdmin, got.User.Role)

	status, body = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/delete/%d", memberID), adminToken, nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/delete/%d", memberID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/admin/feature-flags", adminToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	flags := decode[struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}](t, body)
	assert.True(t, flags.Evaluated["registration"])
	assert.True(t, flags.Evaluated["activity_notifications"])
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, "")

	status, _ := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])

	env.mr.Close()
	status, body = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	checks := decode[struct {
		Checks map[string]string `json:"checks"`
	}](t, body).Checks
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unhealthy", checks["redis"])
}

func TestServerWithoutRedis(t *testing.T) {
	db := testutil.NewDB(t)
	srv, err := NewServerWithDeps(testConfig(""), db, nil)
	require.NoError(t, err)
	env := &testEnv{srv: srv, app: srv.App()}

	tokenA, _ := env.register(t, "Author", "author@example.com")
	tokenB, _ := env.register(t, "Reader", "reader@example.com")
	_, body := env.do(t, http.MethodPost, "/api/v1/posts", tokenA, fiber.Map{"text": "hello"})
	post := decode[models.Post](t, body)

	status, body := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/like/%d", post.ID), tokenB, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = env.do(t, http.MethodPost, "/api/v1/ws/ticket", tokenA, nil)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
