package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialflow/internal/config"
	"socialflow/internal/forge"
	"socialflow/internal/models"
	"socialflow/internal/reviewers"
	"socialflow/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-for-unit-tests-only!"

// stubAgent is a canned text-generation agent.
type stubAgent struct {
	reply       string
	err         error
	lastMessage string
}

func (a *stubAgent) Generate(_ context.Context, message string) (string, error) {
	a.lastMessage = message
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

// stubImage is a canned image-generation client.
type stubImage struct {
	url string
	err error
}

func (i *stubImage) GenerateImage(_ context.Context, _, _ string) (string, error) {
	return i.url, i.err
}

type testServerOpts struct {
	redis     *redis.Client
	agent     forge.AgentClient
	image     forge.ImageClient
	roster    *reviewers.Roster
	adminHash string
	flags     string
}

func newTestServer(t *testing.T, opts testServerOpts) (*Server, *fiber.App) {
	t.Helper()

	hash := opts.adminHash
	if hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte("review-secret"), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(h)
	}

	flags := opts.flags
	if flags == "" {
		flags = "forge_image=on"
	}

	cfg := &config.Config{
		Port:              "8375",
		Env:               "test",
		JWTSecret:         testJWTSecret,
		AdminPasswordHash: hash,
		StoreBackend:      "memory",
		FeatureFlags:      flags,
	}

	s, err := NewServerWithDeps(cfg,
		store.NewMemoryPersistence(), opts.redis, opts.agent, opts.image, opts.roster)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func authTokenFor(t *testing.T, s *Server, email string, role models.UserRole) string {
	t.Helper()
	user := models.NewUserFromEmail(email, role)
	token, err := s.generateToken(user)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestLivenessCheck(t *testing.T) {
	_, app := newTestServer(t, testServerOpts{})

	resp := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "up", body["status"])
}

func TestReadinessCheck_NoRedis(t *testing.T) {
	_, app := newTestServer(t, testServerOpts{})

	resp := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Checks struct {
			Store string `json:"store"`
			Redis string `json:"redis"`
		} `json:"checks"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks.Store)
	assert.Equal(t, "unavailable", body.Checks.Redis)
}

func TestLogin(t *testing.T) {
	_, app := newTestServer(t, testServerOpts{})

	t.Run("plain user signs in with email alone", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "casey.jones@example.com",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, models.RoleUser, body.User.Role)
		assert.Equal(t, "Casey Jones", body.User.Name)
	})

	t.Run("admin email requires password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "admin@example.com",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin with correct password gets reviewer role", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email":    "admin@example.com",
			"password": "review-secret",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User models.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, models.RoleAdmin, body.User.Role)
	})

	t.Run("roster email outranks defaults", func(t *testing.T) {
		roster, err := reviewers.Parse([]byte(
			"reviewers:\n  - name: Dana\n    email: dana@example.com\n    role: Superadmin\n"))
		require.NoError(t, err)
		_, rosterApp := newTestServer(t, testServerOpts{roster: roster})

		resp := doJSON(t, rosterApp, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email":    "dana@example.com",
			"password": "review-secret",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			User models.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, models.RoleSuperadmin, body.User.Role)
		assert.Equal(t, "Dana", body.User.Name)
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "not-an-email",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		// The error body must not carry a minted token.
		var body map[string]any
		decodeBody(t, resp, &body)
		assert.NotContains(t, body, "token")
	})
}

func TestMe(t *testing.T) {
	s, app := newTestServer(t, testServerOpts{})
	token := authTokenFor(t, s, "sam@example.com", models.RoleUser)

	resp := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, "sam@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestAuthRequired(t *testing.T) {
	s, app := newTestServer(t, testServerOpts{})

	t.Run("missing token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts", "not.a.jwt", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token := authTokenFor(t, s, "sam@example.com", models.RoleUser)
		resp := doJSON(t, app, http.MethodGet, "/api/posts", token, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestReviewerGating(t *testing.T) {
	s, app := newTestServer(t, testServerOpts{})

	userToken := authTokenFor(t, s, "sam@example.com", models.RoleUser)
	adminToken := authTokenFor(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, http.MethodGet, "/api/admin/review-queue", userToken, nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/review-queue", adminToken, nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIssueWSTicket(t *testing.T) {
	redisClient := newTestRedisClient(t)
	s, app := newTestServer(t, testServerOpts{redis: redisClient})
	token := authTokenFor(t, s, "sam@example.com", models.RoleUser)

	resp := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expiresIn"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, 30, body.ExpiresIn)

	// Ticket authenticates a request in place of the JWT, exactly once.
	resp = doJSON(t, app, http.MethodGet, "/api/posts?ticket="+body.Ticket, "", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/posts?ticket="+body.Ticket, "", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIssueWSTicket_NoRedis(t *testing.T) {
	s, app := newTestServer(t, testServerOpts{})
	token := authTokenFor(t, s, "sam@example.com", models.RoleUser)

	resp := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
