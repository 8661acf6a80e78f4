package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-api"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in memory auth.UserStore used to exercise the HTTP
// surface without a database
type memoryStore struct {
	mu      sync.Mutex
	byEmail map[string]*auth.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byEmail: map[string]*auth.User{}}
}

func (s *memoryStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return user, nil
}

func (s *memoryStore) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return nil, auth.ErrDuplicateEmail
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = &now
	user.UpdatedAt = &now

	s.byEmail[user.Email] = user
	return user, nil
}

func (s *memoryStore) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.LoginAttempts++
	now := time.Now()
	user.LoginAttemptAt = &now
	return nil
}

func (s *memoryStore) TrackSucccessfulLogin(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

func newTestApp(store auth.UserStore) *fiber.App {
	app := fiber.New()

	tokens := auth.NewTokenService([]byte("test-signing-key"), 24, "go-auth-api", nil)

	auth.RegisterAuthRoutes(app,
		auth.WithUsers(store),
		auth.WithTokenService(tokens),
	)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, headers ...map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, hs := range headers {
		for k, v := range hs {
			req.Header.Set(k, v)
		}
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return res, decoded
}

func TestHomeRoute(t *testing.T) {
	app := newTestApp(newMemoryStore())

	res, body := doJSON(t, app, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Hello!", body["message"])
}

func TestRegister(t *testing.T) {
	t.Run("valid input returns 201 and the stored user", func(t *testing.T) {
		store := newMemoryStore()
		app := newTestApp(store)

		res, body := doJSON(t, app, http.MethodPost, "/register", map[string]string{
			"name":     "John Wick",
			"email":    "john@wick.com",
			"password": "secret",
		})

		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Equal(t, "User registered", body["message"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok, "response should embed the created user")
		assert.NotEmpty(t, user["_id"])
		assert.NotEmpty(t, user["createdAt"])
		assert.NotEmpty(t, user["password"])
		assert.NotEqual(t, "secret", user["password"])
		assert.Equal(t, 1, store.count())
	})

	t.Run("invalid input returns 401 with one error", func(t *testing.T) {
		app := newTestApp(newMemoryStore())

		res, body := doJSON(t, app, http.MethodPost, "/register", map[string]string{
			"name":     "John Wick",
			"email":    "",
			"password": "secret",
		})

		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		errs, ok := body["errors"].([]any)
		require.True(t, ok)
		assert.Len(t, errs, 1)
	})

	t.Run("duplicate email returns 422 and keeps one record", func(t *testing.T) {
		store := newMemoryStore()
		app := newTestApp(store)

		payload := map[string]string{
			"name":     "John Wick",
			"email":    "john@wick.com",
			"password": "secret",
		}

		res, _ := doJSON(t, app, http.MethodPost, "/register", payload)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		res, body := doJSON(t, app, http.MethodPost, "/register", payload)

		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Equal(t, "Invalid email", body["message"])
		errs, ok := body["errors"].([]any)
		require.True(t, ok)
		assert.Len(t, errs, 1)
		assert.Equal(t, 1, store.count())
	})
}

func TestLogin(t *testing.T) {
	register := func(t *testing.T, app *fiber.App) {
		res, _ := doJSON(t, app, http.MethodPost, "/register", map[string]string{
			"name":     "John Wick",
			"email":    "john@wick.com",
			"password": "secret",
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	t.Run("valid credentials return 200 and a token", func(t *testing.T) {
		app := newTestApp(newMemoryStore())
		register(t, app)

		res, body := doJSON(t, app, http.MethodPost, "/login", map[string]string{
			"email":    "john@wick.com",
			"password": "secret",
		})

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "Auth OK", body["message"])
		assert.NotEmpty(t, body["token"])
		errs, ok := body["errors"].([]any)
		require.True(t, ok)
		assert.Len(t, errs, 0)
	})

	t.Run("invalid input returns 422 with one error per failing field", func(t *testing.T) {
		app := newTestApp(newMemoryStore())

		res, body := doJSON(t, app, http.MethodPost, "/login", map[string]string{})

		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Equal(t, "Invalid input", body["message"])
		errs, ok := body["errors"].([]any)
		require.True(t, ok)
		assert.Len(t, errs, 2)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		app := newTestApp(newMemoryStore())
		register(t, app)

		resUnknown, bodyUnknown := doJSON(t, app, http.MethodPost, "/login", map[string]string{
			"email":    "ghost@nowhere.com",
			"password": "secret",
		})

		resWrong, bodyWrong := doJSON(t, app, http.MethodPost, "/login", map[string]string{
			"email":    "john@wick.com",
			"password": "not-the-password",
		})

		assert.Equal(t, http.StatusUnauthorized, resUnknown.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, resWrong.StatusCode)
		assert.Equal(t, "Auth error", bodyUnknown["message"])
		assert.Equal(t, bodyUnknown, bodyWrong)
	})
}

func TestProtectedRoute(t *testing.T) {
	loginToken := func(t *testing.T, app *fiber.App) string {
		res, _ := doJSON(t, app, http.MethodPost, "/register", map[string]string{
			"name":     "John Wick",
			"email":    "john@wick.com",
			"password": "secret",
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)

		res, body := doJSON(t, app, http.MethodPost, "/login", map[string]string{
			"email":    "john@wick.com",
			"password": "secret",
		})
		require.Equal(t, http.StatusOK, res.StatusCode)

		token, ok := body["token"].(string)
		require.True(t, ok)
		return token
	}

	t.Run("login token grants access and carries the email", func(t *testing.T) {
		app := newTestApp(newMemoryStore())
		token := loginToken(t, app)

		res, body := doJSON(t, app, http.MethodGet, "/protected", nil, map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "Welcome, your email is john@wick.com", body["message"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "john@wick.com", user["email"])
	})

	t.Run("missing or malformed authorization yields 401", func(t *testing.T) {
		app := newTestApp(newMemoryStore())

		headers := []map[string]string{
			nil,
			{fiber.HeaderAuthorization: ""},
			{fiber.HeaderAuthorization: "Bearer"},
			{fiber.HeaderAuthorization: "Bearer "},
			{fiber.HeaderAuthorization: "Basic am9objpzZWNyZXQ="},
		}

		for _, hs := range headers {
			res, body := doJSON(t, app, http.MethodGet, "/protected", nil, hs)

			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, "Auth failed", body["message"])
		}
	})

	t.Run("forged token yields 401", func(t *testing.T) {
		app := newTestApp(newMemoryStore())

		forged := auth.NewTokenService([]byte("other-key"), 24, "go-auth-api", nil)
		token, err := forged.Generate(staticIdentity{})
		require.NoError(t, err)

		res, body := doJSON(t, app, http.MethodGet, "/protected", nil, map[string]string{
			fiber.HeaderAuthorization: "Bearer " + token,
		})

		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Equal(t, "Auth failed", body["message"])
	})
}

type staticIdentity struct{}

func (staticIdentity) ID() string    { return "user-123" }
func (staticIdentity) Name() string  { return "John Wick" }
func (staticIdentity) Email() string { return "john@wick.com" }

func TestUnmatchedRoute(t *testing.T) {
	app := newTestApp(newMemoryStore())

	res, _ := doJSON(t, app, http.MethodGet, "/unexisting-path", nil)

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
