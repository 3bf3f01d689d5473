package users

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/ratelimit"
	"github.com/meridianhq/meridian/internal/shared"
	_ "github.com/meridianhq/meridian/testing"
)

type testEnv struct {
	router   chi.Router
	repo     *memRepo
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, quota int64) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	guard := ratelimit.NewGuard(logger, client, quota, time.Minute, time.Hour)

	repo := newMemRepo()
	notifier := &recordingNotifier{}
	codec := auth.NewCodec([]byte("test-secret"), time.Hour)
	service := NewService(logger, repo, codec, notifier)
	handler := NewHandler(logger, service, guard)
	gate := auth.NewGate(logger, codec, repo, nil)

	router := chi.NewRouter()
	router.Use(gate.Middleware)
	router.Route("/user", handler.MountRoutes)

	return &testEnv{router: router, repo: repo, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(target))
}

func registerBody(email string, roles ...string) map[string]any {
	if len(roles) == 0 {
		roles = []string{"USER"}
	}
	return map[string]any{
		"username":    "testuser",
		"emailId":     email,
		"password":    "opensesame",
		"firstName":   "Test",
		"lastName":    "Person",
		"phoneNumber": "5550001234",
		"age":         30,
		"city":        "Berlin",
		"roles":       roles,
	}
}

func (e *testEnv) register(t *testing.T, email string, roles ...string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/user/register", "", registerBody(email, roles...))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"emailId":  email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]string
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "alice@example.com")
	token := env.login(t, "alice@example.com", "opensesame")

	validatePath := "/user/validateToken?emailId=alice@example.com&token=" + url.QueryEscape(token)
	rec := env.do(t, http.MethodPost, validatePath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var verdict map[string]bool
	decodeBody(t, rec, &verdict)
	require.True(t, verdict["valid"])

	rec = env.do(t, http.MethodPost, "/user/logout?emailId=alice@example.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// After logout the same token no longer authenticates anything.
	rec = env.do(t, http.MethodPost, validatePath, token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/user/viewProfile?emailId=alice@example.com", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSupersessionOverHTTP(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "alice@example.com")

	first := env.login(t, "alice@example.com", "opensesame")
	second := env.login(t, "alice@example.com", "opensesame")

	rec := env.do(t, http.MethodGet, "/user/viewProfile?emailId=alice@example.com", first, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/user/viewProfile?emailId=alice@example.com", second, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, 5)

	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"bad email", func(b map[string]any) { b["emailId"] = "not-an-email" }},
		{"short password", func(b map[string]any) { b["password"] = "abc" }},
		{"underage", func(b map[string]any) { b["age"] = 15 }},
		{"bad phone", func(b map[string]any) { b["phoneNumber"] = "12ab" }},
		{"unknown role", func(b map[string]any) { b["roles"] = []string{"ROOT"} }},
		{"no roles", func(b map[string]any) { b["roles"] = []string{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := registerBody("new@example.com")
			tc.mutate(body)
			rec := env.do(t, http.MethodPost, "/user/register", "", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterDuplicateReturnsConflict(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/user/register", "", registerBody("alice@example.com"))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFailureReturns401(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"emailId":  "alice@example.com",
		"password": "wrongpass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"emailId":  "nobody@example.com",
		"password": "opensesame",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "user@example.com", "USER")
	env.register(t, "admin@example.com", "ADMIN")
	userToken := env.login(t, "user@example.com", "opensesame")
	adminToken := env.login(t, "admin@example.com", "opensesame")

	rec := env.do(t, http.MethodGet, "/user/getAllUser", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/user/getAllUser", userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/user/getAllUser?page=0&size=10", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Users      []accountResponse `json:"users"`
		Pagination shared.Pagination `json:"pagination"`
	}
	decodeBody(t, rec, &listing)
	require.Len(t, listing.Users, 2)
	require.Equal(t, 2, listing.Pagination.Total)

	rec = env.do(t, http.MethodDelete, "/user/removeUser?emailId=user@example.com", userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/user/removeUser?emailId=user@example.com", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/user/getUser?emailId=user@example.com", adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountResponseOmitsSecrets(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "alice@example.com")
	token := env.login(t, "alice@example.com", "opensesame")

	rec := env.do(t, http.MethodGet, "/user/viewProfile?emailId=alice@example.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	decodeBody(t, rec, &raw)
	require.NotContains(t, raw, "password")
	require.NotContains(t, raw, "passwordHash")
	require.NotContains(t, raw, "currentToken")
	require.Equal(t, "alice@example.com", raw["emailId"])
}

func TestForgotPasswordRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)
	env.register(t, "alice@example.com")
	token := env.login(t, "alice@example.com", "opensesame")

	body := map[string]string{"password": "freshsecret"}
	path := "/user/forgotPassword?emailId=alice@example.com"

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPatch, path, token, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		// Password changes, the token slot does not: re-authenticate with the
		// same token.
	}

	rec := env.do(t, http.MethodPatch, path, token, body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestForgotPasswordRequiresAuth(t *testing.T) {
	env := newTestEnv(t, 5)
	rec := env.do(t, http.MethodPatch, "/user/forgotPassword?emailId=alice@example.com", "", map[string]string{"password": "freshsecret"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateUserOverHTTP(t *testing.T) {
	env := newTestEnv(t, 5)
	env.register(t, "alice@example.com")
	token := env.login(t, "alice@example.com", "opensesame")

	rec := env.do(t, http.MethodPut, "/user/updateUser?emailId=alice@example.com", token, map[string]any{
		"age":   42,
		"city":  "Munich",
		"roles": []string{"ADMIN"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile accountResponse
	decodeBody(t, rec, &profile)
	require.Equal(t, 42, profile.Age)
	require.Equal(t, "Munich", profile.City)
	require.ElementsMatch(t, []string{"USER", "ADMIN"}, profile.Roles)
}
