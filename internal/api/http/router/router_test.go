package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/adminauth-server/internal/api/http/context"
	"github.com/dtroode/adminauth-server/internal/mocks"
	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/secret"
	"github.com/dtroode/adminauth-server/internal/service"
	"github.com/dtroode/adminauth-server/internal/testutil"
	"github.com/dtroode/adminauth-server/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	engine *gin.Engine
	auth   *service.Auth
}

func newTestServer(t *testing.T, limiter model.Limiter) *testServer {
	t.Helper()

	stores := testutil.OpenSQLiteStores(t)
	log := testutil.MakeNoopLogger()
	hasher := secret.NewHasher(secret.Params{Time: 1, MemKiB: 64, Threads: 1})

	credentials := service.NewCredentials(stores.Users, hasher, log)
	codes := service.NewCodes(stores.Codes, credentials, hasher, noopMailer{}, service.CodePolicy{
		TTL:            10 * time.Minute,
		ResendCooldown: 60 * time.Second,
		EchoCode:       true,
	}, log)
	tokens := service.NewTokenService(token.NewJWT("router-test-secret", time.Hour), log)
	auth := service.NewAuth(credentials, codes, tokens, log)

	r := New(auth, tokens, httpcontext.NewManager(), limiter, log)
	return &testServer{engine: r.Register(), auth: auth}
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, model.MailMessage) error { return nil }

func (s *testServer) do(t *testing.T, method, path, body, bearer string) (int, envelope) {
	t.Helper()

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func kind(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return *env.Error
}

func TestRouter_RegisterTwice(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"p@ss1234"}`, "")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 0, env.Code)
	assert.NotContains(t, string(env.Data), "argon2")

	status, env = s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"another1"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, http.StatusBadRequest, env.Code)
	assert.Equal(t, "duplicate_error", kind(env))
	assert.Equal(t, "null", string(env.Data))
}

func TestRouter_LoginFailuresLookAlike(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	status, _ := s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, status)

	wrongStatus, wrongPassword := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrong-pass"}`, "")
	unknownStatus, unknownUser := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"nobody","password":"wrong-pass"}`, "")

	assert.Equal(t, http.StatusBadRequest, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestRouter_PasswordLoginAndProfile(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	s.do(t, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"p@ss1234","email":"alice@example.com","realName":"Alice"}`, "")

	status, env := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusOK, status)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)

	status, env = s.do(t, http.MethodGet, "/api/auth/profile", "", "Bearer "+session.Token)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"username":"alice","email":"alice@example.com","realName":"Alice","roles":["user"]}`,
		withoutID(t, env.Data))

	status, env = s.do(t, http.MethodGet, "/api/auth/profile", "", session.Token)
	assert.Equal(t, http.StatusOK, status, "bare token is accepted")

	status, env = s.do(t, http.MethodGet, "/api/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token required", env.Message)

	status, env = s.do(t, http.MethodGet, "/api/auth/profile", "", "Bearer "+session.Token+"x")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", env.Message)
}

func withoutID(t *testing.T, data json.RawMessage) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotEmpty(t, m["id"])
	delete(m, "id")
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

func TestRouter_EmailCodeFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodPost, "/api/auth/send-email-code", `{"email":"new@example.com","purpose":"login"}`, "")
	require.Equal(t, http.StatusOK, status)

	var issued struct {
		ExpiresIn int    `json:"expiresIn"`
		Code      string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	assert.Equal(t, 600, issued.ExpiresIn)
	require.Len(t, issued.Code, 6)

	status, env = s.do(t, http.MethodPost, "/api/auth/send-email-code", `{"email":"new@example.com","purpose":"login"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limit_error", kind(env))

	status, env = s.do(t, http.MethodPost, "/api/auth/login/email-code", `{"email":"new@example.com","code":"`+issued.Code+`"}`, "")
	require.Equal(t, http.StatusOK, status)
	var session struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "new@example.com", session.User.Username)

	status, env = s.do(t, http.MethodPost, "/api/auth/login/email-code", `{"email":"new@example.com","code":"`+issued.Code+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid or expired code", env.Message)
}

func TestRouter_AdminUsers(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ctx := context.Background()

	_, err := s.auth.CreateUser(ctx, model.Registration{Username: "root", Password: "rootpass", Roles: []string{model.RoleAdmin}})
	require.NoError(t, err)
	_, err = s.auth.Register(ctx, model.Registration{Username: "alice", Password: "p@ss1234"})
	require.NoError(t, err)

	login := func(username, password string) string {
		adminSession, err := s.auth.Login(ctx, username, password)
		require.NoError(t, err)
		return "Bearer " + adminSession.Token
	}

	body := `{"username":"bob","password":"bobpass1","roles":["user","editor"]}`

	status, _ := s.do(t, http.MethodPost, "/api/admin/users", body, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/api/admin/users", body, login("alice", "p@ss1234"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "authorization_error", kind(env))

	status, env = s.do(t, http.MethodPost, "/api/admin/users", body, login("root", "rootpass"))
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"roles":["user","editor"]`)
}

func TestRouter_LogoutAndNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	status, env := s.do(t, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(env.Data))

	status, env = s.do(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, env.Code)
}

func TestRouter_RateLimitedRoute(t *testing.T) {
	t.Parallel()

	limiter := mocks.NewLimiter(t)
	limiter.On("Allow", mock.Anything, mock.MatchedBy(func(key string) bool {
		return key == "login:192.0.2.1"
	})).Return(false, 30*time.Second, nil).Once()

	s := newTestServer(t, limiter)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"a","password":"b"}`))
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}
