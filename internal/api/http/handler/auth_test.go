package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/adminauth-server/internal/api/http/context"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/mocks"
	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/testutil"
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

func newTestAuth(t *testing.T) (*Auth, *mocks.AuthService, *httpcontext.Manager) {
	t.Helper()
	svc := mocks.NewAuthService(t)
	cm := httpcontext.NewManager()
	return NewAuth(svc, cm, testutil.MakeNoopLogger()), svc, cm
}

func serve(t *testing.T, h gin.HandlerFunc, body string, pre ...gin.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	r := gin.New()
	r.POST("/", append(pre, h)...)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

var alice = model.User{
	ID:           uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
	Username:     "alice",
	PasswordHash: "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
	Roles:        []string{model.RoleUser},
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		callsSvc   bool
		wantStatus int
		wantKind   string
	}{
		{
			name:       "created",
			body:       `{"username":"alice","password":"p@ss1234"}`,
			callsSvc:   true,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate",
			body:       `{"username":"alice","password":"p@ss1234"}`,
			svcErr:     apierrors.NewErrUsernameTaken("alice"),
			callsSvc:   true,
			wantStatus: http.StatusBadRequest,
			wantKind:   "duplicate_error",
		},
		{
			name:       "missing password",
			body:       `{"username":"alice"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_error",
		},
		{
			name:       "malformed json",
			body:       `{"username":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, svc, _ := newTestAuth(t)
			if tt.callsSvc {
				svc.On("Register", mock.Anything, model.Registration{Username: "alice", Password: "p@ss1234"}).
					Return(alice, tt.svcErr).Once()
			}

			rec, env := serve(t, h.Register, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantKind != "" {
				assert.Equal(t, tt.wantStatus, env.Code)
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantKind, *env.Error)
				assert.Equal(t, "null", string(env.Data))
				return
			}

			assert.Equal(t, 0, env.Code)
			assert.Nil(t, env.Error)
			assert.NotContains(t, string(env.Data), "argon2id")
			assert.NotContains(t, string(env.Data), "password")

			var user userSummary
			require.NoError(t, json.Unmarshal(env.Data, &user))
			assert.Equal(t, alice.ID.String(), user.ID)
			assert.Equal(t, "alice", user.Username)
			assert.Nil(t, user.Email)
			assert.Equal(t, []string{model.RoleUser}, user.Roles)
		})
	}
}

func TestAuth_Register_IgnoresClientRole(t *testing.T) {
	t.Parallel()

	h, svc, _ := newTestAuth(t)
	svc.On("Register", mock.Anything, mock.MatchedBy(func(reg model.Registration) bool {
		return len(reg.Roles) == 0
	})).Return(alice, nil).Once()

	rec, _ := serve(t, h.Register, `{"username":"alice","password":"p@ss1234","roles":["admin"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newTestAuth(t)
		svc.On("Login", mock.Anything, "alice", "p@ss1234").Return(model.Session{Token: "jwt", User: alice}, nil).Once()

		rec, env := serve(t, h.Login, `{"username":"alice","password":"p@ss1234"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var session sessionResponse
		require.NoError(t, json.Unmarshal(env.Data, &session))
		assert.Equal(t, "jwt", session.Token)
		assert.Equal(t, "alice", session.User.Username)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newTestAuth(t)
		svc.On("Login", mock.Anything, "alice", "nope").Return(model.Session{}, apierrors.NewErrInvalidCredentials()).Once()

		rec, env := serve(t, h.Login, `{"username":"alice","password":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid credentials", env.Message)
	})

	t.Run("internal error is not leaked", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newTestAuth(t)
		svc.On("Login", mock.Anything, "alice", "p@ss1234").Return(model.Session{}, assert.AnError).Once()

		rec, env := serve(t, h.Login, `{"username":"alice","password":"p@ss1234"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", env.Message)
	})
}

func TestAuth_SendEmailCode(t *testing.T) {
	t.Parallel()

	t.Run("defaults purpose and echoes code", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newTestAuth(t)
		svc.On("SendEmailCode", mock.Anything, "u@example.com", model.PurposeLogin).
			Return(model.IssuedCode{ExpiresIn: 10 * time.Minute, Code: "482193"}, nil).Once()

		rec, env := serve(t, h.SendEmailCode, `{"email":"u@example.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"expiresIn":600,"code":"482193"}`, string(env.Data))
	})

	t.Run("no code field without echo", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newTestAuth(t)
		svc.On("SendEmailCode", mock.Anything, "u@example.com", model.PurposeLogin).
			Return(model.IssuedCode{ExpiresIn: 10 * time.Minute}, nil).Once()

		_, env := serve(t, h.SendEmailCode, `{"email":"u@example.com","purpose":"login"}`)
		assert.JSONEq(t, `{"expiresIn":600}`, string(env.Data))
	})

	t.Run("cooldown", func(t *testing.T) {
		t.Parallel()

		h, svc, _ := newTestAuth(t)
		svc.On("SendEmailCode", mock.Anything, "u@example.com", model.PurposeLogin).
			Return(model.IssuedCode{}, apierrors.NewErrCodeResendCooldown(45*time.Second)).Once()

		rec, env := serve(t, h.SendEmailCode, `{"email":"u@example.com"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "45", rec.Header().Get("Retry-After"))
		assert.Equal(t, http.StatusTooManyRequests, env.Code)
	})
}

func TestAuth_LoginWithEmailCode(t *testing.T) {
	t.Parallel()

	h, svc, _ := newTestAuth(t)
	svc.On("LoginWithEmailCode", mock.Anything, "u@example.com", "482193").Return(model.Session{Token: "jwt", User: alice}, nil).Once()
	svc.On("LoginWithEmailCode", mock.Anything, "u@example.com", "482193").Return(model.Session{}, apierrors.NewErrInvalidOrExpiredCode()).Once()

	rec, _ := serve(t, h.LoginWithEmailCode, `{"email":"u@example.com","code":"482193"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := serve(t, h.LoginWithEmailCode, `{"email":"u@example.com","code":"482193"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid or expired code", env.Message)
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestAuth(t)
	rec, env := serve(t, h.Logout, ``)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "null", string(env.Data))
	assert.Nil(t, env.Error)
}

func TestAuth_Profile(t *testing.T) {
	t.Parallel()

	t.Run("with identity", func(t *testing.T) {
		t.Parallel()

		h, svc, cm := newTestAuth(t)
		svc.On("Profile", mock.Anything, alice.ID).Return(alice, nil).Once()

		withIdentity := func(c *gin.Context) {
			c.Request = c.Request.WithContext(cm.SetIdentityToContext(c.Request.Context(), alice.Identity()))
		}
		rec, env := serve(t, h.Profile, ``, withIdentity)
		assert.Equal(t, http.StatusOK, rec.Code)

		var user userSummary
		require.NoError(t, json.Unmarshal(env.Data, &user))
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice", user.RealName)
	})

	t.Run("without identity", func(t *testing.T) {
		t.Parallel()

		h, _, _ := newTestAuth(t)
		rec, _ := serve(t, h.Profile, ``)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuth_CreateUser(t *testing.T) {
	t.Parallel()

	admin := alice
	admin.Roles = []string{model.RoleAdmin}

	h, svc, _ := newTestAuth(t)
	svc.On("CreateUser", mock.Anything, model.Registration{
		Username: "alice",
		Password: "p@ss1234",
		Roles:    []string{model.RoleAdmin},
	}).Return(admin, nil).Once()

	rec, env := serve(t, h.CreateUser, `{"username":"alice","password":"p@ss1234","roles":["admin"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var user userSummary
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, []string{model.RoleAdmin}, user.Roles)

	rec, _ = serve(t, h.CreateUser, `{"username":"alice","password":"p@ss1234","roles":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
