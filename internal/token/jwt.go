package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/model"
)

// DefaultTTL is the access token validity window.
const DefaultTTL = time.Hour

const typeAccess = "access"

// Claims represents JWT claims binding a user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles,omitempty"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	ttl       time.Duration
	now       func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// Option configures a JWT.
type Option func(*JWT)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// NewJWT creates a new JWT token manager. An empty secret is accepted here
// and reported as a configuration error when a token is issued or parsed.
func NewJWT(secretKey string, ttl time.Duration, opts ...Option) *JWT {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	j := &JWT{secretKey: secretKey, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// TTL returns the access token validity window.
func (j *JWT) TTL() time.Duration {
	return j.ttl
}

// GenerateAccessToken creates a signed access token for identity.
func (j *JWT) GenerateAccessToken(identity model.Identity) (string, error) {
	if j.secretKey == "" {
		return "", apierrors.NewErrSigningSecretMissing()
	}

	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID:    identity.UserID,
		Username:  identity.Username,
		Roles:     identity.Roles,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates signature and expiry and returns the identity.
func (j *JWT) ParseAccessToken(tokenString string) (model.Identity, error) {
	if j.secretKey == "" {
		return model.Identity{}, apierrors.NewErrSigningSecretMissing()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return model.Identity{}, fmt.Errorf("access token is invalid")
	}
	if claims.TokenType != typeAccess {
		return model.Identity{}, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	if claims.UserID == uuid.Nil {
		return model.Identity{}, fmt.Errorf("access token has no subject")
	}

	return model.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Roles:    claims.Roles,
	}, nil
}
