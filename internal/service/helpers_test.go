package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/secret"
	"github.com/dtroode/adminauth-server/internal/testutil"
	"github.com/dtroode/adminauth-server/internal/token"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type outbox struct {
	mu   sync.Mutex
	sent []model.MailMessage
}

func (o *outbox) Send(_ context.Context, msg model.MailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

func (o *outbox) last() model.MailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[len(o.sent)-1]
}

func testHasher() *secret.Hasher {
	return secret.NewHasher(secret.Params{Time: 1, MemKiB: 64, Threads: 1})
}

var testPolicy = CodePolicy{
	TTL:            10 * time.Minute,
	ResendCooldown: 60 * time.Second,
	EchoCode:       true,
}

type testEnv struct {
	stores      testutil.SQLiteStores
	clock       *fakeClock
	mailer      model.MailDispatcher
	outbox      *outbox
	credentials *Credentials
	codes       *Codes
	auth        *Auth
}

type envOption func(*envConfig)

type envConfig struct {
	policy CodePolicy
	mailer model.MailDispatcher
	secret string
}

func withPolicy(p CodePolicy) envOption {
	return func(c *envConfig) { c.policy = p }
}

func withMailer(m model.MailDispatcher) envOption {
	return func(c *envConfig) { c.mailer = m }
}

func withSigningSecret(s string) envOption {
	return func(c *envConfig) { c.secret = s }
}

// newTestEnv wires the services over an in-memory sqlite database.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	box := &outbox{}
	cfg := envConfig{policy: testPolicy, mailer: box, secret: "test-secret"}
	for _, opt := range opts {
		opt(&cfg)
	}

	stores := testutil.OpenSQLiteStores(t)
	clock := newFakeClock()
	log := testutil.MakeNoopLogger()
	hasher := testHasher()

	credentials := NewCredentials(stores.Users, hasher, log, WithClock(clock.Now))
	codes := NewCodes(stores.Codes, credentials, hasher, cfg.mailer, cfg.policy, log, WithClock(clock.Now))
	tokens := NewTokenService(token.NewJWT(cfg.secret, time.Hour, token.WithClock(clock.Now)), log)

	return &testEnv{
		stores:      stores,
		clock:       clock,
		mailer:      cfg.mailer,
		outbox:      box,
		credentials: credentials,
		codes:       codes,
		auth:        NewAuth(credentials, codes, tokens, log),
	}
}

func (e *testEnv) countCodes(t *testing.T, email string) int {
	t.Helper()
	var n int
	err := e.stores.Conn.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM email_codes WHERE email = ?", email).Scan(&n)
	if err != nil {
		t.Fatalf("count codes: %v", err)
	}
	return n
}
