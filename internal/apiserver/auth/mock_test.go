package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"auth-server/internal/mailer"
	"auth-server/internal/shared/cache"
	"auth-server/internal/shared/model"
	"auth-server/internal/shared/storage"
	"auth-server/pkg/logging"
)

// ============================================================================
// 内存 UserStore
// ============================================================================

type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	failSet  bool
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*model.User)}
}

var _ storage.UserStore = (*memStore)(nil)

func (s *memStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = model.NormalizeEmail(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	if err := user.HashPendingPassword(); err != nil {
		return err
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetUserByResetLink(ctx context.Context, link string) (*model.User, error) {
	if link == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetPasswordLink == link {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) SetResetPasswordLink(ctx context.Context, id, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("connection reset")
	}
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.ResetPasswordLink = link
	return nil
}

func (s *memStore) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("write conflict")
	}
	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	if err := user.HashPendingPassword(); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// seed 直接写入一个已激活用户
func (s *memStore) seed(t *testing.T, name, email, password string, role model.UserRole) *model.User {
	t.Helper()
	u := model.NewUser(name, email, password)
	u.Role = role
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// ============================================================================
// Mailer / Throttle / Recorder
// ============================================================================

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// sent 返回第 i 次发送的邮件
func (m *mockMailer) sent(t *testing.T, i int) mailer.Message {
	t.Helper()
	var msgs []mailer.Message
	for _, c := range m.Calls {
		if c.Method == "Send" {
			msgs = append(msgs, c.Arguments.Get(1).(mailer.Message))
		}
	}
	require.Greater(t, len(msgs), i, "expected at least %d emails", i+1)
	return msgs[i]
}

type denyThrottle struct{}

func (denyThrottle) Allow(ctx context.Context, purpose cache.EmailPurpose, email string) (bool, error) {
	return false, nil
}
func (denyThrottle) Release(ctx context.Context, purpose cache.EmailPurpose, email string) error {
	return nil
}
func (denyThrottle) Close() error { return nil }

type brokenThrottle struct{}

func (brokenThrottle) Allow(ctx context.Context, purpose cache.EmailPurpose, email string) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (brokenThrottle) Release(ctx context.Context, purpose cache.EmailPurpose, email string) error {
	return errors.New("redis: connection refused")
}
func (brokenThrottle) Close() error { return nil }

// onceThrottle 每个 (purpose, email) 在释放前只放行一次
type onceThrottle struct {
	mu    sync.Mutex
	taken map[string]bool
}

func newOnceThrottle() *onceThrottle {
	return &onceThrottle{taken: map[string]bool{}}
}

func (o *onceThrottle) Allow(ctx context.Context, purpose cache.EmailPurpose, email string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := string(purpose) + ":" + email
	if o.taken[key] {
		return false, nil
	}
	o.taken[key] = true
	return true, nil
}

func (o *onceThrottle) Release(ctx context.Context, purpose cache.EmailPurpose, email string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.taken, string(purpose)+":"+email)
	return nil
}

func (o *onceThrottle) Close() error { return nil }

type countingRecorder struct {
	mu     sync.Mutex
	events map[string]int
	emails map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{events: map[string]int{}, emails: map[string]int{}}
}

func (r *countingRecorder) RecordAuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event+"/"+outcome]++
}

func (r *countingRecorder) RecordEmailSent(purpose string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "sent"
	if err != nil {
		status = "failed"
	}
	r.emails[purpose+"/"+status]++
}

// ============================================================================
// 测试夹具
// ============================================================================

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SessionSecret = "session-secret"
	cfg.ActivationSecret = "activation-secret"
	cfg.ResetSecret = "reset-secret"
	cfg.ClientURL = "http://localhost:3000"
	cfg.EmailFrom = "noreply@example.com"
	return cfg
}

type fixture struct {
	store   *memStore
	mail    *mockMailer
	handler *Handler
	mux     *http.ServeMux
	cfg     Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	mail := &mockMailer{}
	cfg := testConfig()
	h := NewHandler(store, mail, cfg).WithLogger(logging.New(logging.Config{Output: "discard", Component: "auth"}))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &fixture{store: store, mail: mail, handler: h, mux: mux, cfg: cfg}
}

func (f *fixture) mailOK() {
	f.mail.On("Send", mock.Anything, mock.Anything).Return(nil)
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

var (
	activationLinkRe = regexp.MustCompile(`/auth/activate/([A-Za-z0-9_\-.]+)`)
	resetLinkRe      = regexp.MustCompile(`/auth/password/reset/([A-Za-z0-9_\-.]+)`)
)

func tokenFrom(t *testing.T, re *regexp.Regexp, msg mailer.Message) string {
	t.Helper()
	m := re.FindStringSubmatch(msg.HTML)
	require.Len(t, m, 2, "no token link in %q", msg.HTML)
	return m[1]
}
