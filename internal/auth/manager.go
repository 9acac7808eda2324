package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/cryptox"
	"github.com/dmitrijs2005/pharmgate/internal/logging"
	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/google/uuid"
)

// Store is the identity store as seen by the Manager.
type Store interface {
	CountUsers(ctx context.Context) (int64, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	CreateAccount(ctx context.Context, acct *models.Account, actorID *int64) (*models.Account, error)
	BootstrapAccount(ctx context.Context, acct *models.Account) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int64, actorID int64) error
	SetPersistSession(ctx context.Context, id int64, persist bool) error
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error
}

const (
	DefaultMinPasswordLength = 6
	AdminPosition            = "Administrator"
)

type Options struct {
	Codec             *cryptox.Codec
	MinPasswordLength int
}

type Manager struct {
	store  Store
	codec  *cryptox.Codec
	minPwd int
	log    logging.Logger
	now    func() time.Time

	// signMu serializes Authenticate and Logout; mu guards session.
	signMu  sync.Mutex
	mu      sync.RWMutex
	session *Session

	dummyOnce sync.Once
	dummyHash string
}

func NewManager(store Store, opts Options, log logging.Logger) *Manager {
	if opts.Codec == nil {
		opts.Codec = cryptox.NewCodec(cryptox.SchemeArgon2ID)
	}
	if opts.MinPasswordLength < 1 {
		opts.MinPasswordLength = DefaultMinPasswordLength
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		store:  store,
		codec:  opts.Codec,
		minPwd: opts.MinPasswordLength,
		log:    log.With("component", "auth"),
		now:    time.Now,
	}
}

// MinPasswordLength is the shortest password accepted for new accounts.
func (m *Manager) MinPasswordLength() int { return m.minPwd }

// IsFirstRun is true when there are no users or the store cannot be read.
func (m *Manager) IsFirstRun(ctx context.Context) bool {
	n, err := m.store.CountUsers(ctx)
	if err != nil {
		m.log.Warn(ctx, "cannot count users, assuming first run", "error", err)
		return true
	}
	return n == 0
}

// BootstrapAdmin creates the first administrator. It returns
// common.ErrAlreadyExists once any account exists; the store repeats that
// check atomically with the insert.
func (m *Manager) BootstrapAdmin(ctx context.Context, username, password, employeeName string) error {
	username, employeeName = strings.TrimSpace(username), strings.TrimSpace(employeeName)
	if err := m.validateAccount(username, password, employeeName); err != nil {
		return err
	}

	n, err := m.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: initial administrator is already set up", common.ErrAlreadyExists)
	}

	hash, err := m.codec.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	salary := 0.0
	acct := &models.Account{
		User:     models.User{Username: username, PasswordHash: hash, Role: models.RoleAdmin},
		Employee: models.Employee{Name: employeeName, Position: AdminPosition, Salary: &salary},
	}
	if _, err := m.store.BootstrapAccount(ctx, acct); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	m.log.Info(ctx, "initial administrator created", "username", username)
	return nil
}

// Authenticate signs username in. Any failure other than empty input is
// reported as common.ErrAuthenticationFailed. On success the persist-session
// flag is updated on a best-effort basis.
func (m *Manager) Authenticate(ctx context.Context, username, password string, persist bool) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	m.signMu.Lock()
	defer m.signMu.Unlock()

	acct, err := m.store.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			m.log.Warn(ctx, "user lookup failed", "error", err)
		}
		m.codec.Verify(password, m.dummy())
		m.log.Debug(ctx, "sign-in rejected", "username", username)
		return common.ErrAuthenticationFailed
	}

	if !m.codec.Verify(password, acct.User.PasswordHash) {
		m.log.Debug(ctx, "sign-in rejected", "username", username)
		return common.ErrAuthenticationFailed
	}

	if acct.User.PersistSession != persist {
		if err := m.store.SetPersistSession(ctx, acct.User.ID, persist); err != nil {
			m.log.Warn(ctx, "cannot update persist-session flag", "user_id", acct.User.ID, "error", err)
		} else {
			acct.User.PersistSession = persist
		}
	}

	s := &Session{ID: uuid.New(), User: acct.User, Employee: acct.Employee, StartedAt: m.now().UTC()}
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()

	m.log.Info(ctx, "signed in", "username", username, "role", acct.User.Role, "session_id", s.ID)

	uid := acct.User.ID
	if err := m.store.AppendAudit(ctx, &models.AuditLogEntry{
		UserID: &uid, ActionType: models.ActionLogin, TableName: "users", RecordID: &uid,
	}); err != nil {
		m.log.Warn(ctx, "cannot record sign-in", "session_id", s.ID, "error", err)
	}

	return nil
}

// Logout clears the session. Persisted data is left untouched.
func (m *Manager) Logout() {
	m.signMu.Lock()
	defer m.signMu.Unlock()

	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	if s != nil {
		m.log.Info(context.Background(), "signed out", "username", s.User.Username, "session_id", s.ID)
	}
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.CurrentSession()
	return ok
}

func (m *Manager) IsAdmin() bool {
	s, ok := m.CurrentSession()
	return ok && s.User.Role.IsAdmin()
}

// CurrentSession returns a copy of the session.
func (m *Manager) CurrentSession() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *Manager) CurrentUserInfo() (UserInfo, bool) {
	s, ok := m.CurrentSession()
	if !ok {
		return UserInfo{}, false
	}
	return UserInfo{
		Username:     s.User.Username,
		EmployeeName: s.Employee.Name,
		Position:     s.Employee.Position,
		Role:         s.User.Role,
	}, true
}

// requireAdmin returns the admin session or common.ErrAuthorization.
func (m *Manager) requireAdmin(ctx context.Context, op string) (Session, error) {
	s, ok := m.CurrentSession()
	if !ok || !s.User.Role.IsAdmin() {
		m.log.Debug(ctx, "admin operation refused", "op", op, "authenticated", ok)
		return Session{}, fmt.Errorf("%w: %s requires an administrator", common.ErrAuthorization, op)
	}
	return s, nil
}

func (m *Manager) validateAccount(username, password, employeeName string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	case len([]rune(password)) < m.minPwd:
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, m.minPwd)
	case employeeName == "":
		return fmt.Errorf("%w: employee name is required", common.ErrValidation)
	}
	return nil
}

// dummy is a valid hash of a random string, verified for unknown usernames
// so the two rejection paths cost the same.
func (m *Manager) dummy() string {
	m.dummyOnce.Do(func() {
		pw, err := common.MakeRandHexString(16)
		if err == nil {
			m.dummyHash, _ = m.codec.Hash(pw)
		}
	})
	return m.dummyHash
}
