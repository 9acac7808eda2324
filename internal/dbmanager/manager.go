package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/logging"
	"github.com/dmitrijs2005/pharmgate/internal/models"
	"golang.org/x/sync/semaphore"
)

// Migrator applies the application schema to a freshly connected database.
type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// Options tune a Manager. Zero values fall back to the defaults below.
// TableOwner, when set, is the role whose future tables the read-only role
// may read; otherwise only tables later created by the provisioning role are
// covered.
type Options struct {
	AdminDatabase string
	ProbeTimeout  time.Duration
	MaxConns      int32
	TableOwner    string
}

const (
	defaultAdminDatabase = "postgres"
	defaultProbeTimeout  = 5 * time.Second
)

// Manager is safe for concurrent use.
type Manager struct {
	opts     Options
	migrator Migrator
	log      logging.Logger

	// connectMu serializes Connect calls; mu guards the fields below it.
	connectMu sync.Mutex
	mu        sync.RWMutex
	state     State
	live      *conn
	profile   models.ConnectionProfile

	provisioning *semaphore.Weighted
}

func New(opts Options, migrator Migrator, log logging.Logger) *Manager {
	if opts.AdminDatabase == "" {
		opts.AdminDatabase = defaultAdminDatabase
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		opts:         opts,
		migrator:     migrator,
		log:          log.With("component", "dbmanager"),
		state:        Disconnected,
		provisioning: semaphore.NewWeighted(1),
	}
}

// pool bounds dials by the probe timeout.
func (m *Manager) pool(maxConns int32) poolSettings {
	return poolSettings{MaxConns: maxConns, ConnectTimeout: m.opts.ProbeTimeout}
}

// Connect opens a pool for p and confirms liveness before declaring success.
// The previous connection, if any, is released once the outcome is known; on
// failure the manager is left Disconnected.
func (m *Manager) Connect(ctx context.Context, p models.ConnectionProfile) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.setState(Connecting)
	m.log.Info(ctx, "connecting", "url", p.Redacted().URL())

	c, err := openPool(ctx, p, m.pool(m.opts.MaxConns))
	if err == nil {
		if err = m.probe(ctx, c.db); err != nil {
			c.Close()
		}
	}

	m.mu.Lock()
	old := m.live
	if err != nil {
		m.live, m.profile, m.state = nil, models.ConnectionProfile{}, Disconnected
	} else {
		m.live, m.profile, m.state = c, p, Connected
	}
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	if err != nil {
		m.log.Warn(ctx, "connect failed", "database", p.Database, "error", err)
		return fmt.Errorf("connect to %q: %w", p.Database, err)
	}

	m.log.Info(ctx, "connected", "database", p.Database)
	return nil
}

// TestConnection probes the live connection. A failed probe tears the
// connection down.
func (m *Manager) TestConnection(ctx context.Context) bool {
	m.mu.RLock()
	c := m.live
	m.mu.RUnlock()

	if c == nil {
		return false
	}

	if err := m.probe(ctx, c.db); err != nil {
		m.log.Warn(ctx, "liveness probe failed", "error", err)
		m.drop(c)
		return false
	}
	return true
}

// IsConnected re-validates liveness rather than reporting the last state.
func (m *Manager) IsConnected(ctx context.Context) bool {
	if m.State() != Connected {
		return false
	}
	return m.TestConnection(ctx)
}

// Disconnect closes the live connection, if any.
func (m *Manager) Disconnect() {
	m.mu.RLock()
	c := m.live
	m.mu.RUnlock()

	if c != nil {
		m.drop(c)
		m.log.Info(context.Background(), "disconnected")
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// DB returns the live handle or common.ErrStoreUnavailable.
func (m *Manager) DB() (*sql.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != Connected || m.live == nil {
		return nil, common.ErrStoreUnavailable
	}
	return m.live.db, nil
}

// Profile returns a copy of the profile of the live connection.
func (m *Manager) Profile() (models.ConnectionProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile, m.state == Connected
}

func (m *Manager) probe(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ProbeTimeout)
	defer cancel()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return nil
}

// drop closes c and goes Disconnected, unless c has already been replaced.
func (m *Manager) drop(c *conn) {
	m.mu.Lock()
	if m.live != c {
		m.mu.Unlock()
		return
	}
	m.live, m.profile, m.state = nil, models.ConnectionProfile{}, Disconnected
	m.mu.Unlock()

	c.Close()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
