package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/pharmgate/internal/auth"
	"github.com/dmitrijs2005/pharmgate/internal/config"
	"github.com/dmitrijs2005/pharmgate/internal/cryptox"
	"github.com/dmitrijs2005/pharmgate/internal/dbmanager"
	"github.com/dmitrijs2005/pharmgate/internal/filex"
	"github.com/dmitrijs2005/pharmgate/internal/identity"
	"github.com/dmitrijs2005/pharmgate/internal/logging"
	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pharmgate/internal/settings"
	"github.com/dmitrijs2005/pharmgate/internal/vault"
)

// connector is the part of *dbmanager.Manager the console drives.
type connector interface {
	ConnectAsync(ctx context.Context, p models.ConnectionProfile) <-chan error
	CreateDatabaseAsync(ctx context.Context, p models.ConnectionProfile) <-chan error
	CreateReadOnlyRoleAsync(ctx context.Context, adminProfile models.ConnectionProfile, roleName, rolePassword string) <-chan error
	Disconnect()
	IsConnected(ctx context.Context) bool
	State() dbmanager.State
	Profile() (models.ConnectionProfile, bool)
}

// authenticator is the part of *auth.Manager the console drives.
type authenticator interface {
	IsFirstRun(ctx context.Context) bool
	BootstrapAdmin(ctx context.Context, username, password, employeeName string) error
	Authenticate(ctx context.Context, username, password string, persist bool) error
	Logout()
	IsAuthenticated() bool
	IsAdmin() bool
	CurrentSession() (auth.Session, bool)
	CurrentUserInfo() (auth.UserInfo, bool)
	CreateUser(ctx context.Context, nu auth.NewUser) error
	GetUser(ctx context.Context, userID int64) (models.UserSummary, error)
	DeleteUser(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	MinPasswordLength() int
}

type profileStore interface {
	LoadProfile() (models.ConnectionProfile, bool)
	SaveProfile(p models.ConnectionProfile) error
	ForgetProfile() error
	Get(key string, dst any) bool
	Set(key string, v any) error
	Path() string
}

type auditReader interface {
	AuditTrail(ctx context.Context, userID int64, limit int) ([]models.AuditLogEntry, error)
}

type App struct {
	config   *config.Config
	db       connector
	auth     authenticator
	profiles profileStore
	audit    auditReader
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp wires the components described by c.
func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureDir(c.ConfigDir); err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}

	scheme, err := cryptox.ParseScheme(c.PasswordScheme)
	if err != nil {
		return nil, err
	}

	repos := repomanager.NewPostgresRepositoryManager()
	dbm := dbmanager.New(dbmanager.Options{
		AdminDatabase: c.AdminDatabase,
		ProbeTimeout:  c.ProbeTimeout,
		MaxConns:      c.MaxConns,
		TableOwner:    c.TableOwner,
	}, repos, log)
	store := identity.NewStore(dbm, repos, log)
	am := auth.NewManager(store, auth.Options{
		Codec:             cryptox.NewCodec(scheme),
		MinPasswordLength: c.MinPasswordLength,
	}, log)

	return &App{
		config:   c,
		db:       dbm,
		auth:     am,
		profiles: settings.New(c.SettingsFile, vault.New(c.KeyFile), log),
		audit:    store,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run restores the remembered connection, then serves the REPL until the
// user exits. The connection is closed on return.
func (a *App) Run(ctx context.Context) {
	defer a.db.Disconnect()

	a.println("Welcome to pharmgate (type 'help' for commands)")
	a.restoreProfile(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// connectWait bounds how long the console waits for a background connect.
func (a *App) connectWait() time.Duration {
	return a.config.ProbeTimeout + 2*time.Second
}

func (a *App) restoreProfile(ctx context.Context) {
	p, ok := a.profiles.LoadProfile()
	if !ok {
		a.println("No saved connection. Use 'connect' or 'createdb'.")
		return
	}
	if p.Password == "" {
		a.println("The saved password could not be read. Use 'connect' to enter it again.")
		return
	}

	a.printf("Connecting to %s on %s:%d...\n", p.Database, p.Host, p.Port)
	if err := a.await(ctx, a.db.ConnectAsync(ctx, p), a.connectWait()); err != nil {
		a.println(describe(err))
		return
	}
	a.afterConnect(ctx)
}

// afterConnect tells the operator what to do next.
func (a *App) afterConnect(ctx context.Context) {
	a.println("Connected.")
	if a.auth.IsFirstRun(ctx) {
		a.println("No users yet. Run 'setup' to create the administrator.")
		return
	}
	a.println("Use 'login' to sign in.")
}

// await waits for one result from ch. A zero timeout waits for as long as
// ctx allows.
func (a *App) await(ctx context.Context, ch <-chan error, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case err := <-ch:
		return err
	case <-expired:
		return errTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) getStatus() string {
	where := a.db.State().String()
	if p, ok := a.db.Profile(); ok {
		where = p.Database
	}
	if info, ok := a.auth.CurrentUserInfo(); ok {
		return fmt.Sprintf("(%s@%s)", info.Username, where)
	}
	return "(" + where + ")"
}

func (a *App) isLoggedIn() bool { return a.auth.IsAuthenticated() }

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
