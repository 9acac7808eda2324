package dbmanager

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dbExistsQ   = `^SELECT EXISTS \(SELECT 1 FROM pg_database WHERE datname = \$1\)$`
	roleExistsQ = `^SELECT EXISTS \(SELECT 1 FROM pg_roles WHERE rolname = \$1\)$`
)

func exact(sql string) string {
	return "^" + regexp.QuoteMeta(sql) + "$"
}

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func TestCreateDatabase_CreatesWhenAbsent(t *testing.T) {
	admin, adminMock := newMock(t)
	adminMock.ExpectQuery(dbExistsQ).WithArgs("pharmacy").WillReturnRows(existsRow(false))
	adminMock.ExpectExec(exact(`CREATE DATABASE "pharmacy"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	adminMock.ExpectClose()

	target, targetMock := newMock(t)
	expectProbe(targetMock)

	pools := queuePools(t, admin, target)
	mig := &fakeMigrator{}

	m := newManager(mig)
	require.NoError(t, m.CreateDatabase(context.Background(), testProfile))

	assert.Equal(t, []string{"postgres", "pharmacy"}, pools.databases())
	assert.Equal(t, []poolSettings{
		{MaxConns: 1, ConnectTimeout: time.Second},
		{ConnectTimeout: time.Second},
	}, pools.settings, "every dial, the admin one included, is bounded by the probe timeout")
	assert.Equal(t, 1, mig.calls)
	assert.Equal(t, Connected, m.State())
	assert.NoError(t, adminMock.ExpectationsWereMet())
	assert.NoError(t, targetMock.ExpectationsWereMet())
}

func TestCreateDatabase_SecondCallOnlyConnects(t *testing.T) {
	admin1, admin1Mock := newMock(t)
	admin1Mock.ExpectQuery(dbExistsQ).WithArgs("pharmacy").WillReturnRows(existsRow(false))
	admin1Mock.ExpectExec(exact(`CREATE DATABASE "pharmacy"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	target1, target1Mock := newMock(t)
	expectProbe(target1Mock)

	admin2, admin2Mock := newMock(t)
	admin2Mock.ExpectQuery(dbExistsQ).WithArgs("pharmacy").WillReturnRows(existsRow(true))

	target2, target2Mock := newMock(t)
	expectProbe(target2Mock)

	queuePools(t, admin1, target1, admin2, target2)
	mig := &fakeMigrator{}
	m := newManager(mig)

	require.NoError(t, m.CreateDatabase(context.Background(), testProfile))
	require.NoError(t, m.CreateDatabase(context.Background(), testProfile))

	assert.Equal(t, 2, mig.calls)
	assert.Equal(t, Connected, m.State())
	assert.NoError(t, admin2Mock.ExpectationsWereMet())
	assert.NoError(t, target2Mock.ExpectationsWereMet())
}

func TestCreateDatabase_CustomAdminDatabase(t *testing.T) {
	admin, adminMock := newMock(t)
	adminMock.ExpectQuery(dbExistsQ).WithArgs("pharmacy").WillReturnRows(existsRow(true))
	target, targetMock := newMock(t)
	expectProbe(targetMock)

	pools := queuePools(t, admin, target)

	m := New(Options{AdminDatabase: "template1", ProbeTimeout: time.Second}, &fakeMigrator{}, nil)
	require.NoError(t, m.CreateDatabase(context.Background(), testProfile))
	assert.Equal(t, []string{"template1", "pharmacy"}, pools.databases())
}

func TestCreateDatabase_InvalidNameRejectedBeforeIO(t *testing.T) {
	pools := queuePools(t)
	m := newManager(&fakeMigrator{})

	for _, name := range []string{"", "1db", `pharmacy"; DROP DATABASE postgres; --`, "my db"} {
		err := m.CreateDatabase(context.Background(), testProfile.WithDatabase(name))
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier, name)
	}
	assert.Empty(t, pools.databases())
}

func TestCreateDatabase_CreateFails(t *testing.T) {
	admin, adminMock := newMock(t)
	adminMock.ExpectQuery(dbExistsQ).WithArgs("pharmacy").WillReturnRows(existsRow(false))
	adminMock.ExpectExec(`CREATE DATABASE`).WillReturnError(errors.New("permission denied to create database"))

	pools := queuePools(t, admin)
	mig := &fakeMigrator{}
	m := newManager(mig)

	err := m.CreateDatabase(context.Background(), testProfile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, []string{"postgres"}, pools.databases())
	assert.Zero(t, mig.calls)
	assert.Equal(t, Disconnected, m.State())
}

func TestCreateDatabase_MigrationFails(t *testing.T) {
	admin, adminMock := newMock(t)
	adminMock.ExpectQuery(dbExistsQ).WillReturnRows(existsRow(true))
	target, targetMock := newMock(t)
	expectProbe(targetMock)
	queuePools(t, admin, target)

	m := newManager(&fakeMigrator{err: errors.New("syntax error")})
	err := m.CreateDatabase(context.Background(), testProfile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migrations")
}

func grantStatements() []string {
	return []string{
		`GRANT CONNECT ON DATABASE "pharmacy" TO "pharmacy_user"`,
		`GRANT USAGE ON SCHEMA public TO "pharmacy_user"`,
		`GRANT SELECT ON ALL TABLES IN SCHEMA public TO "pharmacy_user"`,
		`ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT SELECT ON TABLES TO "pharmacy_user"`,
	}
}

func TestCreateReadOnlyRole_CreatesRoleThenGrantsInOrder(t *testing.T) {
	admin, mock := newMock(t)
	mock.ExpectQuery(roleExistsQ).WithArgs("pharmacy_user").WillReturnRows(existsRow(false))
	mock.ExpectExec(exact(`CREATE ROLE "pharmacy_user" WITH LOGIN PASSWORD 'readonly123'`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for _, stmt := range grantStatements() {
		mock.ExpectExec(exact(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectClose()

	pools := queuePools(t, admin)
	m := newManager(nil)

	require.NoError(t, m.CreateReadOnlyRole(context.Background(), testProfile, "pharmacy_user", "readonly123"))
	assert.Equal(t, []string{"pharmacy"}, pools.databases())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, Disconnected, m.State(), "admin connection must not become the live one")
}

func TestCreateReadOnlyRole_ExistingRoleIsRegranted(t *testing.T) {
	admin, mock := newMock(t)
	mock.ExpectQuery(roleExistsQ).WithArgs("pharmacy_user").WillReturnRows(existsRow(true))
	for _, stmt := range grantStatements() {
		mock.ExpectExec(exact(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	queuePools(t, admin)
	m := newManager(nil)

	require.NoError(t, m.CreateReadOnlyRole(context.Background(), testProfile, "pharmacy_user", "readonly123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReadOnlyRole_FirstFailingGrantAborts(t *testing.T) {
	admin, mock := newMock(t)
	stmts := grantStatements()
	mock.ExpectQuery(roleExistsQ).WillReturnRows(existsRow(true))
	mock.ExpectExec(exact(stmts[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact(stmts[1])).WillReturnError(errors.New("schema public does not exist"))

	queuePools(t, admin)
	m := newManager(nil)

	err := m.CreateReadOnlyRole(context.Background(), testProfile, "pharmacy_user", "readonly123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grant usage")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReadOnlyRole_PasswordIsQuotedAsLiteral(t *testing.T) {
	admin, mock := newMock(t)
	mock.ExpectQuery(roleExistsQ).WillReturnRows(existsRow(false))
	mock.ExpectExec(exact(`CREATE ROLE "reader" WITH LOGIN PASSWORD 'it''s; DROP ROLE postgres'`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for range 4 {
		mock.ExpectExec(`^(GRANT|ALTER DEFAULT PRIVILEGES) `).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	queuePools(t, admin)
	m := newManager(nil)

	require.NoError(t, m.CreateReadOnlyRole(context.Background(), testProfile, "reader", "it's; DROP ROLE postgres"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReadOnlyRole_DefaultPrivilegesForTableOwner(t *testing.T) {
	admin, mock := newMock(t)
	stmts := grantStatements()
	mock.ExpectQuery(roleExistsQ).WillReturnRows(existsRow(true))
	for _, stmt := range stmts[:3] {
		mock.ExpectExec(exact(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(exact(`ALTER DEFAULT PRIVILEGES FOR ROLE "pharmacy_app" IN SCHEMA public GRANT SELECT ON TABLES TO "pharmacy_user"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	queuePools(t, admin)
	m := New(Options{ProbeTimeout: time.Second, TableOwner: "pharmacy_app"}, nil, nil)

	require.NoError(t, m.CreateReadOnlyRole(context.Background(), testProfile, "pharmacy_user", "readonly123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReadOnlyRole_InvalidTableOwnerRejectedBeforeIO(t *testing.T) {
	pools := queuePools(t)
	m := New(Options{TableOwner: "app owner"}, nil, nil)

	err := m.CreateReadOnlyRole(context.Background(), testProfile, "pharmacy_user", "readonly123")
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
	assert.Empty(t, pools.databases())
}

func TestCreateReadOnlyRole_ValidationBeforeIO(t *testing.T) {
	pools := queuePools(t)
	m := newManager(nil)
	ctx := context.Background()

	assert.ErrorIs(t, m.CreateReadOnlyRole(ctx, testProfile, "bad role", "pw"), common.ErrInvalidIdentifier)
	assert.ErrorIs(t, m.CreateReadOnlyRole(ctx, testProfile.WithDatabase("9db"), "reader", "pw"), common.ErrInvalidIdentifier)
	assert.ErrorIs(t, m.CreateReadOnlyRole(ctx, testProfile, "reader", ""), common.ErrValidation)
	assert.Empty(t, pools.databases())
}

func TestProvisioning_RejectsConcurrentCall(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	orig := openPool
	openPool = func(_ context.Context, _ models.ConnectionProfile, _ poolSettings) (*conn, error) {
		close(entered)
		<-release
		return nil, errors.New("unreachable")
	}
	t.Cleanup(func() { openPool = orig })

	m := newManager(&fakeMigrator{})
	done := m.CreateDatabaseAsync(context.Background(), testProfile)

	<-entered
	assert.ErrorIs(t, m.CreateDatabase(context.Background(), testProfile), common.ErrProvisioningInProgress)
	assert.ErrorIs(t,
		<-m.CreateReadOnlyRoleAsync(context.Background(), testProfile, "pharmacy_user", "readonly123"),
		common.ErrProvisioningInProgress)

	close(release)
	err := <-done
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrProvisioningInProgress)
	assert.True(t, m.provisioning.TryAcquire(1), "slot must be released after the first call returns")
}
