package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashier() NewUser {
	salary := 1500.0
	return NewUser{
		Username:     "bob",
		Password:     "bobpass1",
		EmployeeName: "Bob Brown",
		Position:     "Cashier",
		Salary:       &salary,
		Role:         models.RoleUser,
	}
}

// signedInAdmin returns an admin session over a store that also holds bob.
func signedInAdmin(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	m, store := bootstrapped(t)
	ctx := context.Background()
	require.NoError(t, m.Authenticate(ctx, "admin", "secret123", false))
	require.NoError(t, m.CreateUser(ctx, cashier()))
	return m, store
}

func TestCreateUser_ByAdmin(t *testing.T) {
	m, store := signedInAdmin(t)

	acct, err := store.FindByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, acct.User.Role)
	assert.Equal(t, "Cashier", acct.Employee.Position)
	assert.True(t, m.codec.Verify("bobpass1", acct.User.PasswordHash))

	s, _ := m.CurrentSession()
	last := store.audit[len(store.audit)-1]
	require.NotNil(t, last.UserID)
	assert.Equal(t, s.User.ID, *last.UserID)
}

func TestCreateUser_Duplicate(t *testing.T) {
	m, store := signedInAdmin(t)

	err := m.CreateUser(context.Background(), cashier())
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Equal(t, 2, store.userCount())
}

func TestCreateUser_Validation(t *testing.T) {
	m, store := signedInAdmin(t)
	ctx := context.Background()
	before := store.callCount()

	bad := []func(*NewUser){
		func(u *NewUser) { u.Username = "" },
		func(u *NewUser) { u.Password = "short" },
		func(u *NewUser) { u.EmployeeName = " " },
		func(u *NewUser) { u.Role = "superuser" },
		func(u *NewUser) { s := -1.0; u.Salary = &s },
	}
	for _, mutate := range bad {
		nu := cashier()
		nu.Username = "carol"
		mutate(&nu)
		assert.ErrorIs(t, m.CreateUser(ctx, nu), common.ErrValidation)
	}
	assert.Equal(t, before, store.callCount())
}

func TestAdminOperations_NonAdminNeverReachesStore(t *testing.T) {
	m, store := signedInAdmin(t)
	ctx := context.Background()

	m.Logout()
	require.NoError(t, m.Authenticate(ctx, "bob", "bobpass1", false))
	require.False(t, m.IsAdmin())

	before := store.callCount()

	assert.ErrorIs(t, m.CreateUser(ctx, NewUser{Username: "eve"}), common.ErrAuthorization)
	assert.ErrorIs(t, m.DeleteUser(ctx, 1), common.ErrAuthorization)
	_, err := m.ListUsers(ctx)
	assert.ErrorIs(t, err, common.ErrAuthorization)
	_, err = m.GetUser(ctx, 1)
	assert.ErrorIs(t, err, common.ErrAuthorization)

	assert.Equal(t, before, store.callCount())
}

func TestAdminOperations_SignedOut(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)
	ctx := context.Background()

	assert.ErrorIs(t, m.CreateUser(ctx, cashier()), common.ErrAuthorization)
	assert.ErrorIs(t, m.DeleteUser(ctx, 1), common.ErrAuthorization)
	_, err := m.ListUsers(ctx)
	assert.ErrorIs(t, err, common.ErrAuthorization)
	assert.Zero(t, store.callCount())
}

func TestDeleteUser_SelfDeleteRefused(t *testing.T) {
	m, store := signedInAdmin(t)
	s, _ := m.CurrentSession()
	before := store.callCount()

	err := m.DeleteUser(context.Background(), s.User.ID)
	assert.ErrorIs(t, err, common.ErrSelfDelete)
	assert.ErrorIs(t, err, common.ErrAuthorization)
	assert.Equal(t, before, store.callCount())
	assert.Equal(t, 2, store.userCount())
}

func TestDeleteUser(t *testing.T) {
	m, store := signedInAdmin(t)
	ctx := context.Background()

	bob, err := store.FindByUsername(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, m.DeleteUser(ctx, bob.User.ID))
	assert.Equal(t, 1, store.userCount())

	assert.ErrorIs(t, m.DeleteUser(ctx, bob.User.ID), common.ErrNotFound)
}

func TestGetUser(t *testing.T) {
	m, store := signedInAdmin(t)
	ctx := context.Background()

	bob, err := store.FindByUsername(ctx, "bob")
	require.NoError(t, err)

	got, err := m.GetUser(ctx, bob.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserSummary{
		ID: bob.User.ID, Username: "bob", EmployeeName: "Bob Brown", Position: "Cashier", Role: models.RoleUser,
	}, got)

	_, err = m.GetUser(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	m, store := signedInAdmin(t)
	ctx := context.Background()

	list, err := m.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "admin", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)
	assert.Equal(t, "Bob Brown", list[1].EmployeeName)

	store.failList = common.ErrStoreUnavailable
	list, err = m.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRecordMutation(t *testing.T) {
	m, store := signedInAdmin(t)
	ctx := context.Background()
	rid := int64(42)

	require.NoError(t, m.RecordMutation(ctx, models.ActionUpdate, "medicines", &rid, "price 10 -> 12"))
	last := store.audit[len(store.audit)-1]
	assert.Equal(t, "medicines", last.TableName)
	assert.Equal(t, &rid, last.RecordID)

	assert.ErrorIs(t, m.RecordMutation(ctx, "", "medicines", nil, ""), common.ErrValidation)

	m.Logout()
	assert.ErrorIs(t, m.RecordMutation(ctx, models.ActionUpdate, "medicines", nil, ""), common.ErrAuthorization)
}
