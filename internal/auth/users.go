package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

// CreateUser adds an account on behalf of the signed-in administrator.
func (m *Manager) CreateUser(ctx context.Context, nu NewUser) error {
	s, err := m.requireAdmin(ctx, "create user")
	if err != nil {
		return err
	}

	nu.Username, nu.EmployeeName = strings.TrimSpace(nu.Username), strings.TrimSpace(nu.EmployeeName)
	if err := m.validateAccount(nu.Username, nu.Password, nu.EmployeeName); err != nil {
		return err
	}
	if !nu.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", common.ErrValidation, nu.Role)
	}
	if nu.Salary != nil && *nu.Salary < 0 {
		return fmt.Errorf("%w: salary cannot be negative", common.ErrValidation)
	}

	_, err = m.store.FindByUsername(ctx, nu.Username)
	switch {
	case err == nil:
		return fmt.Errorf("%w: username %q", common.ErrAlreadyExists, nu.Username)
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("create user: %w", err)
	}

	hash, err := m.codec.Hash(nu.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	acct := &models.Account{
		User:     models.User{Username: nu.Username, PasswordHash: hash, Role: nu.Role},
		Employee: models.Employee{Name: nu.EmployeeName, Position: strings.TrimSpace(nu.Position), Salary: nu.Salary},
	}
	actor := s.User.ID
	if _, err := m.store.CreateAccount(ctx, acct, &actor); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	m.log.Info(ctx, "user created", "username", nu.Username, "role", nu.Role, "by", s.User.Username, "session_id", s.ID)
	return nil
}

// GetUser returns the account with the given id. Administrators only.
func (m *Manager) GetUser(ctx context.Context, userID int64) (models.UserSummary, error) {
	if _, err := m.requireAdmin(ctx, "get user"); err != nil {
		return models.UserSummary{}, err
	}

	acct, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return models.UserSummary{
		ID:           acct.User.ID,
		Username:     acct.User.Username,
		EmployeeName: acct.Employee.Name,
		Position:     acct.Employee.Position,
		Role:         acct.User.Role,
	}, nil
}

// DeleteUser removes an account. The signed-in administrator cannot delete
// their own account (common.ErrSelfDelete).
func (m *Manager) DeleteUser(ctx context.Context, userID int64) error {
	s, err := m.requireAdmin(ctx, "delete user")
	if err != nil {
		return err
	}
	if userID == s.User.ID {
		m.log.Debug(ctx, "self-delete refused", "user_id", userID)
		return common.ErrSelfDelete
	}

	if err := m.store.DeleteAccount(ctx, userID, s.User.ID); err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}

	m.log.Info(ctx, "user deleted", "user_id", userID, "by", s.User.Username, "session_id", s.ID)
	return nil
}

// ListUsers returns every account ordered by username. Store failures yield
// an empty list.
func (m *Manager) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	if _, err := m.requireAdmin(ctx, "list users"); err != nil {
		return nil, err
	}

	list, err := m.store.ListUsers(ctx)
	if err != nil {
		m.log.Warn(ctx, "cannot list users", "error", err)
		return []models.UserSummary{}, nil
	}
	return list, nil
}

// RecordMutation appends an audit entry for a data change made by the
// signed-in operator.
func (m *Manager) RecordMutation(ctx context.Context, action, table string, recordID *int64, details string) error {
	s, ok := m.CurrentSession()
	if !ok {
		return fmt.Errorf("%w: sign in first", common.ErrAuthorization)
	}
	if strings.TrimSpace(action) == "" || strings.TrimSpace(table) == "" {
		return fmt.Errorf("%w: action and table are required", common.ErrValidation)
	}

	uid := s.User.ID
	entry := &models.AuditLogEntry{UserID: &uid, ActionType: action, TableName: table, RecordID: recordID, Details: details}
	if err := m.store.AppendAudit(ctx, entry); err != nil {
		m.log.Error(ctx, "audit write failed", "session_id", s.ID, "table", table, "error", err)
		return fmt.Errorf("record %s on %s: %w", action, table, err)
	}
	return nil
}
