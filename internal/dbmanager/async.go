package dbmanager

import (
	"context"

	"github.com/dmitrijs2005/pharmgate/internal/models"
)

func async(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	return ch
}

func (m *Manager) ConnectAsync(ctx context.Context, p models.ConnectionProfile) <-chan error {
	return async(func() error { return m.Connect(ctx, p) })
}

func (m *Manager) CreateDatabaseAsync(ctx context.Context, p models.ConnectionProfile) <-chan error {
	return async(func() error { return m.CreateDatabase(ctx, p) })
}

func (m *Manager) CreateReadOnlyRoleAsync(ctx context.Context, adminProfile models.ConnectionProfile, roleName, rolePassword string) <-chan error {
	return async(func() error { return m.CreateReadOnlyRole(ctx, adminProfile, roleName, rolePassword) })
}
