package auth

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

// memStore is an in-memory Store that counts every call.
type memStore struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	audit    []models.AuditLogEntry
	nextID   int64
	calls    int
	failAll  error
	failList error
}

func newMemStore() *memStore {
	return &memStore{accounts: map[int64]*models.Account{}}
}

func (s *memStore) enter() error {
	s.mu.Lock()
	s.calls++
	return s.failAll
}

func (s *memStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *memStore) CountUsers(context.Context) (int64, error) {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return int64(len(s.accounts)), nil
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, a := range s.accounts {
		if a.User.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *memStore) FindByID(_ context.Context, id int64) (*models.Account, error) {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) BootstrapAccount(_ context.Context, acct *models.Account) (*models.Account, error) {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(s.accounts) > 0 {
		return nil, common.ErrAlreadyExists
	}
	return s.insert(acct, nil)
}

func (s *memStore) CreateAccount(_ context.Context, acct *models.Account, actorID *int64) (*models.Account, error) {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.insert(acct, actorID)
}

// insert runs with s.mu held.
func (s *memStore) insert(acct *models.Account, actorID *int64) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.User.Username == acct.User.Username {
			return nil, common.ErrAlreadyExists
		}
	}
	s.nextID++
	acct.User.ID, acct.Employee.ID, acct.User.EmployeeID = s.nextID, s.nextID, s.nextID
	cp := *acct
	s.accounts[cp.User.ID] = &cp

	actor := actorID
	if actor == nil {
		actor = &cp.User.ID
	}
	s.audit = append(s.audit, models.AuditLogEntry{UserID: actor, ActionType: models.ActionCreate, TableName: "users", RecordID: &cp.User.ID})
	return acct, nil
}

func (s *memStore) DeleteAccount(_ context.Context, id int64, actorID int64) error {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := s.accounts[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.accounts, id)
	s.audit = append(s.audit, models.AuditLogEntry{UserID: &actorID, ActionType: models.ActionDelete, TableName: "users", RecordID: &id})
	return nil
}

func (s *memStore) SetPersistSession(_ context.Context, id int64, persist bool) error {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	a, ok := s.accounts[id]
	if !ok {
		return common.ErrNotFound
	}
	a.User.PersistSession = persist
	return nil
}

func (s *memStore) ListUsers(context.Context) ([]models.UserSummary, error) {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if s.failList != nil {
		return nil, s.failList
	}
	out := make([]models.UserSummary, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, models.UserSummary{
			ID: a.User.ID, Username: a.User.Username, EmployeeName: a.Employee.Name,
			Position: a.Employee.Position, Role: a.User.Role,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *memStore) AppendAudit(_ context.Context, entry *models.AuditLogEntry) error {
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *memStore) persistFlag(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.User.Username == username {
			return a.User.PersistSession
		}
	}
	return false
}
