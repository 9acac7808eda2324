package auth

import (
	"time"

	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/google/uuid"
)

// Session is the signed-in operator. It lives only in memory.
type Session struct {
	ID        uuid.UUID
	User      models.User
	Employee  models.Employee
	StartedAt time.Time
}

// UserInfo is what a status line shows about the operator.
type UserInfo struct {
	Username     string
	EmployeeName string
	Position     string
	Role         models.Role
}

// NewUser is the input of CreateUser.
type NewUser struct {
	Username     string
	Password     string
	EmployeeName string
	Position     string
	Salary       *float64
	Role         models.Role
}
