// Package models defines the identity records shared by the store, the auth
// manager and the CLI.
package models

// Employee is the profile paired one-to-one with a User.
type Employee struct {
	ID       int64
	Name     string
	Position string
	Salary   *float64
}

// User is an authentication principal.
type User struct {
	ID             int64
	EmployeeID     int64
	Username       string
	PasswordHash   string
	Role           Role
	PersistSession bool
}

// Account is a User together with its Employee.
type Account struct {
	User     User
	Employee Employee
}

// UserSummary is one row of the admin user listing.
type UserSummary struct {
	ID           int64
	Username     string
	EmployeeName string
	Position     string
	Role         Role
}
