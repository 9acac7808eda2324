package models

import "time"

// Audit action types written by this module.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
)

// AuditLogEntry is an append-only record of a data mutation. UserID is nil
// once the acting user has been deleted.
type AuditLogEntry struct {
	ID         int64
	UserID     *int64
	ActionType string
	TableName  string
	RecordID   *int64
	Timestamp  time.Time
	Details    string
}
