package models

import (
	"net"
	"net/url"
	"strconv"
)

// ConnectionProfile describes how to reach the relational store.
type ConnectionProfile struct {
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	Persisted bool
}

// WithDatabase returns a copy of p pointing at another database.
func (p ConnectionProfile) WithDatabase(name string) ConnectionProfile {
	p.Database = name
	return p
}

// URL renders p as a postgres:// URL with every component escaped.
func (p ConnectionProfile) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	if p.Username != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.Username, p.Password)
		} else {
			u.User = url.User(p.Username)
		}
	}
	return u.String()
}

// Redacted is p without its password, safe to log.
func (p ConnectionProfile) Redacted() ConnectionProfile {
	p.Password = ""
	return p
}
