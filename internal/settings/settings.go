// Package settings persists user preferences in a JSON file:
//
//	{
//	  "database": {"host": "localhost", "port": 5432, "database": "pharmacy",
//	               "username": "postgres", "password": "<vault ciphertext>"},
//	  "windows":  {"main": {"x": 0, "y": 0, "width": 1280, "height": 800}},
//	  "theme":    "dark"
//	}
//
// A missing or unreadable file behaves as empty settings. The database
// password is only ever written in encrypted form.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/filex"
	"github.com/dmitrijs2005/pharmgate/internal/logging"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

const (
	keyDatabase = "database"
	keyWindows  = "windows"
)

// Cipher protects the remembered password. *vault.Vault implements it.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type databaseEntry struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// WindowGeometry is the saved placement of a named window.
type WindowGeometry struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Maximized bool `json:"maximized,omitempty"`
}

type Store struct {
	path   string
	cipher Cipher
	log    logging.Logger

	mu sync.Mutex
}

func New(path string, cipher Cipher, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{path: path, cipher: cipher, log: log.With("component", "settings")}
}

// Path is the settings file location.
func (s *Store) Path() string { return s.path }

// LoadProfile returns the remembered connection profile. When the password
// cannot be decrypted the profile is returned with an empty password.
func (s *Store) LoadProfile() (models.ConnectionProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e databaseEntry
	if !s.get(s.load(), keyDatabase, &e) {
		return models.ConnectionProfile{}, false
	}

	p := models.ConnectionProfile{
		Host:      e.Host,
		Port:      e.Port,
		Database:  e.Database,
		Username:  e.Username,
		Persisted: true,
	}
	if e.Password != "" {
		pw, err := s.cipher.Decrypt(e.Password)
		if err != nil {
			s.log.Warn(context.Background(), "remembered password is unusable", "error", err)
		}
		p.Password = pw
	}
	return p, true
}

// SaveProfile remembers p, encrypting its password.
func (s *Store) SaveProfile(p models.ConnectionProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := databaseEntry{Host: p.Host, Port: p.Port, Database: p.Database, Username: p.Username}
	if p.Password != "" {
		ct, err := s.cipher.Encrypt(p.Password)
		if err != nil {
			return fmt.Errorf("encrypt password: %w", err)
		}
		e.Password = ct
	}

	data := s.load()
	if err := s.set(data, keyDatabase, e); err != nil {
		return err
	}
	return s.save(data)
}

// ForgetProfile drops the remembered connection profile.
func (s *Store) ForgetProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	if _, ok := data[keyDatabase]; !ok {
		return nil
	}
	delete(data, keyDatabase)
	return s.save(data)
}

func (s *Store) Window(name string) (WindowGeometry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var windows map[string]WindowGeometry
	if !s.get(s.load(), keyWindows, &windows) {
		return WindowGeometry{}, false
	}
	g, ok := windows[name]
	return g, ok
}

func (s *Store) SetWindow(name string, g WindowGeometry) error {
	if name == "" {
		return fmt.Errorf("%w: window name is required", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	windows := map[string]WindowGeometry{}
	if !s.get(data, keyWindows, &windows) || windows == nil {
		windows = map[string]WindowGeometry{}
	}
	windows[name] = g

	if err := s.set(data, keyWindows, windows); err != nil {
		return err
	}
	return s.save(data)
}

// Get decodes the value stored under key into dst.
func (s *Store) Get(key string, dst any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(s.load(), key, dst)
}

// Set stores v under key. The "database" and "windows" keys have their own
// accessors and are rejected here.
func (s *Store) Set(key string, v any) error {
	if key == "" || key == keyDatabase || key == keyWindows {
		return fmt.Errorf("%w: reserved or empty settings key %q", common.ErrValidation, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	if err := s.set(data, key, v); err != nil {
		return err
	}
	return s.save(data)
}

func (s *Store) load() map[string]json.RawMessage {
	data := map[string]json.RawMessage{}

	raw, ok, err := filex.ReadOptional(s.path)
	if err != nil {
		s.log.Warn(context.Background(), "cannot read settings", "path", s.path, "error", err)
		return data
	}
	if !ok {
		return data
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		s.log.Warn(context.Background(), "settings file is corrupt, ignoring it", "path", s.path, "error", err)
		return map[string]json.RawMessage{}
	}
	if data == nil {
		data = map[string]json.RawMessage{}
	}
	return data
}

func (s *Store) get(data map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := data[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn(context.Background(), "ignoring malformed setting", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) set(data map[string]json.RawMessage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	data[key] = raw
	return nil
}

func (s *Store) save(data map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return filex.WritePrivate(s.path, out)
}
