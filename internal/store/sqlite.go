// Package store provides storage backends for the caregiver agent service.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists state to a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveConversation stores or replaces a conversation by ID.
func (s *SQLiteStore) SaveConversation(c models.Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("conversation ID cannot be empty")
	}
	turns, err := json.Marshal(c.Turns)
	if err != nil {
		return fmt.Errorf("failed to marshal turns for conversation %s: %w", c.ID, err)
	}
	_, err = s.db.Exec(`INSERT INTO conversations (id, category, stage, turns, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET category=excluded.category, stage=excluded.stage, turns=excluded.turns, updated_at=excluded.updated_at`,
		c.ID, c.Category, string(c.Stage), string(turns), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConversation failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	slog.Debug("SQLiteStore SaveConversation succeeded", "id", c.ID, "stage", c.Stage, "turns", len(c.Turns))
	return nil
}

// GetConversation returns the conversation for id, or nil when unknown.
func (s *SQLiteStore) GetConversation(id string) (*models.Conversation, error) {
	var c models.Conversation
	var stage, turns string
	err := s.db.QueryRow(`SELECT id, category, stage, turns, created_at, updated_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Category, &stage, &turns, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversation failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query conversation %s: %w", id, err)
	}
	c.Stage = models.ConversationStage(stage)
	if err := json.Unmarshal([]byte(turns), &c.Turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turns for conversation %s: %w", id, err)
	}
	return &c, nil
}

// AddRegisteredPhone records a phone number as belonging to a client.
func (s *SQLiteStore) AddRegisteredPhone(number, clientName string) error {
	_, err := s.db.Exec(`INSERT INTO registered_phones (number, client_name) VALUES (?, ?)
		ON CONFLICT(number) DO UPDATE SET client_name=excluded.client_name`, number, clientName)
	if err != nil {
		slog.Error("SQLiteStore AddRegisteredPhone failed", "error", err, "number", number)
		return fmt.Errorf("failed to register phone %s: %w", number, err)
	}
	return nil
}

// GetRegisteredPhone returns the client name for a registered number, or "" when unregistered.
func (s *SQLiteStore) GetRegisteredPhone(number string) (string, error) {
	var clientName string
	err := s.db.QueryRow(`SELECT client_name FROM registered_phones WHERE number = ?`, number).Scan(&clientName)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetRegisteredPhone failed", "error", err, "number", number)
		return "", fmt.Errorf("failed to query registered phone %s: %w", number, err)
	}
	return clientName, nil
}

// SaveCaregiverSchedule stores or replaces a caregiver's schedule record.
func (s *SQLiteStore) SaveCaregiverSchedule(sched models.CaregiverSchedule) error {
	if sched.CaregiverName == "" {
		return fmt.Errorf("caregiver name cannot be empty")
	}
	var lat, lng sql.NullFloat64
	if sched.Location != nil {
		lat = sql.NullFloat64{Float64: sched.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: sched.Location.Lng, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO caregiver_schedules (caregiver_name, client_name, phone, schedule, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(caregiver_name) DO UPDATE SET client_name=excluded.client_name, phone=excluded.phone, schedule=excluded.schedule, lat=excluded.lat, lng=excluded.lng`,
		sched.CaregiverName, sched.ClientName, sched.Phone, sched.Schedule, lat, lng)
	if err != nil {
		slog.Error("SQLiteStore SaveCaregiverSchedule failed", "error", err, "caregiver", sched.CaregiverName)
		return fmt.Errorf("failed to save schedule for %s: %w", sched.CaregiverName, err)
	}
	return nil
}

// GetCaregiverSchedule returns the schedule for a caregiver, or nil when none is recorded.
func (s *SQLiteStore) GetCaregiverSchedule(caregiverName string) (*models.CaregiverSchedule, error) {
	var sched models.CaregiverSchedule
	var lat, lng sql.NullFloat64
	err := s.db.QueryRow(`SELECT caregiver_name, client_name, phone, schedule, lat, lng FROM caregiver_schedules WHERE caregiver_name = ?`, caregiverName).
		Scan(&sched.CaregiverName, &sched.ClientName, &sched.Phone, &sched.Schedule, &lat, &lng)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetCaregiverSchedule failed", "error", err, "caregiver", caregiverName)
		return nil, fmt.Errorf("failed to query schedule for %s: %w", caregiverName, err)
	}
	if lat.Valid && lng.Valid {
		sched.Location = &models.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &sched, nil
}
