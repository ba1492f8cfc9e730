// Package store provides storage backends for the caregiver agent service.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists state to a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveConversation stores or replaces a conversation by ID.
func (s *PostgresStore) SaveConversation(c models.Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("conversation ID cannot be empty")
	}
	turns, err := json.Marshal(c.Turns)
	if err != nil {
		return fmt.Errorf("failed to marshal turns for conversation %s: %w", c.ID, err)
	}
	_, err = s.db.Exec(`INSERT INTO conversations (id, category, stage, turns, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(id) DO UPDATE SET category=EXCLUDED.category, stage=EXCLUDED.stage, turns=EXCLUDED.turns, updated_at=EXCLUDED.updated_at`,
		c.ID, c.Category, string(c.Stage), string(turns), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveConversation failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	return nil
}

// GetConversation returns the conversation for id, or nil when unknown.
func (s *PostgresStore) GetConversation(id string) (*models.Conversation, error) {
	var c models.Conversation
	var stage, turns string
	err := s.db.QueryRow(`SELECT id, category, stage, turns, created_at, updated_at FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.Category, &stage, &turns, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversation failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query conversation %s: %w", id, err)
	}
	c.Stage = models.ConversationStage(stage)
	if err := json.Unmarshal([]byte(turns), &c.Turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turns for conversation %s: %w", id, err)
	}
	return &c, nil
}

// AddRegisteredPhone records a phone number as belonging to a client.
func (s *PostgresStore) AddRegisteredPhone(number, clientName string) error {
	_, err := s.db.Exec(`INSERT INTO registered_phones (number, client_name) VALUES ($1, $2)
		ON CONFLICT(number) DO UPDATE SET client_name=EXCLUDED.client_name`, number, clientName)
	if err != nil {
		slog.Error("PostgresStore AddRegisteredPhone failed", "error", err, "number", number)
		return fmt.Errorf("failed to register phone %s: %w", number, err)
	}
	return nil
}

// GetRegisteredPhone returns the client name for a registered number, or "" when unregistered.
func (s *PostgresStore) GetRegisteredPhone(number string) (string, error) {
	var clientName string
	err := s.db.QueryRow(`SELECT client_name FROM registered_phones WHERE number = $1`, number).Scan(&clientName)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetRegisteredPhone failed", "error", err, "number", number)
		return "", fmt.Errorf("failed to query registered phone %s: %w", number, err)
	}
	return clientName, nil
}

// SaveCaregiverSchedule stores or replaces a caregiver's schedule record.
func (s *PostgresStore) SaveCaregiverSchedule(sched models.CaregiverSchedule) error {
	if sched.CaregiverName == "" {
		return fmt.Errorf("caregiver name cannot be empty")
	}
	var lat, lng sql.NullFloat64
	if sched.Location != nil {
		lat = sql.NullFloat64{Float64: sched.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: sched.Location.Lng, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO caregiver_schedules (caregiver_name, client_name, phone, schedule, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(caregiver_name) DO UPDATE SET client_name=EXCLUDED.client_name, phone=EXCLUDED.phone, schedule=EXCLUDED.schedule, lat=EXCLUDED.lat, lng=EXCLUDED.lng`,
		sched.CaregiverName, sched.ClientName, sched.Phone, sched.Schedule, lat, lng)
	if err != nil {
		slog.Error("PostgresStore SaveCaregiverSchedule failed", "error", err, "caregiver", sched.CaregiverName)
		return fmt.Errorf("failed to save schedule for %s: %w", sched.CaregiverName, err)
	}
	return nil
}

// GetCaregiverSchedule returns the schedule for a caregiver, or nil when none is recorded.
func (s *PostgresStore) GetCaregiverSchedule(caregiverName string) (*models.CaregiverSchedule, error) {
	var sched models.CaregiverSchedule
	var lat, lng sql.NullFloat64
	err := s.db.QueryRow(`SELECT caregiver_name, client_name, phone, schedule, lat, lng FROM caregiver_schedules WHERE caregiver_name = $1`, caregiverName).
		Scan(&sched.CaregiverName, &sched.ClientName, &sched.Phone, &sched.Schedule, &lat, &lng)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetCaregiverSchedule failed", "error", err, "caregiver", caregiverName)
		return nil, fmt.Errorf("failed to query schedule for %s: %w", caregiverName, err)
	}
	if lat.Valid && lng.Valid {
		sched.Location = &models.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &sched, nil
}
