// Package store provides storage backends for the caregiver agent service.
//
// It holds the shared read-mostly state (registered phones, caregiver
// schedules) and the per-conversation turn histories. An in-memory store is
// the default; SQLite and PostgreSQL backends persist across restarts.
package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
)

// Store is the persistence interface shared by all backends.
//
// Lookups that find nothing return the zero value and no error; errors are
// reserved for backend faults.
type Store interface {
	SaveConversation(c models.Conversation) error
	GetConversation(id string) (*models.Conversation, error)

	AddRegisteredPhone(number, clientName string) error
	GetRegisteredPhone(number string) (string, error)

	SaveCaregiverSchedule(s models.CaregiverSchedule) error
	GetCaregiverSchedule(caregiverName string) (*models.CaregiverSchedule, error)
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore keeps all state in process memory; it is lost on restart.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]models.Conversation
	phones        map[string]string
	schedules     map[string]models.CaregiverSchedule
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]models.Conversation),
		phones:        make(map[string]string),
		schedules:     make(map[string]models.CaregiverSchedule),
	}
}

// SaveConversation stores or replaces a conversation by ID.
func (s *InMemoryStore) SaveConversation(c models.Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("conversation ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy the turn slice so later appends by the caller cannot alias stored state.
	turns := make([]models.Turn, len(c.Turns))
	copy(turns, c.Turns)
	c.Turns = turns
	s.conversations[c.ID] = c
	return nil
}

// GetConversation returns the conversation for id, or nil when unknown.
func (s *InMemoryStore) GetConversation(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	turns := make([]models.Turn, len(c.Turns))
	copy(turns, c.Turns)
	c.Turns = turns
	return &c, nil
}

// AddRegisteredPhone records a phone number as belonging to a client.
func (s *InMemoryStore) AddRegisteredPhone(number, clientName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phones[number] = clientName
	return nil
}

// GetRegisteredPhone returns the client name for a registered number, or "" when unregistered.
func (s *InMemoryStore) GetRegisteredPhone(number string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phones[number], nil
}

// SaveCaregiverSchedule stores or replaces a caregiver's schedule record.
func (s *InMemoryStore) SaveCaregiverSchedule(sched models.CaregiverSchedule) error {
	if sched.CaregiverName == "" {
		return fmt.Errorf("caregiver name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sched.CaregiverName] = sched
	return nil
}

// GetCaregiverSchedule returns the schedule for a caregiver, or nil when none is recorded.
func (s *InMemoryStore) GetCaregiverSchedule(caregiverName string) (*models.CaregiverSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[caregiverName]
	if !ok {
		return nil, nil
	}
	return &sched, nil
}
