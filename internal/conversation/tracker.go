// Package conversation tracks per-caller turn history and the explicit
// conversation stage used to pick scripted replies.
//
// Conversations are keyed by generated identifiers and progress through a
// forward-only stage machine: opening -> gathering -> solution -> complete.
// All mutations to a single conversation are serialized; different
// conversations never block one another.
package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
	"github.com/google/uuid"
)

// CompletedPolicy decides what happens when a completed conversation
// receives a new inbound message.
type CompletedPolicy string

const (
	// PolicyStartNew mints a fresh conversation for the new message.
	PolicyStartNew CompletedPolicy = "start_new"
	// PolicyTerminal replies with the terminal follow-up and records nothing.
	PolicyTerminal CompletedPolicy = "terminal"
)

// Defaults for stage thresholds. The solution threshold counts turns (user
// and assistant both), so 6 turns is three full exchanges.
const (
	DefaultSolutionThreshold = 6
	DefaultMaxTurns          = 20
)

// ErrConversationComplete is returned when a turn is appended to a
// conversation that has already reached the complete stage.
var ErrConversationComplete = errors.New("conversation is complete")

// Opts holds configuration options for the Tracker.
type Opts struct {
	SolutionThresholds map[string]int // per-category turn count that moves a conversation to the solution stage
	DefaultThreshold   int
	MaxTurns           int
	Policy             CompletedPolicy
}

// Option defines a configuration option for the Tracker.
type Option func(*Opts)

// WithSolutionThreshold sets the solution-stage turn threshold for one category.
func WithSolutionThreshold(category string, turns int) Option {
	return func(o *Opts) {
		if o.SolutionThresholds == nil {
			o.SolutionThresholds = make(map[string]int)
		}
		o.SolutionThresholds[category] = turns
	}
}

// WithDefaultSolutionThreshold sets the solution-stage threshold used when a
// category has no specific one.
func WithDefaultSolutionThreshold(turns int) Option {
	return func(o *Opts) { o.DefaultThreshold = turns }
}

// WithMaxTurns sets the turn count at which a conversation completes.
func WithMaxTurns(turns int) Option {
	return func(o *Opts) { o.MaxTurns = turns }
}

// WithCompletedPolicy sets the completed-conversation policy.
func WithCompletedPolicy(p CompletedPolicy) Option {
	return func(o *Opts) { o.Policy = p }
}

// Tracker manages conversation histories on top of a Store.
type Tracker struct {
	st  store.Store
	cfg Opts

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a Tracker backed by the given store.
func NewTracker(st store.Store, opts ...Option) *Tracker {
	cfg := Opts{
		DefaultThreshold: DefaultSolutionThreshold,
		MaxTurns:         DefaultMaxTurns,
		Policy:           PolicyStartNew,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("conversation.NewTracker: creating tracker", "default_threshold", cfg.DefaultThreshold, "max_turns", cfg.MaxTurns, "policy", cfg.Policy)
	return &Tracker{st: st, cfg: cfg, locks: make(map[string]*sync.Mutex)}
}

// NewConversationID mints a unique conversation identifier.
func NewConversationID() string {
	return uuid.NewString()
}

// Policy returns the configured completed-conversation policy.
func (t *Tracker) Policy() CompletedPolicy {
	return t.cfg.Policy
}

// lockFor returns the mutex serializing access to one conversation ID.
func (t *Tracker) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// Get returns the conversation for id, or nil when unknown.
func (t *Tracker) Get(id string) (*models.Conversation, error) {
	return t.st.GetConversation(id)
}

// History returns the ordered turn sequence for a conversation.
// Unknown conversations have an empty history.
func (t *Tracker) History(id string) ([]models.Turn, error) {
	c, err := t.st.GetConversation(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return c.Turns, nil
}

// TurnCount returns the number of recorded turns for a conversation.
func (t *Tracker) TurnCount(id string) (int, error) {
	turns, err := t.History(id)
	if err != nil {
		return 0, err
	}
	return len(turns), nil
}

// AppendTurn atomically appends a single turn to a conversation, creating it
// when missing. Completed conversations reject new turns.
func (t *Tracker) AppendTurn(id string, role models.TurnRole, text string) error {
	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	c, err := t.loadOrCreate(id, "")
	if err != nil {
		return err
	}
	if c.Stage == models.StageComplete {
		return fmt.Errorf("cannot append to conversation %s: %w", id, ErrConversationComplete)
	}
	c.Turns = append(c.Turns, models.Turn{Role: role, Content: text, Timestamp: time.Now()})
	t.advanceStage(c)
	c.UpdatedAt = time.Now()
	return t.st.SaveConversation(*c)
}

// RecordExchange atomically appends a user turn and the agent's reply to a
// conversation, advancing its stage. The updated conversation is returned.
// Completed conversations reject exchanges with ErrConversationComplete.
func (t *Tracker) RecordExchange(id, category, userText, assistantText string) (models.Conversation, error) {
	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	c, err := t.loadOrCreate(id, category)
	if err != nil {
		return models.Conversation{}, err
	}
	if c.Stage == models.StageComplete {
		slog.Warn("conversation.RecordExchange: conversation already complete", "id", id)
		return models.Conversation{}, fmt.Errorf("cannot record exchange on conversation %s: %w", id, ErrConversationComplete)
	}

	now := time.Now()
	c.Category = category
	c.Turns = append(c.Turns,
		models.Turn{Role: models.TurnRoleUser, Content: userText, Timestamp: now},
		models.Turn{Role: models.TurnRoleAssistant, Content: assistantText, Timestamp: now},
	)
	t.advanceStage(c)
	c.UpdatedAt = now

	if err := t.st.SaveConversation(*c); err != nil {
		slog.Error("conversation.RecordExchange: save failed", "error", err, "id", id)
		return models.Conversation{}, err
	}
	slog.Debug("conversation.RecordExchange: exchange recorded", "id", id, "category", category, "turns", len(c.Turns), "stage", c.Stage)
	return *c, nil
}

// loadOrCreate fetches a conversation or initializes a new opening one.
func (t *Tracker) loadOrCreate(id, category string) (*models.Conversation, error) {
	c, err := t.st.GetConversation(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		now := time.Now()
		c = &models.Conversation{
			ID:        id,
			Category:  category,
			Stage:     models.StageOpening,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return c, nil
}

// advanceStage moves the conversation forward based on its turn count.
// Transitions are monotonic; a conversation never returns to an earlier stage.
func (t *Tracker) advanceStage(c *models.Conversation) {
	next := c.Stage
	turns := len(c.Turns)

	if turns > 0 && next.CanAdvanceTo(models.StageGathering) {
		next = models.StageGathering
	}
	if turns >= t.solutionThreshold(c.Category) && next.CanAdvanceTo(models.StageSolution) {
		next = models.StageSolution
	}
	if t.cfg.MaxTurns > 0 && turns >= t.cfg.MaxTurns {
		next = models.StageComplete
	}

	if next != c.Stage {
		slog.Debug("conversation.advanceStage: stage advanced", "id", c.ID, "from", c.Stage, "to", next, "turns", turns)
		c.Stage = next
	}
}

// solutionThreshold returns the solution-stage turn threshold for a category.
func (t *Tracker) solutionThreshold(category string) int {
	if v, ok := t.cfg.SolutionThresholds[category]; ok {
		return v
	}
	return t.cfg.DefaultThreshold
}
