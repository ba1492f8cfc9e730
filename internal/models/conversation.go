// Package models defines conversation state structures for the caregiver agent.
package models

import "time"

// TurnRole identifies who produced a conversation turn.
type TurnRole string

const (
	// TurnRoleUser is a turn written by the caregiver.
	TurnRoleUser TurnRole = "user"
	// TurnRoleAssistant is a turn written by the agent.
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationStage is the explicit stage of a tracked conversation.
// Stages only move forward: opening -> gathering -> solution -> complete.
type ConversationStage string

const (
	// StageOpening means no turns have been recorded yet.
	StageOpening ConversationStage = "opening"
	// StageGathering means the agent is collecting detail from the caregiver.
	StageGathering ConversationStage = "gathering"
	// StageSolution means the agent has moved on to providing a resolution.
	StageSolution ConversationStage = "solution"
	// StageComplete means the conversation is finished and accepts no more turns.
	StageComplete ConversationStage = "complete"
)

// stageOrder maps stages to their position in the forward-only progression.
var stageOrder = map[ConversationStage]int{
	StageOpening:   0,
	StageGathering: 1,
	StageSolution:  2,
	StageComplete:  3,
}

// CanAdvanceTo reports whether moving from s to next respects the forward-only rule.
func (s ConversationStage) CanAdvanceTo(next ConversationStage) bool {
	return stageOrder[next] >= stageOrder[s]
}

// Turn is a single message in a conversation.
type Turn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation holds the ordered turn history and stage for one caller.
type Conversation struct {
	ID        string            `json:"id"`
	Category  string            `json:"category,omitempty"`
	Stage     ConversationStage `json:"stage"`
	Turns     []Turn            `json:"turns"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CaregiverSchedule is the registered schedule record for a caregiver,
// including the expected service location used by the GPS rule.
type CaregiverSchedule struct {
	CaregiverName string    `json:"caregiver_name"`
	ClientName    string    `json:"client_name"`
	Phone         string    `json:"phone"`
	Schedule      string    `json:"schedule"`
	Location      *Location `json:"location,omitempty"`
}
