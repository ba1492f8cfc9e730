// Package models defines the core data structures for the caregiver agent service.
//
// It includes request/response types for the chat and clock-event endpoints,
// which are shared across modules.
package models

import (
	"errors"
	"fmt"
	"time"
)

// ScenarioType identifies the scripted scenario selected for a clock event.
type ScenarioType string

const (
	// ScenarioNoSchedule indicates the caregiver has no schedule on the calendar.
	ScenarioNoSchedule ScenarioType = "no_schedule"
	// ScenarioOutOfWindow indicates the clock event is outside the allowed time window.
	ScenarioOutOfWindow ScenarioType = "out_of_window"
	// ScenarioGPSOutOfRange indicates the reported location is too far from the client's home.
	ScenarioGPSOutOfRange ScenarioType = "gps_out_of_range"
	// ScenarioPhoneNotFound indicates the clock-in phone number is not registered.
	ScenarioPhoneNotFound ScenarioType = "phone_not_found"
	// ScenarioDuplicateCall indicates a duplicate clock event that needs no call.
	ScenarioDuplicateCall ScenarioType = "duplicate_call"
	// ScenarioSuccess indicates the clock event passed every rule.
	ScenarioSuccess ScenarioType = "success"
)

// Priority ranks how urgently a scenario needs coordinator attention.
type Priority string

const (
	// PriorityHigh requires immediate coordinator follow-up.
	PriorityHigh Priority = "high"
	// PriorityMedium requires follow-up during the shift.
	PriorityMedium Priority = "medium"
	// PriorityLow is informational only.
	PriorityLow Priority = "low"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for a chat message.
	MaxMessageLength = 4096
	// MaxNameLength defines the maximum allowed length for caregiver and client names.
	MaxNameLength = 200
)

// Error variables for better error handling and testability
var (
	ErrEmptyUserName      = errors.New("user_name cannot be empty")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrMessageTooLong     = errors.New("message exceeds maximum length")
	ErrNameTooLong        = errors.New("name exceeds maximum length")
	ErrEmptyCaregiverName = errors.New("caregiver_name cannot be empty")
	ErrEmptyPhoneNumber   = errors.New("phone_number cannot be empty")
	ErrMissingLocation    = errors.New("location with lat and lng is required")
	ErrInvalidTimestamp   = errors.New("timestamp must be in ISO-8601 format")
)

// Location is a GPS coordinate pair reported by the caregiver's device.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	UserName         string `json:"user_name"`
	ContactNumber    string `json:"contact_number"`
	ReasonForContact string `json:"reason_for_contact"`
	Message          string `json:"message"`
	ConversationID   string `json:"conversation_id,omitempty"` // optional; minted when absent
}

// Validate performs validation on a ChatRequest.
func (r *ChatRequest) Validate() error {
	if r.UserName == "" {
		return ErrEmptyUserName
	}
	if len(r.UserName) > MaxNameLength {
		return ErrNameTooLong
	}
	if r.Message == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ChatResponse is the reply for POST /chat.
type ChatResponse struct {
	Response         string   `json:"response"`
	ScenarioDetected string   `json:"scenario_detected,omitempty"`
	Suggestions      []string `json:"suggestions"`
	ConversationID   string   `json:"conversation_id"`
	ConversationStep int      `json:"conversation_step"`
}

// ClockInRequest is the payload for POST /clock-in.
type ClockInRequest struct {
	CaregiverName string    `json:"caregiver_name"`
	ClientName    string    `json:"client_name,omitempty"`
	PhoneNumber   string    `json:"phone_number"`
	Location      *Location `json:"location"`
	ScheduledTime string    `json:"scheduled_time"` // ISO-8601
	ActualTime    string    `json:"actual_time"`    // ISO-8601
	HasSchedule   bool      `json:"has_schedule"`
}

// Validate performs validation on a ClockInRequest.
func (r *ClockInRequest) Validate() error {
	if r.CaregiverName == "" {
		return ErrEmptyCaregiverName
	}
	if r.PhoneNumber == "" {
		return ErrEmptyPhoneNumber
	}
	if r.Location == nil {
		return ErrMissingLocation
	}
	return nil
}

// ClockOutRequest is the payload for POST /clock-out.
type ClockOutRequest struct {
	CaregiverName string    `json:"caregiver_name"`
	ClientName    string    `json:"client_name"`
	PhoneNumber   string    `json:"phone_number"`
	Location      *Location `json:"location"`
	ScheduledTime string    `json:"scheduled_time"`
	ActualTime    string    `json:"actual_time"`
}

// Validate performs validation on a ClockOutRequest.
func (r *ClockOutRequest) Validate() error {
	if r.CaregiverName == "" {
		return ErrEmptyCaregiverName
	}
	if r.PhoneNumber == "" {
		return ErrEmptyPhoneNumber
	}
	if r.Location == nil {
		return ErrMissingLocation
	}
	return nil
}

// ParseEventTimes parses the scheduled and actual timestamps of a clock event.
// Malformed timestamps return an error wrapping ErrInvalidTimestamp so callers
// can map them to a client error instead of silently defaulting.
func ParseEventTimes(scheduled, actual string) (time.Time, time.Time, error) {
	s, err := time.Parse(time.RFC3339, scheduled)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: scheduled_time %q", ErrInvalidTimestamp, scheduled)
	}
	a, err := time.Parse(time.RFC3339, actual)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: actual_time %q", ErrInvalidTimestamp, actual)
	}
	return s, a, nil
}

// ScenarioResponse is the outward result of evaluating a clock event.
type ScenarioResponse struct {
	ScenarioType    ScenarioType `json:"scenario_type"`
	AgentScript     string       `json:"agent_script"`
	ActionsRequired []string     `json:"actions_required"`
	Priority        Priority     `json:"priority"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
