// Package chat implements the caregiver support agent's message flow.
//
// The engine classifies each inbound message into a scenario category, builds
// a reply from the category's script (optionally rewritten by the GenAI
// client), and records the exchange against a tracked conversation. GenAI
// failures never surface to the caller; the scripted reply is the floor.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/conversation"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/genai"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/scenario"
)

const systemPrompt = "You are Rosella, a care coordination agent calling from Independence Care. " +
	"Be professional and empathetic, and follow the company scripts exactly where they apply."

// Engine processes chat messages for the caregiver support agent.
type Engine struct {
	tracker *conversation.Tracker
	gen     genai.ClientInterface // nil disables generation; replies stay scripted
}

// NewEngine creates a chat engine. A nil GenAI client is allowed and keeps
// every reply on the scripted templates.
func NewEngine(tracker *conversation.Tracker, gen genai.ClientInterface) *Engine {
	return &Engine{tracker: tracker, gen: gen}
}

// ProcessMessage handles one inbound chat message and returns the agent reply.
// A missing conversation ID mints a new conversation. The request must already
// be validated.
func (e *Engine) ProcessMessage(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	id := req.ConversationID
	if id == "" {
		id = conversation.NewConversationID()
	}

	category := scenario.Classify(req.Message, req.ReasonForContact)
	tmpl, err := scenario.Lookup(category)
	if err != nil {
		slog.Error("Engine.ProcessMessage: template lookup failed", "error", err, "category", category)
		return models.ChatResponse{}, err
	}

	existing, err := e.tracker.Get(id)
	if err != nil {
		slog.Error("Engine.ProcessMessage: conversation lookup failed", "error", err, "conversation_id", id)
		return models.ChatResponse{}, fmt.Errorf("failed to load conversation: %w", err)
	}

	if existing != nil && existing.Stage == models.StageComplete {
		switch e.tracker.Policy() {
		case conversation.PolicyTerminal:
			// Completed conversations get the closing script and record nothing.
			slog.Debug("Engine.ProcessMessage: conversation complete, terminal policy", "conversation_id", id)
			return models.ChatResponse{
				Response:         tmpl.FollowUp,
				ScenarioDetected: string(category),
				Suggestions:      tmpl.LateSuggestions,
				ConversationID:   id,
				ConversationStep: len(existing.Turns) / 2,
			}, nil
		default:
			id = conversation.NewConversationID()
			existing = nil
			slog.Debug("Engine.ProcessMessage: conversation complete, starting new", "conversation_id", id)
		}
	}

	opening := existing == nil || len(existing.Turns) == 0
	reply := e.buildReply(ctx, req, category, tmpl, existing, opening)

	c, err := e.tracker.RecordExchange(id, string(category), req.Message, reply)
	if err != nil {
		slog.Error("Engine.ProcessMessage: failed to record exchange", "error", err, "conversation_id", id)
		return models.ChatResponse{}, fmt.Errorf("failed to record exchange: %w", err)
	}

	suggestions := tmpl.EarlySuggestions
	if c.Stage == models.StageSolution || c.Stage == models.StageComplete {
		suggestions = tmpl.LateSuggestions
	}

	return models.ChatResponse{
		Response:         reply,
		ScenarioDetected: string(category),
		Suggestions:      suggestions,
		ConversationID:   c.ID,
		ConversationStep: len(c.Turns) / 2,
	}, nil
}

// buildReply produces the agent's reply text, preferring the GenAI client and
// falling back to the category script.
func (e *Engine) buildReply(ctx context.Context, req models.ChatRequest, category scenario.Category, tmpl scenario.Template, existing *models.Conversation, opening bool) string {
	scripted := tmpl.FollowUp
	if opening {
		scripted = tmpl.Greeting + "\n\n" + tmpl.MainResponse
	}
	if e.gen == nil {
		return scripted
	}

	var history []models.Turn
	if existing != nil {
		history = existing.Turns
	}
	userPrompt := buildUserPrompt(req, category, tmpl, history, opening)

	reply, err := e.gen.GeneratePrompt(ctx, systemPrompt, userPrompt)
	if err != nil {
		slog.Warn("Engine.buildReply: generation failed, using scripted reply", "error", err, "category", category)
		return scripted
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return scripted
	}
	return reply
}

// buildUserPrompt assembles the generation prompt from the request, the
// category script and the conversation so far.
func buildUserPrompt(req models.ChatRequest, category scenario.Category, tmpl scenario.Template, history []models.Turn, opening bool) string {
	var b strings.Builder
	if opening {
		fmt.Fprintf(&b, "A caregiver named %s has contacted you about a %s.\n\n", req.UserName, strings.ToLower(string(category)))
		fmt.Fprintf(&b, "Their initial concern: %q\n", req.Message)
		if req.ReasonForContact != "" {
			fmt.Fprintf(&b, "Reason for contact: %s\n", req.ReasonForContact)
		}
		if req.ContactNumber != "" {
			fmt.Fprintf(&b, "Contact: %s\n", req.ContactNumber)
		}
		b.WriteString("\nOpen with this script:\n")
		b.WriteString(tmpl.Greeting)
		b.WriteString("\n\n")
		b.WriteString(tmpl.MainResponse)
		return b.String()
	}

	b.WriteString("Continue this conversation.\n\nConversation so far:\n")
	b.WriteString(Transcript(history))
	fmt.Fprintf(&b, "\nCaregiver's latest message: %q\n", req.Message)
	b.WriteString("\nRespond appropriately based on what they've said. If the conversation is ready for a resolution, use this script:\n")
	b.WriteString(tmpl.FollowUp)
	return b.String()
}

// Transcript renders a turn history as role-prefixed lines.
func Transcript(turns []models.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}
