package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/conversation"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/scenario"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
)

// mockGenAI returns a canned reply or error and records the prompts it saw.
type mockGenAI struct {
	reply        string
	err          error
	systemPrompt string
	userPrompt   string
	calls        int
}

func (m *mockGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.systemPrompt = systemPrompt
	m.userPrompt = userPrompt
	return m.reply, m.err
}

func newTestEngine(gen *mockGenAI, opts ...conversation.Option) *Engine {
	tr := conversation.NewTracker(store.NewInMemoryStore(), opts...)
	if gen == nil {
		return NewEngine(tr, nil)
	}
	return NewEngine(tr, gen)
}

func chatReq(message, reason string) models.ChatRequest {
	return models.ChatRequest{
		UserName:         "Mary Caregiver",
		ContactNumber:    "+1234567890",
		ReasonForContact: reason,
		Message:          message,
	}
}

func TestProcessMessageScriptedOpening(t *testing.T) {
	e := newTestEngine(nil)

	resp, err := e.ProcessMessage(context.Background(), chatReq("my schedule is missing", "schedule problem"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioDetected != string(scenario.CategorySchedule) {
		t.Errorf("expected %q, got %q", scenario.CategorySchedule, resp.ScenarioDetected)
	}
	if !strings.HasPrefix(resp.Response, scenario.Greeting) {
		t.Errorf("opening reply should start with the greeting, got %q", resp.Response)
	}
	if !strings.Contains(resp.Response, "no schedule on your Calendar") {
		t.Errorf("opening reply should carry the schedule script, got %q", resp.Response)
	}
	if resp.ConversationID == "" {
		t.Error("expected a minted conversation ID")
	}
	if resp.ConversationStep != 1 {
		t.Errorf("expected conversation step 1, got %d", resp.ConversationStep)
	}
}

func TestProcessMessageContinuationUsesFollowUp(t *testing.T) {
	e := newTestEngine(nil)

	first, err := e.ProcessMessage(context.Background(), chatReq("my schedule is missing", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := chatReq("the client is John Client", "schedule problem")
	req.ConversationID = first.ConversationID
	second, err := e.ProcessMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Error("continuation must keep the conversation ID")
	}
	if second.ConversationStep != 2 {
		t.Errorf("expected conversation step 2, got %d", second.ConversationStep)
	}
	if !strings.Contains(second.Response, "please do not leave") {
		t.Errorf("continuation should use the follow-up script, got %q", second.Response)
	}
}

func TestProcessMessageUsesGeneratedReply(t *testing.T) {
	gen := &mockGenAI{reply: "Hi Mary, let me look into that schedule for you."}
	e := newTestEngine(gen)

	resp, err := e.ProcessMessage(context.Background(), chatReq("my schedule is missing", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != gen.reply {
		t.Errorf("expected generated reply, got %q", resp.Response)
	}
	if gen.calls != 1 {
		t.Errorf("expected one generation call, got %d", gen.calls)
	}
	if !strings.Contains(gen.userPrompt, "my schedule is missing") {
		t.Error("user prompt should carry the caregiver message")
	}
	if !strings.Contains(gen.userPrompt, scenario.Greeting) {
		t.Error("opening prompt should carry the greeting script")
	}
}

func TestProcessMessageFallsBackOnGenerationFailure(t *testing.T) {
	gen := &mockGenAI{err: errors.New("model unavailable")}
	e := newTestEngine(gen)

	resp, err := e.ProcessMessage(context.Background(), chatReq("the gps shows me outside", ""))
	if err != nil {
		t.Fatalf("generation failure must not fail the request: %v", err)
	}
	if resp.ScenarioDetected != string(scenario.CategoryLocation) {
		t.Errorf("expected %q, got %q", scenario.CategoryLocation, resp.ScenarioDetected)
	}
	if !strings.HasPrefix(resp.Response, scenario.Greeting) {
		t.Errorf("fallback must be the scripted opening, got %q", resp.Response)
	}
}

func TestProcessMessageFallsBackOnEmptyGeneration(t *testing.T) {
	gen := &mockGenAI{reply: "   "}
	e := newTestEngine(gen)

	resp, err := e.ProcessMessage(context.Background(), chatReq("hello there", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(resp.Response) == "" {
		t.Error("blank generation must fall back to the script")
	}
}

func TestSuggestionsSwitchAtSolutionStage(t *testing.T) {
	e := newTestEngine(nil, conversation.WithSolutionThreshold(string(scenario.CategoryTiming), 4))

	first, err := e.ProcessMessage(context.Background(), chatReq("I clocked in late", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tmpl, _ := scenario.Lookup(scenario.CategoryTiming)
	if first.Suggestions[0] != tmpl.EarlySuggestions[0] {
		t.Errorf("expected early suggestions while gathering, got %v", first.Suggestions)
	}

	req := chatReq("I had a flat tire", "clocked in late")
	req.ConversationID = first.ConversationID
	second, err := e.ProcessMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Suggestions[0] != tmpl.LateSuggestions[0] {
		t.Errorf("expected late suggestions at solution stage, got %v", second.Suggestions)
	}
}

func TestCompletedConversationStartsNewByDefault(t *testing.T) {
	e := newTestEngine(nil, conversation.WithMaxTurns(2))

	first, err := e.ProcessMessage(context.Background(), chatReq("hello", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := chatReq("are you still there?", "")
	req.ConversationID = first.ConversationID
	second, err := e.ProcessMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ConversationID == first.ConversationID {
		t.Error("completed conversation must start a new one under the default policy")
	}
	if second.ConversationStep != 1 {
		t.Errorf("new conversation should restart at step 1, got %d", second.ConversationStep)
	}
}

func TestCompletedConversationTerminalPolicy(t *testing.T) {
	e := newTestEngine(nil,
		conversation.WithMaxTurns(2),
		conversation.WithCompletedPolicy(conversation.PolicyTerminal))

	first, err := e.ProcessMessage(context.Background(), chatReq("hello", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := chatReq("are you still there?", "")
	req.ConversationID = first.ConversationID
	second, err := e.ProcessMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Error("terminal policy must keep the conversation ID")
	}
	if second.ConversationStep != 1 {
		t.Errorf("terminal reply must not record turns, got step %d", second.ConversationStep)
	}

	tmpl, _ := scenario.Lookup(scenario.CategoryGeneral)
	if second.Response != tmpl.FollowUp {
		t.Errorf("terminal reply should be the closing script, got %q", second.Response)
	}
}

func TestContinuationPromptCarriesHistory(t *testing.T) {
	gen := &mockGenAI{reply: "Understood, I will add you to the schedule."}
	e := newTestEngine(gen)

	first, err := e.ProcessMessage(context.Background(), chatReq("my schedule is missing", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := chatReq("the client is John Client", "schedule problem")
	req.ConversationID = first.ConversationID
	if _, err := e.ProcessMessage(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.userPrompt, "my schedule is missing") {
		t.Error("continuation prompt should include the prior user turn")
	}
	if !strings.Contains(gen.userPrompt, "user:") || !strings.Contains(gen.userPrompt, "assistant:") {
		t.Errorf("continuation prompt should render a role-prefixed transcript, got %q", gen.userPrompt)
	}
}

func TestTranscript(t *testing.T) {
	turns := []models.Turn{
		{Role: models.TurnRoleUser, Content: "hi"},
		{Role: models.TurnRoleAssistant, Content: "hello"},
	}
	got := Transcript(turns)
	want := "user: hi\nassistant: hello\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}
