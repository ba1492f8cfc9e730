package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go"
)

// mockChatService returns a canned response or error.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func TestGeneratePrompt(t *testing.T) {
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello Mary"}},
		},
	}
	mock := &mockChatService{resp: mockResp}
	client := &Client{chat: mock, model: openai.ChatModelGPT4oMini, timeout: time.Second}

	out, err := client.GeneratePrompt(context.Background(), "you are Rosella", "greet the caregiver")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Hello Mary" {
		t.Errorf("expected %q, got %q", "Hello Mary", out)
	}
	if len(mock.params.Messages) != 2 {
		t.Errorf("expected system and user messages, got %d", len(mock.params.Messages))
	}
}

func TestGeneratePromptNoChoices(t *testing.T) {
	mock := &mockChatService{resp: openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}}
	client := &Client{chat: mock, model: openai.ChatModelGPT4oMini, timeout: time.Second}

	if _, err := client.GeneratePrompt(context.Background(), "sys", "user"); err == nil {
		t.Error("expected error when no choices returned")
	}
}

func TestGeneratePromptServiceError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	mock := &mockChatService{err: wantErr}
	client := &Client{chat: mock, model: openai.ChatModelGPT4oMini, timeout: time.Second}

	_, err := client.GeneratePrompt(context.Background(), "sys", "user")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped service error, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("unexpected error with explicit key: %v", err)
	}
}
