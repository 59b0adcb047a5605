package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/storage/memory"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.NewDefault("chat-test")
	log.SetOutput(io.Discard)
	return log
}

type failingAdvisor struct{}

func (failingAdvisor) Advise(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("upstream down")
}

func TestSendRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, quietLogger())

	conv, err := svc.StartConversation(ctx, "u1", "", "TA")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	if conv.Title != "New conversation" || conv.Language != "ta" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}

	reply, err := svc.Send(ctx, "u1", conv.ID, "How should I start a SIP?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Role != chat.RoleAssistant || reply.Content == "" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if !strings.Contains(strings.ToLower(reply.Content), "sip") {
		t.Fatalf("expected SIP advice, got %q", reply.Content)
	}

	history, err := svc.History(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != chat.RoleUser || history[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", history)
	}
}

func TestSendFallsBackWhenAdvisorFails(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), failingAdvisor{}, quietLogger())

	conv, err := svc.StartConversation(ctx, "u1", "budgeting", "en")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}

	reply, err := svc.Send(ctx, "u1", conv.ID, "help me with a budget")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Content == "" {
		t.Fatalf("expected fallback reply")
	}
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, quietLogger())

	conv, err := svc.StartConversation(ctx, "u1", "t", "en")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}

	if _, err := svc.Send(ctx, "u1", conv.ID, "   "); err == nil {
		t.Fatalf("expected empty content rejection")
	}
	if _, err := svc.Send(ctx, "u1", conv.ID, strings.Repeat("a", maxPromptLength+1)); err == nil {
		t.Fatalf("expected oversized content rejection")
	}
	if _, err := svc.Send(ctx, "other", conv.ID, "hello"); err == nil {
		t.Fatalf("expected ownership rejection")
	}
}

func TestDeleteConversation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, quietLogger())

	conv, err := svc.StartConversation(ctx, "u1", "t", "en")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	if err := svc.DeleteConversation(ctx, "other", conv.ID); err == nil {
		t.Fatalf("expected ownership rejection")
	}
	if err := svc.DeleteConversation(ctx, "u1", conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.History(ctx, "u1", conv.ID); err == nil {
		t.Fatalf("expected missing conversation after delete")
	}
}

func TestHTTPAdvisor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"reply": "diversify across asset classes"}`)
	}))
	defer server.Close()

	advisor := NewHTTPAdvisor(server.URL, "key-123")
	reply, err := advisor.Advise(context.Background(), "where to invest", "en")
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if reply != "diversify across asset classes" {
		t.Fatalf("unexpected reply %q", reply)
	}

	unauthorized := NewHTTPAdvisor(server.URL, "wrong")
	if _, err := unauthorized.Advise(context.Background(), "q", "en"); err == nil {
		t.Fatalf("expected error for rejected request")
	}
}

func TestRuleAdvisorDefault(t *testing.T) {
	reply, err := RuleAdvisor{}.Advise(context.Background(), "what is the weather", "en")
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if !strings.Contains(reply, "calculators") {
		t.Fatalf("expected default guidance, got %q", reply)
	}
}
