package llmnode

import (
	"context"
	"strings"
	"testing"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

type fakeProvider struct {
	reply string
	err   error
	seen  []Message
}

func (f *fakeProvider) Chat(_ context.Context, messages []Message) (string, error) {
	f.seen = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestNewChatDefaults(t *testing.T) {
	fp := &fakeProvider{reply: "hello"}
	chatNode, err := NewChat("assistant", fp)
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}

	res, err := chatNode.Call(context.Background(), node.Values{
		"messages": []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Outputs["response"] != "hello" {
		t.Errorf("expected response=hello, got %v", res.Outputs["response"])
	}
	if len(fp.seen) != 1 || fp.seen[0].Content != "hi" {
		t.Errorf("expected provider to see the passed message, got %v", fp.seen)
	}
}

func TestNewChatCustomNames(t *testing.T) {
	fp := &fakeProvider{reply: "ok"}
	chatNode, err := NewChat("assistant", fp, WithMessagesInput("history"), WithResponseOutput("reply"))
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}
	if len(chatNode.Inputs()) != 1 || chatNode.Inputs()[0] != "history" {
		t.Errorf("expected input=history, got %v", chatNode.Inputs())
	}

	res, err := chatNode.Call(context.Background(), node.Values{
		"history": []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Outputs["reply"] != "ok" {
		t.Errorf("expected reply=ok, got %v", res.Outputs["reply"])
	}
}

func TestNewChatMissingInput(t *testing.T) {
	fp := &fakeProvider{reply: "ok"}
	chatNode, err := NewChat("assistant", fp)
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}
	if _, err := chatNode.Call(context.Background(), node.Values{}); err == nil {
		t.Fatal("expected error for missing messages input")
	}
}

func TestNewChatRejectsUnknownMessageType(t *testing.T) {
	fp := &fakeProvider{reply: "ok"}
	chatNode, err := NewChat("assistant", fp)
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}
	_, err = chatNode.Call(context.Background(), node.Values{"messages": "not a message slice"})
	if err == nil || !strings.Contains(err.Error(), "expected") {
		t.Fatalf("expected a type error, got %v", err)
	}
}

func TestExtractSystemMergesMultipleSystemMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "first"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "second"},
	}
	system, rest := extractSystem(messages)
	if system != "first\n\nsecond" {
		t.Errorf("expected merged system prompt, got %q", system)
	}
	if len(rest) != 1 || rest[0].Content != "hi" {
		t.Errorf("expected only the user message to remain, got %v", rest)
	}
}
