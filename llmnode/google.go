package llmnode

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleProvider implements ChatProvider against Google's Gemini API:
// system messages become system instructions, and the reply is the text
// parts of every returned candidate, joined by newlines.
type GoogleProvider struct {
	apiKey string
	model  string
}

// NewGoogleProvider builds a provider for the given API key and model
// name; an empty modelName selects a current Flash.
func NewGoogleProvider(apiKey, modelName string) *GoogleProvider {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GoogleProvider{apiKey: apiKey, model: modelName}
}

func (p *GoogleProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("google: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("google: new client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)

	system, turns := extractSystem(messages)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	cs.History = historyFromMessages(turns[:max(0, len(turns)-1)])

	var last genai.Part
	if len(turns) > 0 {
		last = genai.Text(turns[len(turns)-1].Content)
	} else {
		last = genai.Text("")
	}

	resp, err := cs.SendMessage(ctx, last)
	if err != nil {
		return "", fmt.Errorf("google: %w", err)
	}
	return textFromCandidates(resp), nil
}

func historyFromMessages(messages []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return out
}

func textFromCandidates(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				if text != "" {
					text += "\n"
				}
				text += string(t)
			}
		}
	}
	return text
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
