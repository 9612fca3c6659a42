package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"aether/internal/logger"
	"aether/internal/models"
)

type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string        { return ProviderGemini }
func (g *Gemini) SupportsTools() bool { return false }

func (g *Gemini) Complete(ctx context.Context, req Request) (Response, error) {
	contents, extraSystem := toGemini(req.Messages)

	config := &genai.GenerateContentConfig{}
	if system := joinNonEmpty("\n\n", req.System, extraSystem); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		logger.Error("Gemini request failed", "error", err)
		return Response{}, fmt.Errorf("gemini request failed: %w", err)
	}

	content := geminiText(result)
	if content == "" {
		return Response{}, fmt.Errorf("no content in response")
	}
	return Response{Content: content}, nil
}

func toGemini(msgs []models.Message) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(msgs))
	var system []string
	for _, msg := range msgs {
		var role genai.Role
		switch msg.Role {
		case models.RoleUser:
			role = genai.RoleUser
		case models.RoleAssistant:
			role = genai.RoleModel
		case models.RoleSystem:
			system = append(system, msg.Content)
			continue
		default:
			continue
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents, strings.Join(system, "\n\n")
}

// geminiText concatenates the text parts of the first candidate, skipping
// thought summaries.
func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
