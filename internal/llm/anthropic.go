package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"aether/internal/logger"
	"aether/internal/models"
)

type Anthropic struct {
	client anthropic.Client
}

func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (a *Anthropic) Name() string        { return ProviderAnthropic }
func (a *Anthropic) SupportsTools() bool { return false }

func (a *Anthropic) Complete(ctx context.Context, req Request) (Response, error) {
	messages, extraSystem := toAnthropic(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: 1024,
		Messages:  messages,
	}

	system := joinNonEmpty("\n\n", req.System, extraSystem)
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("Anthropic request failed", "error", err)
		return Response{}, fmt.Errorf("anthropic request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	if content.Len() == 0 {
		return Response{}, fmt.Errorf("empty response content")
	}
	return Response{Content: content.String()}, nil
}

// toAnthropic converts the log, folding system messages into one string
// since the API takes the system prompt separately.
func toAnthropic(msgs []models.Message) ([]anthropic.MessageParam, string) {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	var system []string
	for _, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case models.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case models.RoleSystem:
			system = append(system, msg.Content)
		}
	}
	return out, strings.Join(system, "\n\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
