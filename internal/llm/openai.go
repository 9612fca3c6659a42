package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"aether/internal/logger"
	"aether/internal/models"
	"aether/internal/tools"
)

type OpenAI struct {
	client openai.Client
}

// NewOpenAI builds a client for the OpenAI API, or any compatible endpoint
// such as OpenRouter when baseURL is set.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts,
			option.WithBaseURL(baseURL),
			option.WithHeader("X-Title", "Aether"),
		)
	}
	return &OpenAI{client: openai.NewClient(opts...)}
}

func (o *OpenAI) Name() string        { return ProviderOpenAI }
func (o *OpenAI) SupportsTools() bool { return true }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	history := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		history = append(history, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleUser:
			history = append(history, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			history = append(history, openai.AssistantMessage(msg.Content))
		case models.RoleSystem:
			history = append(history, openai.SystemMessage(msg.Content))
		}
	}

	// Chat: single call without tools
	if req.Toolbox == nil {
		resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    req.Model,
			Messages: history,
		})
		if err != nil {
			return Response{}, fmt.Errorf("openai request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return Response{}, fmt.Errorf("empty response from model")
		}
		return Response{Content: resp.Choices[0].Message.Content}, nil
	}

	// Agent: loop until the model stops calling tools
	var actions []models.ToolAction
	for iteration := 1; ; iteration++ {
		resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    req.Model,
			Messages: history,
			Tools:    tools.Definitions,
		})
		if err != nil {
			return Response{Actions: actions}, fmt.Errorf("openai request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return Response{Actions: actions}, fmt.Errorf("empty response from model")
		}

		choice := resp.Choices[0]
		assistantMsg := choice.Message
		if len(assistantMsg.ToolCalls) > 0 {
			assistantMsg.Content = ""
		}
		history = append(history, assistantMsg.ToParam())

		if len(choice.Message.ToolCalls) == 0 {
			return Response{Content: choice.Message.Content, Actions: actions}, nil
		}
		if iteration >= tools.MaxToolIterations {
			content := choice.Message.Content + fmt.Sprintf("\n\n*[Stopped after %d tool iterations]*", tools.MaxToolIterations)
			return Response{Content: content, Actions: actions}, nil
		}

		for _, tc := range choice.Message.ToolCalls {
			result, err := req.Toolbox.Execute(ctx, tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				result = fmt.Sprintf("error: %v", err)
			}
			summary := tools.GenerateToolSummary(tc.Function.Name, tc.Function.Arguments, result)
			logger.Debug("Tool executed", "tool", tc.Function.Name, "summary", summary)
			actions = append(actions, models.ToolAction{Name: tc.Function.Name, Summary: summary})
			history = append(history, openai.ToolMessage(result, tc.ID))
		}
	}
}
