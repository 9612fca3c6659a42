package llm

import (
	"context"
	"fmt"
)

// Echo answers without a network call. It lets the shell run with no
// credentials at all.
type Echo struct{}

func (Echo) Name() string        { return ProviderEcho }
func (Echo) SupportsTools() bool { return false }

func (Echo) Complete(ctx context.Context, req Request) (Response, error) {
	if len(req.Messages) == 0 {
		return Response{}, fmt.Errorf("no messages")
	}
	last := req.Messages[len(req.Messages)-1]
	return Response{
		Content: fmt.Sprintf("I received your message: '%s' (Provider: %s, Model: %s).", last.Content, ProviderEcho, req.Model),
	}, nil
}
