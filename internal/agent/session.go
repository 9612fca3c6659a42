// Package agent holds the conversation shown in the agent panel.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"aether/internal/logger"
	"aether/internal/models"
)

var (
	// ErrBusy is returned when a message is sent while another is in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrBlank is returned for empty or whitespace-only messages.
	ErrBlank = errors.New("message is empty")
)

// Completer is the remote side of the agent panel.
type Completer interface {
	SendAgentMessage(ctx context.Context, req models.AgentMessageRequest) (models.AgentMessageResponse, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
}

type State int

const (
	Idle State = iota
	Sending
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Pending is a request that has been admitted by Begin and still needs its
// result handed to Finish.
type Pending struct {
	Request models.AgentMessageRequest
	gen     uint64
}

// Session is a single conversation plus its request state. At most one
// request is outstanding at a time.
type Session struct {
	completer Completer

	mu       sync.Mutex
	conv     models.Conversation
	state    State
	err      error
	provider string
	model    string
	gen      uint64
	actions  []models.ToolAction
	now      func() time.Time
}

func NewSession(c Completer, provider, model string) *Session {
	return &Session{
		completer: c,
		provider:  provider,
		model:     model,
		conv:      models.Conversation{ModelProvider: provider},
		now:       time.Now,
	}
}

// Begin admits text as the next user message. Blank text and sends made
// while another request is outstanding are rejected and leave the log as it
// was.
func (s *Session) Begin(text, tabID string) (Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Pending{}, ErrBlank
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Sending {
		return Pending{}, ErrBusy
	}

	if tabID != "" && s.conv.TabID == "" {
		s.conv.TabID = tabID
	}
	s.conv.Messages = append(s.conv.Messages, models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	})
	s.state = Sending
	s.err = nil

	return Pending{
		Request: models.AgentMessageRequest{
			ConversationID: s.conv.ID,
			TabID:          s.conv.TabID,
			Message:        text,
			Provider:       s.provider,
			Model:          s.model,
		},
		gen: s.gen,
	}, nil
}

// Finish applies the outcome of a request started by Begin. On failure the
// user message stays in the log. Results for a conversation that has since
// been replaced are ignored.
func (s *Session) Finish(p Pending, resp models.AgentMessageResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.gen != s.gen {
		logger.Debug("Dropping agent reply for replaced conversation", "conversation", resp.ConversationID)
		return
	}
	if err != nil {
		s.state = Errored
		s.err = err
		return
	}

	if s.conv.ID == "" {
		s.conv.ID = resp.ConversationID
	}
	s.actions = resp.Actions
	s.conv.Messages = append(s.conv.Messages, models.Message{
		Role:      models.RoleAssistant,
		Content:   resp.Response,
		Timestamp: s.now(),
	})
	s.state = Idle
}

// Send runs Begin, the remote call, and Finish in sequence.
func (s *Session) Send(ctx context.Context, text, tabID string) error {
	p, err := s.Begin(text, tabID)
	if err != nil {
		return err
	}
	resp, err := s.completer.SendAgentMessage(ctx, p.Request)
	if err != nil {
		logger.Error("Agent request failed", "provider", p.Request.Provider, "error", err)
		err = fmt.Errorf("send agent message: %w", err)
	}
	s.Finish(p, resp, err)
	return err
}

// Complete performs the remote call for an admitted request without
// touching session state. The UI runs it off the update loop and hands the
// result back to Finish.
func (s *Session) Complete(ctx context.Context, p Pending) (models.AgentMessageResponse, error) {
	resp, err := s.completer.SendAgentMessage(ctx, p.Request)
	if err != nil {
		logger.Error("Agent request failed", "provider", p.Request.Provider, "error", err)
		return resp, fmt.Errorf("send agent message: %w", err)
	}
	return resp, nil
}

// NewConversation discards the in-memory conversation and starts an empty
// one tied to tabID.
func (s *Session) NewConversation(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.conv = models.Conversation{TabID: tabID, ModelProvider: s.provider}
	s.actions = nil
	s.state = Idle
	s.err = nil
}

// Load replaces the session with a stored conversation. A missing
// conversation leaves the session as it was.
func (s *Session) Load(ctx context.Context, id string) error {
	conv, err := s.completer.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.conv = *conv
	s.conv.Messages = append([]models.Message(nil), conv.Messages...)
	s.state = Idle
	s.err = nil
	return nil
}

func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	if s.state == Errored {
		s.state = Idle
	}
}

func (s *Session) SetProvider(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
	if len(s.conv.Messages) == 0 {
		s.conv.ModelProvider = provider
	}
}

func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Snapshot returns a copy of the current conversation.
func (s *Session) Snapshot() models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.conv
	c.Messages = append([]models.Message(nil), s.conv.Messages...)
	return c
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Actions returns the tool actions behind the latest reply.
func (s *Session) Actions() []models.ToolAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ToolAction(nil), s.actions...)
}

// Err returns the error of the last failed request, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
