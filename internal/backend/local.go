package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"aether/internal/db"
	"aether/internal/llm"
	"aether/internal/logger"
	"aether/internal/models"
	"aether/internal/tools"
)

// TabEngine is the tab side of the local backend. browser.Manager
// implements it.
type TabEngine interface {
	Create(ctx context.Context, url string) (models.Tab, error)
	Close(ctx context.Context, id string) error
	Switch(ctx context.Context, id string) (models.Tab, error)
	Navigate(ctx context.Context, id, url string) (models.Tab, error)
	List(ctx context.Context) ([]models.Tab, error)
	Shutdown() error
}

// Local serves every operation in process: tabs from a TabEngine, the rest
// from sqlite and the provider registry.
type Local struct {
	tabs      TabEngine
	db        *sql.DB
	providers *llm.Registry
	now       func() time.Time
}

var _ Backend = (*Local)(nil)

func NewLocal(tabs TabEngine, conn *sql.DB, providers *llm.Registry) *Local {
	return &Local{tabs: tabs, db: conn, providers: providers, now: time.Now}
}

func (l *Local) CreateTab(ctx context.Context, url string) (models.Tab, error) {
	return l.tabs.Create(ctx, url)
}

func (l *Local) CloseTab(ctx context.Context, id string) error {
	return l.tabs.Close(ctx, id)
}

func (l *Local) SwitchTab(ctx context.Context, id string) (models.Tab, error) {
	return l.tabs.Switch(ctx, id)
}

func (l *Local) NavigateTab(ctx context.Context, id, url string) (models.Tab, error) {
	return l.tabs.Navigate(ctx, id, url)
}

func (l *Local) ListTabs(ctx context.Context) ([]models.Tab, error) {
	return l.tabs.List(ctx)
}

func (l *Local) GetHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	return db.GetHistory(l.db)
}

func (l *Local) RecordHistory(ctx context.Context, url, title string) error {
	return db.AddHistoryEntry(l.db, url, title, l.now().Unix())
}

func (l *Local) ClearHistory(ctx context.Context) error {
	return db.ClearHistory(l.db)
}

func (l *Local) GetBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	return db.GetBookmarks(l.db)
}

func (l *Local) AddBookmark(ctx context.Context, url, title string, folderID *int64) (models.Bookmark, error) {
	if strings.TrimSpace(title) == "" {
		title = url
	}
	return db.AddBookmark(l.db, url, title, folderID, l.now().Unix())
}

func (l *Local) DeleteBookmark(ctx context.Context, id int64) error {
	return db.DeleteBookmark(l.db, id)
}

func (l *Local) GetSettings(ctx context.Context) (models.Settings, error) {
	return db.GetSettings(l.db)
}

func (l *Local) UpdateSettings(ctx context.Context, s models.Settings) error {
	return db.UpdateSettings(l.db, s)
}

// SendAgentMessage stores the user message, asks the provider for a reply
// over the whole stored conversation and stores the reply. A request
// without a conversation id starts a new conversation.
func (l *Local) SendAgentMessage(ctx context.Context, req models.AgentMessageRequest) (models.AgentMessageResponse, error) {
	logger.Info("Sending agent message", "provider", req.Provider, "model", req.Model)

	provider, err := l.providers.Get(req.Provider)
	if err != nil {
		return models.AgentMessageResponse{}, err
	}

	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
		if err := db.CreateConversation(l.db, convID, req.TabID, req.Provider, l.now().Unix()); err != nil {
			return models.AgentMessageResponse{}, fmt.Errorf("create conversation: %w", err)
		}
	} else {
		existing, err := db.GetConversation(l.db, convID)
		if err != nil {
			return models.AgentMessageResponse{}, err
		}
		if existing == nil {
			return models.AgentMessageResponse{}, fmt.Errorf("conversation %s not found", convID)
		}
	}

	if err := db.InsertMessage(l.db, convID, models.RoleUser, req.Message, l.now().Unix()); err != nil {
		return models.AgentMessageResponse{}, fmt.Errorf("store message: %w", err)
	}

	conv, err := db.GetConversation(l.db, convID)
	if err != nil {
		return models.AgentMessageResponse{}, err
	}
	if conv == nil {
		return models.AgentMessageResponse{}, errors.New("conversation vanished")
	}

	creq := llm.Request{
		Model:    req.Model,
		System:   llm.ChatSystemPrompt,
		Messages: conv.Messages,
	}
	if provider.SupportsTools() {
		settings, err := db.GetSettings(l.db)
		if err != nil {
			logger.Warn("Failed to read settings, agent tools disabled", "error", err)
		} else if settings.AgentModeEnabled {
			creq.System = llm.AgentSystemPrompt
			creq.Toolbox = &tools.Toolbox{Host: agentHost{l}, SearchEngine: settings.DefaultSearchEngine}
		}
	}

	resp, err := provider.Complete(ctx, creq)
	if err != nil {
		return models.AgentMessageResponse{}, err
	}
	for _, a := range resp.Actions {
		logger.Info("Agent action", "tool", a.Name, "summary", a.Summary)
	}

	if err := db.InsertMessage(l.db, convID, models.RoleAssistant, resp.Content, l.now().Unix()); err != nil {
		return models.AgentMessageResponse{}, fmt.Errorf("store reply: %w", err)
	}

	return models.AgentMessageResponse{ConversationID: convID, Response: resp.Content, Actions: resp.Actions}, nil
}

func (l *Local) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return db.GetConversation(l.db, id)
}

func (l *Local) ListConversations(ctx context.Context, limit, offset int) (int, []models.ConversationSummary, error) {
	return db.GetRecentConversations(l.db, limit, offset)
}

// agentHost is the tool view of the backend. Pages the agent loads are
// recorded in history like pages the user loads.
type agentHost struct {
	*Local
}

func (h agentHost) NavigateTab(ctx context.Context, id, url string) (models.Tab, error) {
	tab, err := h.Local.NavigateTab(ctx, id, url)
	if err != nil {
		return tab, err
	}
	if url != models.BlankURL {
		if err := h.RecordHistory(ctx, tab.URL, tab.Title); err != nil {
			logger.Warn("Failed to record history", "url", tab.URL, "error", err)
		}
	}
	return tab, nil
}

// Close shuts the tab engine down and closes the database.
func (l *Local) Close() error {
	return errors.Join(l.tabs.Shutdown(), l.db.Close())
}
