// Package backend is the single command boundary between the shell and the
// services that own durable state.
package backend

import (
	"context"

	"aether/internal/models"
)

// Backend lists every operation the shell issues.
type Backend interface {
	CreateTab(ctx context.Context, url string) (models.Tab, error)
	CloseTab(ctx context.Context, id string) error
	SwitchTab(ctx context.Context, id string) (models.Tab, error)
	NavigateTab(ctx context.Context, id, url string) (models.Tab, error)
	ListTabs(ctx context.Context) ([]models.Tab, error)

	GetHistory(ctx context.Context) ([]models.HistoryEntry, error)
	RecordHistory(ctx context.Context, url, title string) error
	ClearHistory(ctx context.Context) error

	GetBookmarks(ctx context.Context) ([]models.Bookmark, error)
	AddBookmark(ctx context.Context, url, title string, folderID *int64) (models.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error

	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) error

	SendAgentMessage(ctx context.Context, req models.AgentMessageRequest) (models.AgentMessageResponse, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, limit, offset int) (int, []models.ConversationSummary, error)

	Close() error
}
