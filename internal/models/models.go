package models

import (
	"strings"
	"time"
)

// BlankURL is the address of a tab created without a destination.
const BlankURL = "about:blank"

// ViewMode represents what the main area of the shell is showing
type ViewMode int

const (
	ViewNormal ViewMode = iota // Page only
	ViewAgent                  // Page with the agent panel docked
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Theme is the colour scheme preference stored in settings.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// Tab is a single open page as reported by the tab service.
type Tab struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Favicon  string `json:"favicon,omitempty"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

// DisplayTitle returns the title to show in the tab strip.
func (t Tab) DisplayTitle() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	if t.URL == "" || t.URL == BlankURL {
		return "New Tab"
	}
	return t.URL
}

type HistoryEntry struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	VisitCount int       `json:"visit_count"`
	LastVisit  time.Time `json:"last_visit"`
}

type Bookmark struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	FolderID  *int64    `json:"folder_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an agent exchange log. ID stays empty until the backend
// acknowledges the first exchange.
type Conversation struct {
	ID            string    `json:"id"`
	TabID         string    `json:"tab_id,omitempty"`
	ModelProvider string    `json:"model_provider"`
	Messages      []Message `json:"messages"`
}

// ConversationSummary is one row of the stored-conversation list.
type ConversationSummary struct {
	ID             string    `json:"id"`
	TabID          string    `json:"tab_id,omitempty"`
	ModelProvider  string    `json:"model_provider"`
	LastUserPrompt string    `json:"last_user_prompt"`
	MessageCount   int       `json:"message_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AgentMessageRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	TabID          string `json:"tab_id,omitempty"`
	Message        string `json:"message"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

type AgentMessageResponse struct {
	ConversationID string       `json:"conversation_id"`
	Response       string       `json:"response"`
	Actions        []ToolAction `json:"actions,omitempty"`
}

type Settings struct {
	Theme               Theme  `json:"theme"`
	DefaultSearchEngine string `json:"default_search_engine"`
	AIProvider          string `json:"ai_provider"`
	AIModel             string `json:"ai_model"`
	AgentModeEnabled    bool   `json:"agent_mode_enabled"`
}

// DefaultSettings is used until the settings store answers, and whenever
// loading fails.
func DefaultSettings() Settings {
	return Settings{
		Theme:               ThemeLight,
		DefaultSearchEngine: "google",
		AIProvider:          "openai",
		AIModel:             "gpt-4o",
		AgentModeEnabled:    false,
	}
}

type AIModel struct {
	ID          string
	Name        string
	Provider    string
	Description string
}

// ToolAction represents a completed agent tool call for display
type ToolAction struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}
