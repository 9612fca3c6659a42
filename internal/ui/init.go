package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aether/internal/agent"
	"aether/internal/backend"
	"aether/internal/library"
	"aether/internal/models"
	"aether/internal/settings"
	"aether/internal/styles"
	"aether/internal/tabs"
)

// New builds the shell around b. Nothing is fetched until Init runs.
func New(b backend.Backend) *Model {
	defaults := models.DefaultSettings()

	addr := textinput.New()
	addr.Placeholder = "Search or enter address"
	addr.Prompt = "⌕ "
	addr.CharLimit = 2048
	addr.PromptStyle = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary).Bold(true)
	addr.PlaceholderStyle = styles.HintStyle
	addr.Focus()

	ti := textarea.New()
	ti.Placeholder = "Ask the agent..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = 6
	ti.SetHeight(2)
	ti.SetWidth(MinPanelWidth)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.CurrentTheme.AgentLabel).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(styles.CurrentTheme.TextMuted)
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.CurrentTheme.AgentLabel)

	return &Model{
		Tabs:          tabs.New(b, nil),
		Settings:      settings.NewStore(b),
		Bookmarks:     library.NewBookmarks(b),
		History:       library.NewHistory(b),
		Conversations: library.NewConversations(b, HistoryPageSize),
		Session:       agent.NewSession(b, defaults.AIProvider, defaults.AIModel),
		Address:       addr,
		SuggestIdx:    -1,
		AgentInput:    ti,
		AgentViewport: viewport.New(MinPanelWidth, 10),
		Spinner:       sp,
		renderCache:   map[string]string{},
		Focus:         FocusAddress,
		ViewMode:      models.ViewNormal,
		SettingsDraft: defaults,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadAll())
}

// loadAll fetches every cache the shell renders from.
func (m *Model) loadAll() tea.Cmd {
	return tea.Batch(
		m.loadSettings(),
		m.loadTabs(),
		m.loadBookmarks(),
		m.loadHistory(),
	)
}

func (m *Model) loadSettings() tea.Cmd {
	return func() tea.Msg {
		return settingsLoadedMsg{err: m.Settings.Load(context.Background())}
	}
}

func (m *Model) loadTabs() tea.Cmd {
	return func() tea.Msg {
		return tabsLoadedMsg{err: m.Tabs.Load(context.Background())}
	}
}

func (m *Model) loadBookmarks() tea.Cmd {
	return func() tea.Msg {
		return bookmarksLoadedMsg{err: m.Bookmarks.Load(context.Background())}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		return historyLoadedMsg{err: m.History.Load(context.Background())}
	}
}

func (m *Model) loadConversations(page int) tea.Cmd {
	return func() tea.Msg {
		return conversationsLoadedMsg{err: m.Conversations.Load(context.Background(), page)}
	}
}

func NewProgram(b backend.Backend) *tea.Program {
	return tea.NewProgram(New(b), tea.WithAltScreen())
}
