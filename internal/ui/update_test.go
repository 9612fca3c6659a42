package ui

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aether/internal/agent"
	"aether/internal/backend"
	"aether/internal/browser"
	"aether/internal/db"
	"aether/internal/llm"
	"aether/internal/logger"
	"aether/internal/models"
	"aether/internal/styles"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	m.Run()
}

func newTestModel(t *testing.T) (*Model, *backend.Local) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "aether.db"))
	require.NoError(t, err)

	reg := llm.NewRegistry()
	reg.Register(llm.Echo{})
	b := backend.NewLocal(browser.NewManager(), conn, reg)
	t.Cleanup(func() {
		_ = b.Close()
		styles.Apply(styles.LightTheme)
	})

	m := New(b)
	m.Address.Cursor.SetMode(cursor.CursorStatic)
	m.AgentInput.Cursor.SetMode(cursor.CursorStatic)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	drain(t, m, m.loadAll())
	return m, b
}

func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case tabsLoadedMsg, tabOpMsg, navigatedMsg,
		settingsLoadedMsg, settingsSavedMsg,
		bookmarksLoadedMsg, bookmarkToggledMsg, bookmarkDeletedMsg,
		historyLoadedMsg, historyClearedMsg,
		conversationsLoadedMsg, conversationLoadedMsg, agentReplyMsg:
		return true
	}
	return false
}

// drain runs cmd and every command it leads to, feeding the shell's own
// messages back into Update. Timer-driven messages are dropped.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command chain does not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			if isAppMsg(msg) {
				_, c := m.Update(msg)
				queue = append(queue, c)
			}
		}
	}
}

func press(t *testing.T, m *Model, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(msg)
	drain(t, m, cmd)
}

func typeText(t *testing.T, m *Model, s string) {
	t.Helper()
	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func alt(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

func activeURL(t *testing.T, m *Model) string {
	t.Helper()
	tab, ok := m.Tabs.Active()
	require.True(t, ok)
	return tab.URL
}

func TestStartupOpensFirstTab(t *testing.T) {
	m, _ := newTestModel(t)

	require.Equal(t, 1, m.Tabs.Len())
	assert.Equal(t, models.BlankURL, activeURL(t, m))
	assert.Equal(t, "", m.Address.Value())
	assert.Equal(t, FocusAddress, m.Focus)
	assert.NoError(t, m.StatusErr)
}

func TestAddressBarNavigates(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(t, m, "example.com")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "https://example.com", activeURL(t, m))
	assert.Equal(t, "https://example.com", m.Address.Value())
	assert.Equal(t, FocusPage, m.Focus)
	assert.Equal(t, "Loaded example.com", m.Status)

	snap, ok := m.Tabs.Ledger().Snapshot(m.Tabs.ActiveID())
	require.True(t, ok)
	assert.Equal(t, []string{models.BlankURL, "https://example.com"}, snap.Entries)
}

func TestAddressBarSearchesPlainText(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(t, m, "golang tips")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "https://www.google.com/search?q=golang+tips", activeURL(t, m))
}

func TestSuggestionSelectionOpensBookmark(t *testing.T) {
	m, b := newTestModel(t)
	ctx := context.Background()
	_, err := b.AddBookmark(ctx, "https://go.dev", "Go", nil)
	require.NoError(t, err)
	require.NoError(t, m.Bookmarks.Load(ctx))

	typeText(t, m, "go")
	require.GreaterOrEqual(t, len(m.Suggestions), 2)
	assert.Equal(t, "https://go.dev", m.Suggestions[0].URL)
	assert.Equal(t, -1, m.SuggestIdx)

	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.SuggestIdx)
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "https://go.dev", activeURL(t, m))
	assert.Nil(t, m.Suggestions)
}

func TestEscapeRestoresAddress(t *testing.T) {
	m, _ := newTestModel(t)
	typeText(t, m, "example.com")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	typeText(t, m, "/half-typed")
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, FocusPage, m.Focus)
	assert.Equal(t, "https://example.com", m.Address.Value())
}

func TestTabKeys(t *testing.T) {
	m, _ := newTestModel(t)
	first := m.Tabs.ActiveID()

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, 2, m.Tabs.Len())
	second := m.Tabs.ActiveID()
	assert.NotEqual(t, first, second)
	assert.Equal(t, FocusAddress, m.Focus)

	press(t, m, alt('1'))
	assert.Equal(t, first, m.Tabs.ActiveID())

	press(t, m, alt('n'))
	assert.Equal(t, second, m.Tabs.ActiveID())

	press(t, m, alt('n'))
	assert.Equal(t, first, m.Tabs.ActiveID(), "next wraps around")

	press(t, m, alt('p'))
	assert.Equal(t, second, m.Tabs.ActiveID())

	press(t, m, alt('9'))
	assert.Equal(t, second, m.Tabs.ActiveID(), "missing tab number is ignored")

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	require.Equal(t, 1, m.Tabs.Len())
	assert.Equal(t, first, m.Tabs.ActiveID())
}

func TestBackAndForwardKeys(t *testing.T) {
	m, _ := newTestModel(t)
	for _, addr := range []string{"a.com", "b.com"} {
		press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
		typeText(t, m, addr)
		press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}
	require.Equal(t, "https://b.com", activeURL(t, m))

	press(t, m, tea.KeyMsg{Type: tea.KeyLeft, Alt: true})
	assert.Equal(t, "https://a.com", activeURL(t, m))
	assert.Equal(t, "https://a.com", m.Address.Value())

	press(t, m, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	assert.Equal(t, "https://b.com", activeURL(t, m))

	press(t, m, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	assert.Equal(t, "https://b.com", activeURL(t, m), "forward at the end is a no-op")
	assert.NoError(t, m.StatusErr)
}

func TestBookmarkToggle(t *testing.T) {
	m, b := newTestModel(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Empty(t, m.Bookmarks.All(), "blank pages are not bookmarked")

	typeText(t, m, "example.com")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.True(t, m.Bookmarks.Has("https://example.com"))
	assert.Equal(t, "Bookmark added", m.Status)

	stored, err := b.GetBookmarks(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "example.com", stored[0].Title)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.False(t, m.Bookmarks.Has("https://example.com"))
}

func TestBookmarksModalDeletesAndOpens(t *testing.T) {
	m, b := newTestModel(t)
	ctx := context.Background()
	for _, u := range []string{"https://one.test", "https://two.test"} {
		_, err := b.AddBookmark(ctx, u, "", nil)
		require.NoError(t, err)
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	require.Equal(t, ModalBookmarks, m.Modal)
	require.Len(t, m.Bookmarks.All(), 2)
	top := m.Bookmarks.All()[0]

	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.Len(t, m.Bookmarks.All(), 1)
	assert.False(t, m.Bookmarks.Has(top.URL))

	remaining := m.Bookmarks.All()[0].URL
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModalNone, m.Modal)
	assert.Equal(t, remaining, activeURL(t, m))
}

func TestHistoryModalClears(t *testing.T) {
	m, b := newTestModel(t)
	typeText(t, m, "example.com")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Eventually(t, func() bool {
		h, err := b.GetHistory(context.Background())
		return err == nil && len(h) == 1
	}, time.Second, 10*time.Millisecond)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.Equal(t, ModalHistory, m.Modal)
	require.Len(t, m.History.All(), 1)
	assert.Contains(t, m.View(), "example.com")

	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Empty(t, m.History.All())
	assert.Equal(t, "History cleared", m.Status)
}

func TestSettingsModalSaves(t *testing.T) {
	m, b := newTestModel(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Equal(t, ModalSettings, m.Modal)

	press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, models.ThemeDark, m.SettingsDraft.Theme)
	assert.Equal(t, models.ThemeLight, m.Settings.Current().Theme, "draft is not committed yet")

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModalNone, m.Modal)
	assert.Equal(t, models.ThemeDark, m.Settings.Current().Theme)
	assert.Equal(t, styles.DarkTheme.Name, styles.CurrentTheme.Name)

	stored, err := b.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, stored.Theme)
}

func TestSettingsModalEscapeDiscardsDraft(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.NotEqual(t, m.Settings.Current().AIProvider, m.SettingsDraft.AIProvider)

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModalNone, m.Modal)
	assert.Equal(t, models.DefaultSettings(), m.Settings.Current())
}

func TestAgentPanelRoundTrip(t *testing.T) {
	m, _ := newTestModel(t)
	s := m.Settings.Current()
	s.AIProvider, s.AIModel = llm.ProviderEcho, "echo"
	require.NoError(t, m.Settings.Update(context.Background(), s))
	m.applySettings()

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	require.Equal(t, models.ViewAgent, m.ViewMode)
	require.Equal(t, FocusAgent, m.Focus)

	typeText(t, m, "hello there")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, agent.Idle, m.Session.State())
	conv := m.Session.Snapshot()
	require.Len(t, conv.Messages, 2)
	assert.NotEmpty(t, conv.ID)
	assert.Contains(t, conv.Messages[1].Content, "I received your message: 'hello there'")
	assert.Equal(t, "", m.AgentInput.Value())

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Empty(t, m.Session.Snapshot().Messages)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, models.ViewNormal, m.ViewMode)
	assert.Equal(t, FocusPage, m.Focus)
}

func TestAgentErrorIsShownAndRecoverable(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	typeText(t, m, "hi")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// openai has no key in tests.
	assert.Equal(t, agent.Errored, m.Session.State())
	assert.ErrorIs(t, m.Session.Err(), llm.ErrNotConfigured)
	assert.Len(t, m.Session.Snapshot().Messages, 1)
	assert.Contains(t, m.View(), "Error:")

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, agent.Idle, m.Session.State())
	assert.NoError(t, m.Session.Err())
	assert.Equal(t, FocusAgent, m.Focus)
	assert.NotContains(t, m.View(), "Error:")

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusPage, m.Focus)
}

func useEcho(t *testing.T, m *Model) {
	t.Helper()
	s := m.Settings.Current()
	s.AIProvider, s.AIModel = llm.ProviderEcho, "echo"
	require.NoError(t, m.Settings.Update(context.Background(), s))
	m.applySettings()
}

func TestConversationsModalResumesConversation(t *testing.T) {
	m, _ := newTestModel(t)
	useEcho(t, m)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	typeText(t, m, "first topic")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	firstID := m.Session.Snapshot().ID
	require.NotEmpty(t, firstID)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	typeText(t, m, "second topic")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	require.Equal(t, models.ViewNormal, m.ViewMode)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.Equal(t, ModalConversations, m.Modal)
	require.Equal(t, 2, m.Conversations.Total())
	items := m.Conversations.All()
	require.Len(t, items, 2)
	assert.Equal(t, "second topic", items[0].LastUserPrompt)
	assert.Contains(t, m.View(), "Conversations (2)")

	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModalNone, m.Modal)
	assert.Equal(t, models.ViewAgent, m.ViewMode)
	assert.Equal(t, FocusAgent, m.Focus)
	assert.Equal(t, "Conversation loaded", m.Status)
	conv := m.Session.Snapshot()
	assert.Equal(t, firstID, conv.ID)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "first topic", conv.Messages[0].Content)

	// Continuing appends to the resumed conversation.
	typeText(t, m, "more please")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	conv = m.Session.Snapshot()
	assert.Equal(t, firstID, conv.ID)
	assert.Len(t, conv.Messages, 4)
}

func TestConversationsModalEmpty(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, ModalConversations, m.Modal)
	assert.Contains(t, m.View(), "No conversations yet")

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModalConversations, m.Modal)
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModalNone, m.Modal)
}

func TestThemeAndAgentModeHotkeys(t *testing.T) {
	m, _ := newTestModel(t)
	require.Equal(t, models.ThemeLight, m.Settings.Current().Theme)

	press(t, m, alt('t'))
	assert.Equal(t, models.ThemeDark, m.Settings.Current().Theme)
	assert.Equal(t, "dark", styles.CurrentTheme.Name)
	assert.Equal(t, "Theme: dark", m.Status)

	press(t, m, alt('m'))
	assert.True(t, m.Settings.Current().AgentModeEnabled)
	assert.Equal(t, "Agent mode on", m.Status)
	assert.Contains(t, m.View(), "AGENT ON")

	press(t, m, alt('m'))
	assert.False(t, m.Settings.Current().AgentModeEnabled)
	assert.Equal(t, "Agent mode off", m.Status)
}

func TestBlankAgentMessageIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, agent.Idle, m.Session.State())
	assert.Empty(t, m.Session.Snapshot().Messages)
}

func TestViewShowsChrome(t *testing.T) {
	m, _ := newTestModel(t)
	typeText(t, m, "example.com")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "Help: ^S")
	assert.Contains(t, out, "AGENT OFF")

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModalNone, m.Modal)
}
