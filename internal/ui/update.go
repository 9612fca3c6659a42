package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"aether/internal/agent"
	"aether/internal/models"
	"aether/internal/styles"
	"aether/internal/suggest"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height
		m.layout()
		m.rebuildRenderer()
		m.UpdateAgentViewport()
		return m, nil

	case spinner.TickMsg:
		if m.Session.State() != agent.Sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		m.UpdateAgentViewport()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case settingsLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		m.applySettings()
		return m, nil

	case settingsSavedMsg:
		m.Busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.applySettings()
		m.Modal = ModalNone
		m.setStatus(msg.status)
		return m, nil

	case tabsLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if m.Tabs.Len() == 0 {
			return m, m.createTab()
		}
		m.syncAddress()
		return m, nil

	case tabOpMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.op != "" {
			m.setStatus(msg.op)
		}
		m.syncAddress()
		return m, nil

	case navigatedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus("Loaded " + msg.tab.DisplayTitle())
		m.syncAddress()
		return m, nil

	case bookmarksLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case bookmarkToggledMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.added {
			m.setStatus("Bookmark added")
		} else {
			m.setStatus("Bookmark removed")
		}
		return m, nil

	case bookmarkDeletedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.ModalIdx = clampIndex(m.ModalIdx, len(m.Bookmarks.All()))
		m.setStatus("Bookmark removed")
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case historyClearedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.ModalIdx = 0
		m.HistoryPage = 0
		m.setStatus("History cleared")
		return m, nil

	case conversationsLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.ModalIdx = clampIndex(m.ModalIdx, len(m.Conversations.All()))
		return m, nil

	case conversationLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.Modal = ModalNone
		m.AgentInput.Reset()
		m.setStatus("Conversation loaded")
		return m, m.openAgentPanel()

	case agentReplyMsg:
		m.Session.Finish(msg.pending, msg.resp, msg.err)
		m.UpdateAgentViewport()
		if msg.err == nil && len(msg.resp.Actions) > 0 {
			// The agent may have opened or moved tabs behind our back.
			return m, tea.Batch(m.loadTabs(), m.loadHistory())
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.Modal != ModalNone {
		return m.handleModalKey(msg)
	}

	if cmd, ok := m.handleShortcut(msg); ok {
		return m, cmd
	}

	switch m.Focus {
	case FocusAddress:
		return m.handleAddressKey(msg)
	case FocusAgent:
		return m.handleAgentKey(msg)
	default:
		switch msg.String() {
		case "?":
			m.openModal(ModalShortcuts)
		case "/":
			return m, m.focusAddress()
		}
		return m, nil
	}
}

// handleShortcut runs the keys that work regardless of focus.
func (m *Model) handleShortcut(msg tea.KeyMsg) (tea.Cmd, bool) {
	if idx, ok := tabNumberKey(msg); ok {
		if tab, found := m.Tabs.At(idx); found {
			return m.switchTab(tab.ID), true
		}
		return nil, true
	}

	switch msg.String() {
	case "ctrl+t":
		return tea.Batch(m.createTab(), m.focusAddress()), true

	case "ctrl+w":
		id := m.Tabs.ActiveID()
		if id == "" {
			return nil, true
		}
		return m.closeTab(id), true

	case "alt+n", "alt+p":
		offset := 1
		if msg.String() == "alt+p" {
			offset = -1
		}
		tab, ok := m.Tabs.Neighbor(offset)
		if !ok || tab.ID == m.Tabs.ActiveID() {
			return nil, true
		}
		return m.switchTab(tab.ID), true

	case "alt+left":
		return m.goBack(), true

	case "alt+right":
		return m.goForward(), true

	case "ctrl+r":
		return m.refresh(), true

	case "ctrl+l":
		return m.focusAddress(), true

	case "tab":
		if m.Focus == FocusAddress && m.ViewMode == models.ViewAgent {
			return m.focusAgent(), true
		}
		return m.focusAddress(), true

	case "ctrl+d":
		return m.toggleBookmark(), true

	case "ctrl+b":
		m.openModal(ModalBookmarks)
		return m.loadBookmarks(), true

	case "ctrl+y":
		m.openModal(ModalHistory)
		return m.loadHistory(), true

	case "ctrl+o":
		m.SettingsDraft = m.Settings.Current()
		m.openModal(ModalSettings)
		return nil, true

	case "ctrl+g":
		m.Bookmarks.ToggleBar()
		m.layout()
		return nil, true

	case "ctrl+a":
		if m.ViewMode == models.ViewAgent {
			m.ViewMode = models.ViewNormal
			m.layout()
			if m.Focus == FocusAgent {
				m.blurAll()
				m.Focus = FocusPage
			}
			return nil, true
		}
		return m.openAgentPanel(), true

	case "ctrl+e":
		m.openModal(ModalConversations)
		return m.loadConversations(0), true

	case "alt+t":
		next := models.Theme(cycle(themeCycle, string(m.Settings.Current().Theme), 1))
		return func() tea.Msg {
			return settingsSavedMsg{status: "Theme: " + string(next), err: m.Settings.SetTheme(context.Background(), next)}
		}, true

	case "alt+m":
		return func() tea.Msg {
			err := m.Settings.ToggleAgentMode(context.Background())
			status := "Agent mode off"
			if m.Settings.Current().AgentModeEnabled {
				status = "Agent mode on"
			}
			return settingsSavedMsg{status: status, err: err}
		}, true

	case "ctrl+n":
		m.Session.NewConversation(m.Tabs.ActiveID())
		m.AgentInput.Reset()
		m.UpdateAgentViewport()
		m.setStatus("New conversation")
		return nil, true

	case "ctrl+s":
		m.openModal(ModalShortcuts)
		return nil, true
	}
	return nil, false
}

func (m *Model) handleAddressKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		m.SuggestIdx = suggest.MoveSelection(m.SuggestIdx, -1, len(m.Suggestions))
		return m, nil
	case "down":
		m.SuggestIdx = suggest.MoveSelection(m.SuggestIdx, 1, len(m.Suggestions))
		return m, nil
	case "esc":
		m.blurAll()
		m.Focus = FocusPage
		m.syncAddress()
		return m, nil
	case "enter":
		return m, m.submitAddress()
	}

	// The first typed character replaces the URL shown on focus.
	if m.addressFresh && msg.Type == tea.KeyRunes {
		m.Address.SetValue("")
	}
	m.addressFresh = false

	var cmd tea.Cmd
	m.Address, cmd = m.Address.Update(msg)
	m.recomputeSuggestions()
	return m, cmd
}

func (m *Model) handleAgentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isNewlineShortcut(msg) {
		m.AgentInput.InsertString("\n")
		m.layout()
		return m, nil
	}

	switch msg.String() {
	case "esc":
		// The first esc dismisses a failed request, the next one leaves the panel.
		if m.Session.State() == agent.Errored {
			m.Session.ClearError()
			m.UpdateAgentViewport()
			return m, nil
		}
		m.blurAll()
		m.Focus = FocusPage
		return m, nil
	case "enter":
		return m, m.sendAgentMessage()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.AgentViewport, cmd = m.AgentViewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.AgentInput, cmd = m.AgentInput.Update(msg)
	m.layout()
	return m, cmd
}

func (m *Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		m.Modal = ModalNone
		return m, nil
	}

	switch m.Modal {
	case ModalShortcuts:
		switch key {
		case "enter", "?", "ctrl+s":
			m.Modal = ModalNone
		}
		return m, nil

	case ModalBookmarks:
		items := m.Bookmarks.All()
		switch key {
		case "up", "k":
			m.ModalIdx = wrapIndex(m.ModalIdx-1, len(items))
		case "down", "j":
			m.ModalIdx = wrapIndex(m.ModalIdx+1, len(items))
		case "enter":
			if m.ModalIdx < len(items) {
				m.Modal = ModalNone
				return m, m.openURL(items[m.ModalIdx].URL)
			}
		case "d", "x", "delete":
			if m.ModalIdx < len(items) {
				return m, m.deleteBookmark(items[m.ModalIdx].ID)
			}
		case "ctrl+b":
			m.Modal = ModalNone
		}
		return m, nil

	case ModalHistory:
		items := m.History.All()
		switch key {
		case "up", "k":
			m.ModalIdx = wrapIndex(m.ModalIdx-1, len(items))
		case "down", "j":
			m.ModalIdx = wrapIndex(m.ModalIdx+1, len(items))
		case "left", "h":
			if m.ModalIdx >= HistoryPageSize {
				m.ModalIdx -= HistoryPageSize
			} else {
				m.ModalIdx = 0
			}
		case "right", "l":
			if next := m.ModalIdx + HistoryPageSize; next < len(items) {
				m.ModalIdx = next
			} else if len(items) > 0 {
				m.ModalIdx = len(items) - 1
			}
		case "enter":
			if m.ModalIdx < len(items) {
				m.Modal = ModalNone
				return m, m.openURL(items[m.ModalIdx].URL)
			}
		case "c":
			return m, m.clearHistory()
		case "ctrl+y":
			m.Modal = ModalNone
		}
		m.HistoryPage = m.ModalIdx / HistoryPageSize
		return m, nil

	case ModalConversations:
		items := m.Conversations.All()
		page := m.Conversations.Page()
		switch key {
		case "up", "k":
			m.ModalIdx = wrapIndex(m.ModalIdx-1, len(items))
		case "down", "j":
			m.ModalIdx = wrapIndex(m.ModalIdx+1, len(items))
		case "left", "h":
			if page > 0 {
				m.ModalIdx = 0
				return m, m.loadConversations(page - 1)
			}
		case "right", "l":
			if page+1 < m.Conversations.Pages() {
				m.ModalIdx = 0
				return m, m.loadConversations(page + 1)
			}
		case "enter":
			if m.ModalIdx < len(items) {
				return m, m.loadConversation(items[m.ModalIdx].ID)
			}
		case "ctrl+e":
			m.Modal = ModalNone
		}
		return m, nil

	case ModalSettings:
		switch key {
		case "up", "k":
			m.ModalIdx = wrapIndex(m.ModalIdx-1, settingCount)
		case "down", "j":
			m.ModalIdx = wrapIndex(m.ModalIdx+1, settingCount)
		case "left", "h":
			m.SettingsDraft = cycleSetting(m.SettingsDraft, m.ModalIdx, -1)
		case "right", "l", " ":
			m.SettingsDraft = cycleSetting(m.SettingsDraft, m.ModalIdx, 1)
		case "enter":
			if m.Busy {
				return m, nil
			}
			m.Busy = true
			return m, m.saveSettings(m.SettingsDraft)
		case "ctrl+o":
			m.Modal = ModalNone
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) openModal(modal Modal) {
	m.Modal = modal
	m.ModalIdx = 0
	m.HistoryPage = 0
}

func (m *Model) focusAddress() tea.Cmd {
	m.blurAll()
	m.Focus = FocusAddress
	m.syncAddress()
	m.Address.CursorEnd()
	m.addressFresh = true
	return m.Address.Focus()
}

// openAgentPanel shows the agent panel and focuses its input.
func (m *Model) openAgentPanel() tea.Cmd {
	m.ViewMode = models.ViewAgent
	m.layout()
	m.rebuildRenderer()
	m.UpdateAgentViewport()
	return m.focusAgent()
}

func (m *Model) focusAgent() tea.Cmd {
	if m.ViewMode != models.ViewAgent {
		return nil
	}
	m.blurAll()
	m.Focus = FocusAgent
	return m.AgentInput.Focus()
}

func (m *Model) blurAll() {
	m.Address.Blur()
	m.AgentInput.Blur()
	m.Suggestions = nil
	m.SuggestIdx = -1
}

// syncAddress shows the active tab's URL unless the user is typing.
func (m *Model) syncAddress() {
	if m.Focus == FocusAddress && m.Address.Value() != "" && m.Suggestions != nil {
		return
	}
	tab, ok := m.Tabs.Active()
	if !ok || tab.URL == models.BlankURL {
		m.Address.SetValue("")
		return
	}
	m.Address.SetValue(tab.URL)
}

func (m *Model) recomputeSuggestions() {
	s := m.Settings.Current()
	m.Suggestions = suggest.Compose(suggest.Input{
		Query:        m.Address.Value(),
		Focused:      m.Focus == FocusAddress,
		Bookmarks:    m.Bookmarks.All(),
		History:      m.History.All(),
		SearchEngine: s.DefaultSearchEngine,
	})
	if m.Suggestions == nil {
		m.Suggestions = []suggest.Suggestion{}
	}
	m.SuggestIdx = -1
}

// submitAddress opens the highlighted suggestion, or the typed text.
func (m *Model) submitAddress() tea.Cmd {
	target := ""
	if m.SuggestIdx >= 0 && m.SuggestIdx < len(m.Suggestions) {
		target = m.Suggestions[m.SuggestIdx].URL
	} else {
		target = suggest.FormatURL(m.Address.Value(), m.Settings.Current().DefaultSearchEngine)
	}
	if target == "" {
		return nil
	}
	m.blurAll()
	m.Focus = FocusPage
	m.Address.SetValue(target)
	return m.openURL(target)
}

func (m *Model) sendAgentMessage() tea.Cmd {
	p, err := m.Session.Begin(m.AgentInput.Value(), m.Tabs.ActiveID())
	if errors.Is(err, agent.ErrBlank) {
		return nil
	}
	if err != nil {
		m.setError(err)
		return nil
	}
	m.AgentInput.Reset()
	m.layout()
	m.UpdateAgentViewport()

	session := m.Session
	return tea.Batch(func() tea.Msg {
		resp, err := session.Complete(context.Background(), p)
		return agentReplyMsg{pending: p, resp: resp, err: err}
	}, m.Spinner.Tick)
}

func (m *Model) applySettings() {
	s := m.Settings.Current()
	styles.Apply(styles.ThemeFor(s.Theme))
	m.Session.SetProvider(s.AIProvider)
	m.Session.SetModel(s.AIModel)
	m.SettingsDraft = s
	m.rebuildRenderer()
	m.UpdateAgentViewport()
}

func (m *Model) rebuildRenderer() {
	width := m.AgentViewport.Width - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.GlamourStyle(styles.CurrentTheme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.Renderer = nil
	} else {
		m.Renderer = r
	}
	m.renderCache = map[string]string{}
}

// layout sizes every widget from the window size.
func (m *Model) layout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	mw := m.WindowWidth - 10
	if mw > ModalWidth {
		mw = ModalWidth
	}
	if mw < 30 {
		mw = 30
	}
	styles.SetContentWidth(mw - 6)

	addrWidth := m.WindowWidth - 16
	if addrWidth < 10 {
		addrWidth = 10
	}
	m.Address.Width = addrWidth

	pw := m.panelWidth()
	inputWidth := pw - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	lines := WrappedLineCount(m.AgentInput.Value(), inputWidth-2)
	if lines < 1 {
		lines = 1
	}
	if lines > 6 {
		lines = 6
	}
	m.AgentInput.SetWidth(inputWidth)
	m.AgentInput.SetHeight(lines)

	m.AgentViewport.Width = pw - 4
	// panel border, header, status line, input box
	vh := m.bodyHeight() - 2 - 1 - 1 - (m.AgentInput.Height() + 2)
	if vh < 3 {
		vh = 3
	}
	m.AgentViewport.Height = vh
}

func (m *Model) panelWidth() int {
	pw := m.WindowWidth * 2 / 5
	if pw < MinPanelWidth {
		pw = MinPanelWidth
	}
	return pw
}

// bodyHeight is what remains below the chrome and above the status bar.
func (m *Model) bodyHeight() int {
	h := m.WindowHeight - 1 - 3 - 2
	if m.Bookmarks.BarVisible() {
		h -= 2
	}
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) setStatus(s string) {
	m.Status = s
	m.StatusErr = nil
}

func (m *Model) setError(err error) {
	m.Status = ""
	m.StatusErr = err
}

// Remote operations. Each runs off the update loop and reports back with a
// message; the components it calls hold the resulting state.

func (m *Model) createTab() tea.Cmd {
	return func() tea.Msg {
		_, err := m.Tabs.Create(context.Background(), models.BlankURL)
		return tabOpMsg{op: "New tab", err: err}
	}
}

func (m *Model) closeTab(id string) tea.Cmd {
	return func() tea.Msg {
		return tabOpMsg{op: "Tab closed", err: m.Tabs.Close(context.Background(), id)}
	}
}

func (m *Model) switchTab(id string) tea.Cmd {
	return func() tea.Msg {
		return tabOpMsg{err: m.Tabs.Switch(context.Background(), id)}
	}
}

// openURL loads url in the active tab, opening a tab first when there is
// none.
func (m *Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		id := m.Tabs.ActiveID()
		if id == "" {
			tab, err := m.Tabs.Create(ctx, url)
			if err != nil {
				return navigatedMsg{err: err}
			}
			id = tab.ID
		}
		tab, err := m.Tabs.Navigate(ctx, id, url)
		return navigatedMsg{tab: tab, err: err}
	}
}

func (m *Model) goBack() tea.Cmd {
	id := m.Tabs.ActiveID()
	if id == "" || !m.Tabs.CanGoBack(id) {
		return nil
	}
	return func() tea.Msg {
		_, err := m.Tabs.Back(context.Background(), id)
		return tabOpMsg{err: err}
	}
}

func (m *Model) goForward() tea.Cmd {
	id := m.Tabs.ActiveID()
	if id == "" || !m.Tabs.CanGoForward(id) {
		return nil
	}
	return func() tea.Msg {
		_, err := m.Tabs.Forward(context.Background(), id)
		return tabOpMsg{err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	id := m.Tabs.ActiveID()
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		tab, err := m.Tabs.Refresh(context.Background(), id)
		return navigatedMsg{tab: tab, err: err}
	}
}

func (m *Model) toggleBookmark() tea.Cmd {
	tab, ok := m.Tabs.Active()
	if !ok || tab.URL == "" || tab.URL == models.BlankURL {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		if bm, found := m.Bookmarks.Find(tab.URL); found {
			return bookmarkToggledMsg{added: false, err: m.Bookmarks.Delete(ctx, bm.ID)}
		}
		_, err := m.Bookmarks.Add(ctx, tab.URL, tab.Title)
		return bookmarkToggledMsg{added: true, err: err}
	}
}

func (m *Model) deleteBookmark(id int64) tea.Cmd {
	return func() tea.Msg {
		return bookmarkDeletedMsg{err: m.Bookmarks.Delete(context.Background(), id)}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	return func() tea.Msg {
		return historyClearedMsg{err: m.History.Clear(context.Background())}
	}
}

func (m *Model) saveSettings(next models.Settings) tea.Cmd {
	return func() tea.Msg {
		return settingsSavedMsg{status: "Settings saved", err: m.Settings.Update(context.Background(), next)}
	}
}

func (m *Model) loadConversation(id string) tea.Cmd {
	return func() tea.Msg {
		return conversationLoadedMsg{err: m.Session.Load(context.Background(), id)}
	}
}
