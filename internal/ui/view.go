package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"aether/internal/agent"
	"aether/internal/llm"
	"aether/internal/models"
	"aether/internal/styles"
	"aether/internal/suggest"
)

func (m *Model) View() string {
	if m.WindowWidth == 0 {
		return "Loading..."
	}

	if m.Modal != ModalNone {
		var modal string
		switch m.Modal {
		case ModalBookmarks:
			modal = m.RenderBookmarksModal()
		case ModalHistory:
			modal = m.RenderHistoryModal()
		case ModalSettings:
			modal = m.RenderSettingsModal()
		case ModalShortcuts:
			modal = m.RenderShortcutsModal()
		case ModalConversations:
			modal = m.RenderConversationsModal()
		}
		modal = styles.ModalStyle.Width(styles.ContentWidth + 6).Render(modal)
		return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, modal)
	}

	var parts []string
	parts = append(parts, m.RenderTabStrip(), m.RenderAddressBar())
	if m.Bookmarks.BarVisible() {
		parts = append(parts, m.RenderBookmarksBar())
	}

	body := m.RenderPageCard()
	if m.ViewMode == models.ViewAgent {
		page := lipgloss.NewStyle().Width(m.WindowWidth - m.panelWidth()).Render(body)
		body = lipgloss.JoinHorizontal(lipgloss.Top, page, m.RenderAgentPanel())
	}
	if dropdown := m.RenderSuggestions(); dropdown != "" {
		body = overlayLines(dropdown, body)
	}
	body = lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body)

	parts = append(parts, body, m.RenderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) RenderTabStrip() string {
	list := m.Tabs.Tabs()
	if len(list) == 0 {
		return styles.HintStyle.Render(" No tabs. ctrl+t opens one.")
	}

	activeID := m.Tabs.ActiveID()
	cells := make([]string, 0, len(list)+1)
	for i, tab := range list {
		label := fmt.Sprintf("%s %s", styles.TabIndexStyle.Render(fmt.Sprint(i+1)), TruncateRunes(tab.DisplayTitle(), MaxTabTitle))
		if tab.ID == activeID {
			cells = append(cells, styles.ActiveTabStyle.Render(label))
		} else {
			cells = append(cells, styles.TabStyle.Render(label))
		}
	}
	cells = append(cells, styles.HintStyle.Render(" + "))

	strip := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	return lipgloss.NewStyle().MaxWidth(m.WindowWidth).Render(strip)
}

func (m *Model) RenderAddressBar() string {
	id := m.Tabs.ActiveID()
	nav := func(enabled bool, glyph string) string {
		if enabled {
			return styles.NavEnabledStyle.Render(glyph)
		}
		return styles.NavDisabledStyle.Render(glyph)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Center,
		nav(m.Tabs.CanGoBack(id), "◀"), " ",
		nav(m.Tabs.CanGoForward(id), "▶"), " ",
		nav(id != "", "⟳"), " ",
	)

	box := styles.AddressBoxStyle
	if m.Focus == FocusAddress {
		box = styles.AddressFocusedStyle
	}
	input := box.Width(m.Address.Width + 4).Render(m.Address.View())

	star := styles.NavDisabledStyle.Render(" ☆")
	if tab, ok := m.Tabs.Active(); ok && m.Bookmarks.Has(tab.URL) {
		star = styles.StarStyle.Render(" ★")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, " ", controls, input, star)
}

func (m *Model) RenderSuggestions() string {
	if m.Focus != FocusAddress || len(m.Suggestions) == 0 {
		return ""
	}

	width := m.Address.Width
	var lines []string
	for i, s := range m.Suggestions {
		kind := styles.SuggestKindStyle.Render(s.Kind.String())
		text := s.Title
		if s.Kind != suggest.KindSearch {
			if text == "" {
				text = s.URL
			} else {
				text = text + "  " + styles.HintStyle.Render(s.URL)
			}
		}
		row := kind + TruncateRunes(text, width)
		if i == m.SuggestIdx {
			lines = append(lines, styles.SuggestSelectedStyle.Width(width).Render("▸ "+row))
		} else {
			lines = append(lines, styles.SuggestItemStyle.Width(width).Render("  "+row))
		}
	}
	return lipgloss.NewStyle().MarginLeft(9).Render(styles.SuggestBoxStyle.Render(strings.Join(lines, "\n")))
}

func (m *Model) RenderBookmarksBar() string {
	items := m.Bookmarks.All()
	if len(items) == 0 {
		return styles.BookmarkBarStyle.Width(m.WindowWidth).Render(styles.HintStyle.Render("No bookmarks yet. ctrl+d bookmarks the current page."))
	}

	var chips []string
	used := 0
	for _, bm := range items {
		chip := styles.BookmarkChipStyle.Render(TruncateRunes(bm.Title, 20))
		if used+lipgloss.Width(chip) > m.WindowWidth-4 {
			break
		}
		used += lipgloss.Width(chip)
		chips = append(chips, chip)
	}
	return styles.BookmarkBarStyle.Width(m.WindowWidth).Render(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
}

func (m *Model) RenderPageCard() string {
	tab, ok := m.Tabs.Active()
	if !ok {
		return styles.PageCardStyle.Render(styles.HintStyle.Render("No open tabs. Press ctrl+t to open one."))
	}

	row := func(label, value string) string {
		return styles.LabelStyle.Render(label) + value
	}

	var lines []string
	lines = append(lines, styles.PageTitleStyle.Render(tab.DisplayTitle()))
	if tab.URL != "" && tab.URL != models.BlankURL {
		lines = append(lines, styles.PageURLStyle.Render(tab.URL))
	} else {
		lines = append(lines, styles.HintStyle.Render("Type an address or a search above."))
	}
	lines = append(lines, "")

	if tab.Favicon != "" {
		lines = append(lines, row("Icon", styles.InfoStyle.Render(tab.Favicon)))
	}
	if snap, ok := m.Tabs.Ledger().Snapshot(tab.ID); ok && len(snap.Entries) > 0 {
		lines = append(lines, row("History", fmt.Sprintf("%d of %d", snap.Cursor+1, len(snap.Entries))))
	}
	for i, t := range m.Tabs.Tabs() {
		if t.ID == tab.ID {
			lines = append(lines, row("Tab", fmt.Sprintf("%d of %d", i+1, m.Tabs.Len())))
			break
		}
	}
	if bm, ok := m.Bookmarks.Find(tab.URL); ok {
		lines = append(lines, row("Saved", styles.StarStyle.Render("★ ")+RelativeTime(bm.CreatedAt)))
	}

	width := m.WindowWidth - 2
	if m.ViewMode == models.ViewAgent {
		width = m.WindowWidth - m.panelWidth() - 2
	}
	if width < 20 {
		width = 20
	}
	return styles.PageCardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) RenderAgentPanel() string {
	s := m.Settings.Current()
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.AiLabelStyle.Render("AGENT"),
		lipgloss.NewStyle().Foreground(styles.ProviderColor(s.AIProvider)).Render(s.AIProvider),
		styles.HintStyle.Render(" / "+s.AIModel),
	)

	var status string
	switch m.Session.State() {
	case agent.Sending:
		status = m.Spinner.View() + " Thinking..."
	case agent.Errored:
		status = styles.ErrorStyle.Render(TruncateRunes(fmt.Sprintf("Error: %v", m.Session.Err()), m.AgentViewport.Width))
	default:
		status = styles.HintStyle.Render("enter send • alt+enter newline • ctrl+n new")
	}

	input := styles.InputBoxStyle.Render(m.AgentInput.View())

	panel := styles.PanelStyle
	if m.Focus == FocusAgent {
		panel = styles.PanelFocusedStyle
	}
	return panel.Width(m.panelWidth() - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.AgentViewport.View(),
		status,
		input,
	))
}

// UpdateAgentViewport re-renders the conversation into the panel.
func (m *Model) UpdateAgentViewport() {
	conv := m.Session.Snapshot()
	if len(conv.Messages) == 0 {
		welcome := styles.HintStyle.Width(m.AgentViewport.Width).Render(
			"Ask about the page you are on. Turn on agent mode in settings (ctrl+o) to let the agent open and search tabs.")
		m.AgentViewport.SetContent(welcome)
		return
	}

	actions := m.Session.Actions()
	lastAssistant := -1
	for i, msg := range conv.Messages {
		if msg.Role == models.RoleAssistant {
			lastAssistant = i
		}
	}

	blocks := make([]string, 0, len(conv.Messages)+1)
	for i, msg := range conv.Messages {
		switch msg.Role {
		case models.RoleUser:
			blocks = append(blocks, FormatUserMessage(msg.Content, m.AgentViewport.Width))
		case models.RoleAssistant:
			content := m.renderMarkdown(msg.Content)
			if i == lastAssistant && len(actions) > 0 {
				blocks = append(blocks, FormatAIMessageWithTools(FormatToolActions(actions), content))
			} else {
				blocks = append(blocks, FormatAIMessage(content))
			}
		}
	}
	if m.Session.State() == agent.Sending {
		blocks = append(blocks, styles.AiLabelStyle.Render("AGENT")+"\n"+m.Spinner.View()+" Generating...")
	}

	m.AgentViewport.SetContent(strings.Join(blocks, "\n\n"))
	m.AgentViewport.GotoBottom()
}

func (m *Model) renderMarkdown(content string) string {
	if m.Renderer == nil {
		return content
	}
	if out, ok := m.renderCache[content]; ok {
		return out
	}
	rendered, err := m.Renderer.Render(content)
	if err != nil {
		return content
	}
	out := strings.TrimSpace(rendered)
	m.renderCache[content] = out
	return out
}

func (m *Model) RenderStatusBar() string {
	s := m.Settings.Current()

	modeText, modeColor := "AGENT OFF", styles.CurrentTheme.TextMuted
	if s.AgentModeEnabled {
		modeText, modeColor = "AGENT ON", styles.CurrentTheme.AgentLabel
	}
	mode := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(modeColor).
		Padding(0, 1).
		Render(modeText)

	provider := lipgloss.NewStyle().Foreground(styles.ProviderColor(s.AIProvider)).Render(s.AIProvider)
	model := styles.HintStyle.Render(TruncateRunes(s.AIModel, 25))

	var status string
	switch {
	case m.StatusErr != nil:
		status = styles.ErrorStyle.Render(TruncateRunes(m.StatusErr.Error(), m.WindowWidth/2))
	case m.Status != "":
		status = styles.InfoStyle.Render(TruncateRunes(m.Status, m.WindowWidth/2))
	}
	help := styles.HintStyle.Render("Help: ^S")

	left := lipgloss.JoinHorizontal(lipgloss.Center, mode, "  ", provider, " ", model)
	right := lipgloss.JoinHorizontal(lipgloss.Center, status, "  ", help)

	gap := m.WindowWidth - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", gap), right)
	return styles.StatusBarStyle.Width(m.WindowWidth).Render(bar)
}

func (m *Model) RenderBookmarksModal() string {
	items := m.Bookmarks.All()
	title := styles.ModalTitleStyle.Render(fmt.Sprintf("Bookmarks (%d)", len(items)))

	var body string
	if len(items) == 0 {
		body = styles.ModalItemStyle.Render(styles.HintStyle.Render("No bookmarks yet"))
	} else {
		rows := make([]string, 0, len(items))
		for i, bm := range items {
			text := TruncateRunes(bm.Title, styles.ContentWidth/2) + "  " + styles.HintStyle.Render(TruncateRunes(bm.URL, styles.ContentWidth/2-2))
			if i == m.ModalIdx {
				rows = append(rows, styles.ModalSelectedStyle.Render("> "+text))
			} else {
				rows = append(rows, styles.ModalItemStyle.Render("  "+text))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	hint := styles.HintStyle.Width(styles.ContentWidth).PaddingTop(1).
		Render("↑/↓: navigate • Enter: open • d: delete • Esc: close")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, hint)
}

func (m *Model) RenderHistoryModal() string {
	items := m.History.All()
	totalPages := (len(items) + HistoryPageSize - 1) / HistoryPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	title := styles.ModalTitleStyle.Render(fmt.Sprintf("History (%d) - Page %d/%d", len(items), m.HistoryPage+1, totalPages))

	var body string
	if len(items) == 0 {
		body = styles.ModalItemStyle.Render(styles.HintStyle.Render("Nothing visited yet"))
	} else {
		start := m.HistoryPage * HistoryPageSize
		end := start + HistoryPageSize
		if end > len(items) {
			end = len(items)
		}
		rows := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			e := items[i]
			when := RelativeTime(e.LastVisit)
			label := e.Title
			if label == "" {
				label = e.URL
			}
			label = TruncateRunes(label, styles.ContentWidth-len(when)-6)
			text := fmt.Sprintf("%s %s", label, styles.HintStyle.Render(when))
			if i == m.ModalIdx {
				rows = append(rows, styles.ModalSelectedStyle.Render("> "+text))
			} else {
				rows = append(rows, styles.ModalItemStyle.Render("  "+text))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	hint := styles.HintStyle.Width(styles.ContentWidth).PaddingTop(1).
		Render("↑/↓: navigate • ←/→: page • Enter: open • c: clear all • Esc: close")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, hint)
}

func (m *Model) RenderConversationsModal() string {
	items := m.Conversations.All()
	title := styles.ModalTitleStyle.Render(fmt.Sprintf("Conversations (%d) - Page %d/%d",
		m.Conversations.Total(), m.Conversations.Page()+1, m.Conversations.Pages()))

	var body string
	if len(items) == 0 {
		body = styles.ModalItemStyle.Render(styles.HintStyle.Render("No conversations yet"))
	} else {
		rows := make([]string, 0, len(items))
		for i, c := range items {
			when := RelativeTime(c.UpdatedAt)
			label := strings.ReplaceAll(c.LastUserPrompt, "\n", " ")
			if label == "" {
				label = "(empty)"
			}
			label = TruncateRunes(label, styles.ContentWidth-len(when)-len(c.ModelProvider)-8)
			text := fmt.Sprintf("%s %s", label, styles.HintStyle.Render(c.ModelProvider+" · "+when))
			if i == m.ModalIdx {
				rows = append(rows, styles.ModalSelectedStyle.Render("> "+text))
			} else {
				rows = append(rows, styles.ModalItemStyle.Render("  "+text))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	hint := styles.HintStyle.Width(styles.ContentWidth).PaddingTop(1).
		Render("↑/↓: navigate • ←/→: page • Enter: resume • Esc: close")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, hint)
}

func (m *Model) RenderSettingsModal() string {
	title := styles.ModalTitleStyle.Render("Settings")
	d := m.SettingsDraft

	agentMode := "off"
	if d.AgentModeEnabled {
		agentMode = "on"
	}
	modelName := d.AIModel
	for _, mdl := range llm.ModelsFor(d.AIProvider) {
		if mdl.ID == d.AIModel {
			modelName = mdl.Name
		}
	}

	rows := []struct{ label, value string }{
		{"Theme", string(d.Theme)},
		{"Search engine", d.DefaultSearchEngine},
		{"Provider", d.AIProvider},
		{"Model", modelName},
		{"Agent mode", agentMode},
	}

	items := make([]string, 0, len(rows))
	for i, r := range rows {
		line := styles.KeyStyle.Render(r.label) + "‹ " + r.value + " ›"
		if i == m.ModalIdx {
			items = append(items, styles.ModalSelectedStyle.Render(line))
		} else {
			items = append(items, styles.ModalItemStyle.Render(line))
		}
	}

	var footer string
	if m.Busy {
		footer = styles.InfoStyle.Render("Saving...")
	} else if m.StatusErr != nil {
		footer = styles.ErrorStyle.Render(TruncateRunes(m.StatusErr.Error(), styles.ContentWidth))
	}

	hint := styles.HintStyle.Width(styles.ContentWidth).PaddingTop(1).
		Render("↑/↓: choose • ←/→: change • Enter: save • Esc: cancel")
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...), footer, hint)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Ctrl+T", "New tab"},
		{"Ctrl+W", "Close tab"},
		{"Alt+N / Alt+P", "Next / previous tab"},
		{"Alt+1..9", "Go to tab"},
		{"Alt+← / Alt+→", "Back / forward"},
		{"Ctrl+R", "Reload"},
		{"Ctrl+L", "Focus address bar"},
		{"Tab", "Switch address bar / agent"},
		{"Ctrl+D", "Bookmark page"},
		{"Ctrl+B", "Bookmarks"},
		{"Ctrl+G", "Toggle bookmarks bar"},
		{"Ctrl+Y", "History"},
		{"Ctrl+O", "Settings"},
		{"Ctrl+A", "Toggle agent panel"},
		{"Ctrl+N", "New conversation"},
		{"Ctrl+E", "Past conversations"},
		{"Alt+T", "Cycle theme"},
		{"Alt+M", "Toggle agent mode"},
		{"Ctrl+S", "Shortcuts (this menu)"},
		{"Ctrl+C", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, styles.ModalItemStyle.Render(styles.KeyStyle.Render(s.key)+" "+s.desc))
	}

	hint := styles.HintStyle.Width(styles.ContentWidth).PaddingTop(1).Render("Esc/Enter: close")
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...), hint)
}
