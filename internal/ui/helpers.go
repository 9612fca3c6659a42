package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"aether/internal/llm"
	"aether/internal/models"
	"aether/internal/styles"
	"aether/internal/suggest"
)

var themeCycle = []string{string(models.ThemeLight), string(models.ThemeDark), string(models.ThemeSystem)}

// cycleSetting moves one settings row to its next (delta 1) or previous
// (delta -1) value. Switching provider picks that provider's first model.
func cycleSetting(s models.Settings, row, delta int) models.Settings {
	switch row {
	case SettingTheme:
		s.Theme = models.Theme(cycle(themeCycle, string(s.Theme), delta))
	case SettingSearchEngine:
		s.DefaultSearchEngine = cycle(suggest.Engines, s.DefaultSearchEngine, delta)
	case SettingProvider:
		s.AIProvider = cycle(llm.Providers(), s.AIProvider, delta)
		if list := llm.ModelsFor(s.AIProvider); len(list) > 0 {
			s.AIModel = list[0].ID
		}
	case SettingModel:
		list := llm.ModelsFor(s.AIProvider)
		ids := make([]string, len(list))
		for i, mdl := range list {
			ids[i] = mdl.ID
		}
		s.AIModel = cycle(ids, s.AIModel, delta)
	case SettingAgentMode:
		s.AgentModeEnabled = !s.AgentModeEnabled
	}
	return s
}

// cycle returns the value delta steps from current, wrapping. An unknown
// current value starts from the first option.
func cycle(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return options[0]
	}
	return options[wrapIndex(idx+delta, len(options))]
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// tabNumberKey maps alt+1..alt+9 to a zero-based tab index.
func tabNumberKey(msg tea.KeyMsg) (int, bool) {
	if !msg.Alt || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "ctrl+j", "alt+enter":
		return true
	default:
		return false
	}
}

// overlayLines draws top over the first lines of base.
func overlayLines(top, base string) string {
	topLines := strings.Split(top, "\n")
	baseLines := strings.Split(base, "\n")
	for i, line := range topLines {
		if i < len(baseLines) {
			baseLines[i] = line
		} else {
			baseLines = append(baseLines, line)
		}
	}
	return strings.Join(baseLines, "\n")
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	count := 0
	for _, line := range strings.Split(value, "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func RelativeTime(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	}
	if d < 24*time.Hour {
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1 hr ago"
		}
		return fmt.Sprintf("%d hrs ago", hrs)
	}
	days := int(d.Hours() / 24)
	if days < 14 {
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	weeks := days / 7
	if weeks == 1 {
		return "1 week ago"
	}
	return fmt.Sprintf("%d weeks ago", weeks)
}

func FormatUserMessage(content string, width int) string {
	label := styles.UserLabelStyle.Render("YOU")
	w := width - 4
	if w < 10 {
		w = 10
	}
	msg := styles.UserMsgStyle.Width(w).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, label, msg)
}

func FormatAIMessage(content string) string {
	label := styles.AiLabelStyle.Render("AGENT")
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatToolActions(actions []models.ToolAction) string {
	var lines []string
	for _, action := range actions {
		icon := styles.ToolIconStyle.Render("→")
		name := styles.ToolNameStyle.Render(action.Summary)
		lines = append(lines, styles.ToolActionStyle.Render(fmt.Sprintf("%s %s", icon, name)))
	}
	return strings.Join(lines, "\n")
}

func FormatAIMessageWithTools(toolDisplay, content string) string {
	label := styles.AiLabelStyle.Render("AGENT")
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s\n%s", label, toolDisplay, msg)
}
