package styles

import "github.com/charmbracelet/lipgloss"

var ContentWidth = 54

var (
	TitleStyle lipgloss.Style

	TabStyle       lipgloss.Style
	ActiveTabStyle lipgloss.Style
	TabIndexStyle  lipgloss.Style

	AddressBoxStyle      lipgloss.Style
	AddressFocusedStyle  lipgloss.Style
	NavEnabledStyle      lipgloss.Style
	NavDisabledStyle     lipgloss.Style
	StarStyle            lipgloss.Style
	SuggestBoxStyle      lipgloss.Style
	SuggestItemStyle     lipgloss.Style
	SuggestSelectedStyle lipgloss.Style
	SuggestKindStyle     lipgloss.Style

	BookmarkBarStyle  lipgloss.Style
	BookmarkChipStyle lipgloss.Style

	PageCardStyle  lipgloss.Style
	PageTitleStyle lipgloss.Style
	PageURLStyle   lipgloss.Style
	LabelStyle     lipgloss.Style

	PanelStyle        lipgloss.Style
	PanelFocusedStyle lipgloss.Style
	UserLabelStyle    lipgloss.Style
	UserMsgStyle      lipgloss.Style
	AiLabelStyle      lipgloss.Style
	AiMsgStyle        lipgloss.Style
	ToolActionStyle   lipgloss.Style
	ToolIconStyle     lipgloss.Style
	ToolNameStyle     lipgloss.Style
	InputBoxStyle     lipgloss.Style

	ErrorStyle lipgloss.Style
	InfoStyle  lipgloss.Style
	HintStyle  lipgloss.Style

	ModalStyle         lipgloss.Style
	ModalTitleStyle    lipgloss.Style
	ModalItemStyle     lipgloss.Style
	ModalSelectedStyle lipgloss.Style
	KeyStyle           lipgloss.Style

	StatusBarStyle lipgloss.Style
)

func init() {
	Apply(CurrentTheme)
}

// Apply makes t the current theme and rebuilds every style from it.
func Apply(t Theme) {
	CurrentTheme = t

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
		Foreground(t.TextSecondary).
		Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.BgElevated).
		Bold(true).
		Padding(0, 1).
		Underline(true)

	TabIndexStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted)

	AddressBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	AddressFocusedStyle = AddressBoxStyle.
		BorderForeground(t.Primary)

	NavEnabledStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Bold(true)

	NavDisabledStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted)

	StarStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	SuggestBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	SuggestItemStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Padding(0, 1)

	SuggestSelectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(t.Primary).
		Padding(0, 1)

	SuggestKindStyle = lipgloss.NewStyle().
		Foreground(t.Secondary).
		Width(10)

	BookmarkBarStyle = lipgloss.NewStyle().
		Foreground(t.TextSecondary).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Divider).
		Padding(0, 1)

	BookmarkChipStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.BgElevated).
		Padding(0, 1).
		MarginRight(1)

	PageCardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(1, 2)

	PageTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.TextPrimary)

	PageURLStyle = lipgloss.NewStyle().
		Foreground(t.Info).
		Underline(true)

	LabelStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(10)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	PanelFocusedStyle = PanelStyle.
		BorderForeground(t.AgentLabel)

	UserLabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(t.UserLabel).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	UserMsgStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		PaddingLeft(2).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(t.UserLabel)

	AiLabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(t.AgentLabel).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	AiMsgStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(t.AgentLabel)

	ToolActionStyle = lipgloss.NewStyle().
		Foreground(t.TextSecondary).
		PaddingLeft(2)

	ToolIconStyle = lipgloss.NewStyle().
		Foreground(t.AgentLabel).
		Bold(true)

	ToolNameStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	InputBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.AgentLabel).
		Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)

	InfoStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted)

	HintStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Width(ContentWidth).
		MarginBottom(1)

	ModalItemStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Padding(0, 1).
		Width(ContentWidth)

	ModalSelectedStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Width(ContentWidth).
		Background(t.Primary).
		Foreground(lipgloss.Color("#FFFFFF"))

	KeyStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true).
		Width(14)

	StatusBarStyle = lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
}

// SetContentWidth resizes the modal rows and rebuilds the styles that
// depend on it.
func SetContentWidth(w int) {
	ContentWidth = w
	Apply(CurrentTheme)
}
