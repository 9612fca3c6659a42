package styles

import (
	"github.com/charmbracelet/lipgloss"

	"aether/internal/models"
)

// Theme defines a complete color scheme for the shell
type Theme struct {
	Name string

	// Core colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Background colors
	BgBase     lipgloss.Color
	BgSurface  lipgloss.Color
	BgElevated lipgloss.Color

	// Text colors
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border  lipgloss.Color
	Divider lipgloss.Color

	// Agent panel
	UserLabel  lipgloss.Color
	AgentLabel lipgloss.Color
}

// DarkTheme is the dark mode color scheme
var DarkTheme = Theme{
	Name:      "dark",
	Primary:   lipgloss.Color("#818CF8"), // Indigo 400
	Secondary: lipgloss.Color("#22D3EE"), // Cyan 400
	Accent:    lipgloss.Color("#FBBF24"), // Amber 400

	BgBase:     lipgloss.Color("#0B0B0F"),
	BgSurface:  lipgloss.Color("#141419"),
	BgElevated: lipgloss.Color("#1E1E2A"),

	TextPrimary:   lipgloss.Color("#F1F5F9"), // Slate 100
	TextSecondary: lipgloss.Color("#94A3B8"), // Slate 400
	TextMuted:     lipgloss.Color("#64748B"), // Slate 500

	Success: lipgloss.Color("#34D399"),
	Warning: lipgloss.Color("#FBBF24"),
	Error:   lipgloss.Color("#FB7185"),
	Info:    lipgloss.Color("#60A5FA"),

	Border:  lipgloss.Color("#3F3F46"), // Zinc 700
	Divider: lipgloss.Color("#1F2937"),

	UserLabel:  lipgloss.Color("#60A5FA"),
	AgentLabel: lipgloss.Color("#A78BFA"),
}

// LightTheme is the light mode color scheme
var LightTheme = Theme{
	Name:      "light",
	Primary:   lipgloss.Color("#4F46E5"), // Indigo 600
	Secondary: lipgloss.Color("#0891B2"), // Cyan 600
	Accent:    lipgloss.Color("#D97706"), // Amber 600

	BgBase:     lipgloss.Color("#FAFAFA"),
	BgSurface:  lipgloss.Color("#FFFFFF"),
	BgElevated: lipgloss.Color("#E4E4E7"),

	TextPrimary:   lipgloss.Color("#18181B"), // Zinc 900
	TextSecondary: lipgloss.Color("#52525B"), // Zinc 600
	TextMuted:     lipgloss.Color("#A1A1AA"), // Zinc 400

	Success: lipgloss.Color("#10B981"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#EF4444"),
	Info:    lipgloss.Color("#3B82F6"),

	Border:  lipgloss.Color("#D4D4D8"), // Zinc 300
	Divider: lipgloss.Color("#F4F4F5"),

	UserLabel:  lipgloss.Color("#3B82F6"),
	AgentLabel: lipgloss.Color("#7C3AED"),
}

// CurrentTheme holds the active theme. Apply changes it.
var CurrentTheme = LightTheme

// hasDarkBackground is swapped in tests.
var hasDarkBackground = lipgloss.HasDarkBackground

// ThemeFor maps a settings theme to a color scheme. System follows the
// terminal background.
func ThemeFor(t models.Theme) Theme {
	switch t {
	case models.ThemeDark:
		return DarkTheme
	case models.ThemeSystem:
		if hasDarkBackground() {
			return DarkTheme
		}
		return LightTheme
	default:
		return LightTheme
	}
}

// GlamourStyle names the glamour standard style matching t.
func GlamourStyle(t Theme) string {
	if t.Name == DarkTheme.Name {
		return "dark"
	}
	return "light"
}

var providerColors = map[string]lipgloss.Color{
	"openai":    lipgloss.Color("#10B981"), // Green
	"anthropic": lipgloss.Color("#F97316"), // Orange
	"gemini":    lipgloss.Color("#A78BFA"), // Purple
	"echo":      lipgloss.Color("#94A3B8"), // Slate
}

// ProviderColor returns the badge color for a provider
func ProviderColor(provider string) lipgloss.Color {
	if c, ok := providerColors[provider]; ok {
		return c
	}
	return CurrentTheme.Primary
}
