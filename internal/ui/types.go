package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"aether/internal/agent"
	"aether/internal/library"
	"aether/internal/models"
	"aether/internal/settings"
	"aether/internal/suggest"
	"aether/internal/tabs"
)

const (
	ModalWidth      = 64
	MinPanelWidth   = 36
	HistoryPageSize = 12
	MaxTabTitle     = 22
)

// Focus is the widget receiving typed keys.
type Focus int

const (
	FocusPage Focus = iota
	FocusAddress
	FocusAgent
)

// Modal is the overlay currently shown, if any.
type Modal int

const (
	ModalNone Modal = iota
	ModalBookmarks
	ModalHistory
	ModalSettings
	ModalShortcuts
	ModalConversations
)

// Rows of the settings modal, in display order.
const (
	SettingTheme = iota
	SettingSearchEngine
	SettingProvider
	SettingModel
	SettingAgentMode
	settingCount
)

// Results of remote calls. Components hold the state; messages only carry
// what the update loop needs to react.
type (
	tabsLoadedMsg struct{ err error }

	tabOpMsg struct {
		op  string
		err error
	}

	navigatedMsg struct {
		tab models.Tab
		err error
	}

	settingsLoadedMsg struct{ err error }
	settingsSavedMsg  struct {
		status string
		err    error
	}

	bookmarksLoadedMsg struct{ err error }
	bookmarkToggledMsg struct {
		added bool
		err   error
	}
	bookmarkDeletedMsg struct{ err error }

	historyLoadedMsg  struct{ err error }
	historyClearedMsg struct{ err error }

	conversationsLoadedMsg struct{ err error }
	conversationLoadedMsg  struct{ err error }

	agentReplyMsg struct {
		pending agent.Pending
		resp    models.AgentMessageResponse
		err     error
	}
)

type Model struct {
	Tabs          *tabs.Directory
	Settings      *settings.Store
	Bookmarks     *library.Bookmarks
	History       *library.History
	Conversations *library.Conversations
	Session       *agent.Session

	Address      textinput.Model
	addressFresh bool
	Suggestions  []suggest.Suggestion
	SuggestIdx   int

	AgentInput    textarea.Model
	AgentViewport viewport.Model
	Spinner       spinner.Model
	Renderer      *glamour.TermRenderer
	renderCache   map[string]string

	Focus    Focus
	Modal    Modal
	ViewMode models.ViewMode

	ModalIdx      int
	HistoryPage   int
	SettingsDraft models.Settings

	Status    string
	StatusErr error
	Busy      bool

	WindowWidth  int
	WindowHeight int
}
