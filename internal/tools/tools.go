package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"aether/internal/models"
	"aether/internal/suggest"
)

// MaxToolIterations bounds the request/tool-call rounds of one agent reply.
const MaxToolIterations = 8

// maxResults caps search and listing output.
const maxResults = 10

var Definitions = []openai.ChatCompletionToolUnionParam{
	openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        "list_tabs",
		Description: openai.String("List open tabs with id, title, url; the active tab is marked"),
		Parameters: openai.FunctionParameters{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
	}),
	openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        "open_tab",
		Description: openai.String("Open a new tab at url (a URL, domain or search terms)"),
		Parameters: openai.FunctionParameters{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{"type": "string"},
			},
			"required": []string{"url"},
		},
	}),
	openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        "navigate_tab",
		Description: openai.String("Load url in a tab (defaults to the active tab)"),
		Parameters: openai.FunctionParameters{
			"type": "object",
			"properties": map[string]interface{}{
				"url":    map[string]interface{}{"type": "string"},
				"tab_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"url"},
		},
	}),
	openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        "search_bookmarks",
		Description: openai.String("Find bookmarks whose title or url contains query"),
		Parameters: openai.FunctionParameters{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required": []string{"query"},
		},
	}),
	openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        "search_history",
		Description: openai.String("Find visited pages whose title or url contains query, most recent first"),
		Parameters: openai.FunctionParameters{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required": []string{"query"},
		},
	}),
}

// Host is what the tools act on.
type Host interface {
	ListTabs(ctx context.Context) ([]models.Tab, error)
	CreateTab(ctx context.Context, url string) (models.Tab, error)
	NavigateTab(ctx context.Context, id, url string) (models.Tab, error)
	GetBookmarks(ctx context.Context) ([]models.Bookmark, error)
	GetHistory(ctx context.Context) ([]models.HistoryEntry, error)
}

type Toolbox struct {
	Host         Host
	SearchEngine string
}

func (t *Toolbox) Execute(ctx context.Context, name string, argsJSON string) (string, error) {
	args := map[string]interface{}{}
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", err
		}
	}

	switch name {
	case "list_tabs":
		return t.listTabs(ctx)
	case "open_tab":
		return t.openTab(ctx, args)
	case "navigate_tab":
		return t.navigateTab(ctx, args)
	case "search_bookmarks":
		return t.searchBookmarks(ctx, args)
	case "search_history":
		return t.searchHistory(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (t *Toolbox) listTabs(ctx context.Context) (string, error) {
	tabs, err := t.Host.ListTabs(ctx)
	if err != nil {
		return "", err
	}
	if len(tabs) == 0 {
		return "none", nil
	}
	var b strings.Builder
	for _, tab := range tabs {
		marker := " "
		if tab.IsActive {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s\t%s\t%s\n", marker, tab.ID, tab.DisplayTitle(), tab.URL)
	}
	return b.String(), nil
}

func (t *Toolbox) openTab(ctx context.Context, args map[string]interface{}) (string, error) {
	raw, _ := args["url"].(string)
	target := suggest.FormatURL(raw, t.SearchEngine)
	if target == "" {
		return "", fmt.Errorf("url is required")
	}
	tab, err := t.Host.CreateTab(ctx, target)
	if err != nil {
		return "", err
	}
	tab, err = t.Host.NavigateTab(ctx, tab.ID, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("opened %s\t%s\t%s", tab.ID, tab.DisplayTitle(), tab.URL), nil
}

func (t *Toolbox) navigateTab(ctx context.Context, args map[string]interface{}) (string, error) {
	raw, _ := args["url"].(string)
	target := suggest.FormatURL(raw, t.SearchEngine)
	if target == "" {
		return "", fmt.Errorf("url is required")
	}

	id, _ := args["tab_id"].(string)
	if id == "" {
		tabs, err := t.Host.ListTabs(ctx)
		if err != nil {
			return "", err
		}
		for _, tab := range tabs {
			if tab.IsActive {
				id = tab.ID
				break
			}
		}
		if id == "" {
			return "", fmt.Errorf("no active tab")
		}
	}

	tab, err := t.Host.NavigateTab(ctx, id, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("navigated %s\t%s\t%s", tab.ID, tab.DisplayTitle(), tab.URL), nil
}

func (t *Toolbox) searchBookmarks(ctx context.Context, args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	bookmarks, err := t.Host.GetBookmarks(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	n := 0
	for _, bm := range bookmarks {
		if n == maxResults {
			break
		}
		if !contains(query, bm.Title, bm.URL) {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\n", bm.Title, bm.URL)
		n++
	}
	if n == 0 {
		return "none", nil
	}
	return b.String(), nil
}

func (t *Toolbox) searchHistory(ctx context.Context, args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	entries, err := t.Host.GetHistory(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	n := 0
	for _, e := range entries {
		if n == maxResults {
			break
		}
		if !contains(query, e.Title, e.URL) {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\t%d visits\n", e.Title, e.URL, e.VisitCount)
		n++
	}
	if n == 0 {
		return "none", nil
	}
	return b.String(), nil
}

func contains(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func countLines(result string) int {
	if result == "none" || result == "" {
		return 0
	}
	n := strings.Count(result, "\n")
	if n == 0 {
		n = 1
	}
	return n
}

// GenerateToolSummary is the one-line description shown in the agent panel.
func GenerateToolSummary(name string, argsJSON string, result string) string {
	var args map[string]interface{}
	_ = json.Unmarshal([]byte(argsJSON), &args)

	switch name {
	case "list_tabs":
		return fmt.Sprintf("TABS (%d open)", countLines(result))
	case "open_tab":
		url, _ := args["url"].(string)
		return fmt.Sprintf("OPEN %s", truncate(url, 40))
	case "navigate_tab":
		url, _ := args["url"].(string)
		return fmt.Sprintf("GO %s", truncate(url, 40))
	case "search_bookmarks":
		q, _ := args["query"].(string)
		return fmt.Sprintf("BOOKMARKS \"%s\" (%d matches)", q, countLines(result))
	case "search_history":
		q, _ := args["query"].(string)
		return fmt.Sprintf("HISTORY \"%s\" (%d matches)", q, countLines(result))
	default:
		return fmt.Sprintf("%s called", strings.ToUpper(name))
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
