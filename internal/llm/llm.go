// Package llm turns a conversation into an assistant reply using one of the
// configured completion providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"aether/internal/models"
	"aether/internal/tools"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNotConfigured   = errors.New("provider not configured")
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderEcho      = "echo"
)

// ChatSystemPrompt is used for plain conversations.
const ChatSystemPrompt = `You are the assistant built into a web browser. Answer concisely in Markdown.`

// AgentSystemPrompt is used when agent mode is on and the provider can call
// tools.
const AgentSystemPrompt = `You are the assistant built into a web browser and can act on it.
Use list_tabs to see what is open, open_tab and navigate_tab to load pages, and
search_bookmarks or search_history to find pages the user has saved or seen.
Only act when the user asks for it. After acting, say briefly what you did. Answer in Markdown.`

// Request is one completion call. Messages ends with the newest user
// message.
type Request struct {
	Model    string
	System   string
	Messages []models.Message
	// Toolbox enables tool calls on providers that support them.
	Toolbox *tools.Toolbox
}

type Response struct {
	Content string
	Actions []models.ToolAction
}

type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
	SupportsTools() bool
}

var known = map[string]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderGemini:    true,
	ProviderEcho:      true,
}

// Registry maps provider names to configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider for name. Known providers without credentials
// give ErrNotConfigured; anything else gives ErrUnknownProvider.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if known[name] {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnknownProvider)
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Keys holds provider credentials. Empty keys leave the provider out.
type Keys struct {
	OpenAI        string
	OpenAIBaseURL string
	Anthropic     string
	Gemini        string
}

// NewDefaultRegistry registers every provider that has credentials, plus
// the offline echo provider.
func NewDefaultRegistry(ctx context.Context, keys Keys) (*Registry, error) {
	r := NewRegistry()
	r.Register(Echo{})
	if keys.OpenAI != "" {
		r.Register(NewOpenAI(keys.OpenAI, keys.OpenAIBaseURL))
	}
	if keys.Anthropic != "" {
		r.Register(NewAnthropic(keys.Anthropic))
	}
	if keys.Gemini != "" {
		g, err := NewGemini(ctx, keys.Gemini)
		if err != nil {
			return r, err
		}
		r.Register(g)
	}
	return r, nil
}

// Catalog is the model list offered in settings, per provider.
var Catalog = []models.AIModel{
	{ID: "gpt-4o", Name: "GPT-4o", Provider: ProviderOpenAI, Description: "Fast multimodal flagship"},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: ProviderOpenAI, Description: "Cheaper and quicker"},
	{ID: "claude-sonnet-4-0", Name: "Claude Sonnet 4", Provider: ProviderAnthropic, Description: "Balanced reasoning"},
	{ID: "claude-3-5-haiku-latest", Name: "Claude Haiku 3.5", Provider: ProviderAnthropic, Description: "Low latency"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: ProviderGemini, Description: "Fast with thinking"},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: ProviderGemini, Description: "Most capable Gemini"},
	{ID: "echo", Name: "Echo", Provider: ProviderEcho, Description: "Offline canned replies"},
}

// ModelsFor returns the catalog entries of provider.
func ModelsFor(provider string) []models.AIModel {
	var out []models.AIModel
	for _, m := range Catalog {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// Providers lists the provider names in catalog order.
func Providers() []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range Catalog {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			out = append(out, m.Provider)
		}
	}
	return out
}
