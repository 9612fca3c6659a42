// Package browser is the tab engine behind the local backend: it owns tab
// ids, positions and the active flag, and optionally drives real pages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/google/uuid"

	"aether/internal/favicon"
	"aether/internal/logger"
	"aether/internal/models"
)

// ErrTabNotFound is returned for ids the manager does not know.
var ErrTabNotFound = errors.New("tab not found")

const newTabTitle = "New Tab"

// PageInfo is what a load tells us about a page.
type PageInfo struct {
	URL     string
	Title   string
	Favicon string
}

// Driver renders pages for tabs. RodDriver is the Chrome implementation.
type Driver interface {
	Open(ctx context.Context, id, url string) error
	Load(ctx context.Context, id, url string) (PageInfo, error)
	Activate(ctx context.Context, id string) error
	ClosePage(ctx context.Context, id string) error
	Shutdown() error
}

// Resolver looks up page metadata without rendering it.
type Resolver interface {
	Resolve(ctx context.Context, url string) (PageInfo, error)
}

type Option func(*Manager)

func WithDriver(d Driver) Option {
	return func(m *Manager) { m.driver = d }
}

func WithResolver(r Resolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// Manager keeps the authoritative tab table.
type Manager struct {
	driver   Driver
	resolver Resolver

	mu           sync.Mutex
	tabs         map[string]*models.Tab
	active       string
	nextPosition int
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{tabs: make(map[string]*models.Tab)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a tab at rawURL, or a blank one, and makes it active.
func (m *Manager) Create(ctx context.Context, rawURL string) (models.Tab, error) {
	if rawURL == "" {
		rawURL = models.BlankURL
	}
	id := uuid.NewString()

	if m.driver != nil {
		if err := m.driver.Open(ctx, id, rawURL); err != nil {
			return models.Tab{}, fmt.Errorf("open page: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.tabs[m.active]; ok {
		prev.IsActive = false
	}
	tab := &models.Tab{
		ID:       id,
		URL:      rawURL,
		Title:    newTabTitle,
		Position: m.nextPosition,
		IsActive: true,
	}
	tab.Favicon, _ = favicon.BuildURL(rawURL)
	m.nextPosition++
	m.tabs[id] = tab
	m.active = id

	logger.Info("Created tab", "id", id, "url", rawURL)
	return *tab, nil
}

// Close removes a tab. When it was active, the tab with the lowest position
// becomes active.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.tabs[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("close %s: %w", id, ErrTabNotFound)
	}
	delete(m.tabs, id)

	var next string
	if m.active == id {
		m.active = ""
		if ordered := m.orderedLocked(); len(ordered) > 0 {
			next = ordered[0].ID
			m.active = next
			m.tabs[next].IsActive = true
		}
	}
	m.mu.Unlock()

	if m.driver != nil {
		if err := m.driver.ClosePage(ctx, id); err != nil {
			logger.Warn("Failed to close page", "id", id, "error", err)
		}
		if next != "" {
			if err := m.driver.Activate(ctx, next); err != nil {
				logger.Warn("Failed to activate page", "id", next, "error", err)
			}
		}
	}

	logger.Info("Closed tab", "id", id)
	return nil
}

func (m *Manager) Switch(ctx context.Context, id string) (models.Tab, error) {
	m.mu.Lock()
	tab, ok := m.tabs[id]
	if !ok {
		m.mu.Unlock()
		return models.Tab{}, fmt.Errorf("switch %s: %w", id, ErrTabNotFound)
	}
	if prev, ok := m.tabs[m.active]; ok {
		prev.IsActive = false
	}
	tab.IsActive = true
	m.active = id
	out := *tab
	m.mu.Unlock()

	if m.driver != nil {
		if err := m.driver.Activate(ctx, id); err != nil {
			logger.Warn("Failed to activate page", "id", id, "error", err)
		}
	}
	return out, nil
}

// Navigate points a tab at rawURL. Title and favicon come from the driver
// when there is one, else from the resolver, else from the URL itself.
func (m *Manager) Navigate(ctx context.Context, id, rawURL string) (models.Tab, error) {
	m.mu.Lock()
	_, ok := m.tabs[id]
	m.mu.Unlock()
	if !ok {
		return models.Tab{}, fmt.Errorf("navigate %s: %w", id, ErrTabNotFound)
	}

	info := PageInfo{URL: rawURL}
	switch {
	case m.driver != nil:
		loaded, err := m.driver.Load(ctx, id, rawURL)
		if err != nil {
			return models.Tab{}, fmt.Errorf("load %s: %w", rawURL, err)
		}
		info = loaded
	case m.resolver != nil && rawURL != models.BlankURL:
		resolved, err := m.resolver.Resolve(ctx, rawURL)
		if err != nil {
			logger.Debug("Could not resolve page info", "url", rawURL, "error", err)
		} else {
			info = resolved
		}
	}
	if info.URL == "" {
		info.URL = rawURL
	}
	if info.Title == "" {
		info.Title = fallbackTitle(info.URL)
	}
	if info.Favicon == "" {
		info.Favicon, _ = favicon.BuildURL(info.URL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[id]
	if !ok {
		return models.Tab{}, fmt.Errorf("navigate %s: %w", id, ErrTabNotFound)
	}
	tab.URL = info.URL
	tab.Title = info.Title
	tab.Favicon = info.Favicon

	logger.Info("Navigated tab", "id", id, "url", info.URL)
	return *tab, nil
}

// List returns all tabs ordered by position.
func (m *Manager) List(ctx context.Context) ([]models.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ordered := m.orderedLocked()
	out := make([]models.Tab, len(ordered))
	for i, t := range ordered {
		out[i] = *t
	}
	return out, nil
}

func (m *Manager) Active() (models.Tab, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tabs[m.active]; ok {
		return *t, true
	}
	return models.Tab{}, false
}

// Shutdown releases the driver, if any.
func (m *Manager) Shutdown() error {
	if m.driver == nil {
		return nil
	}
	return m.driver.Shutdown()
}

func (m *Manager) orderedLocked() []*models.Tab {
	out := make([]*models.Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func fallbackTitle(raw string) string {
	if raw == models.BlankURL {
		return newTabTitle
	}
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return raw
}
