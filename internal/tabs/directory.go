// Package tabs holds the ordered tab list, the active-tab pointer and the
// per-tab navigation ledger, kept in step with a remote tab service.
//
// Remote calls are made without holding the directory lock; local state is
// only touched once the service has answered successfully.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"aether/internal/favicon"
	"aether/internal/ledger"
	"aether/internal/logger"
	"aether/internal/models"
)

// ErrUnknownTab is returned for operations naming a tab the directory does
// not hold.
var ErrUnknownTab = errors.New("unknown tab")

// Service is the remote side of the tab directory.
type Service interface {
	CreateTab(ctx context.Context, url string) (models.Tab, error)
	CloseTab(ctx context.Context, id string) error
	SwitchTab(ctx context.Context, id string) (models.Tab, error)
	NavigateTab(ctx context.Context, id, url string) (models.Tab, error)
	ListTabs(ctx context.Context) ([]models.Tab, error)
	RecordHistory(ctx context.Context, url, title string) error
}

type Directory struct {
	svc    Service
	ledger *ledger.Ledger

	mu     sync.RWMutex
	tabs   []models.Tab
	active string
}

// New returns an empty directory. A nil ledger gets a fresh one.
func New(svc Service, l *ledger.Ledger) *Directory {
	if l == nil {
		l = ledger.New()
	}
	return &Directory{svc: svc, ledger: l}
}

func (d *Directory) Ledger() *ledger.Ledger {
	return d.ledger
}

// Load replaces the local list with the remote listing, in remote order.
// The active tab is the one flagged active, or the first one.
func (d *Directory) Load(ctx context.Context) error {
	list, err := d.svc.ListTabs(ctx)
	if err != nil {
		logger.Error("Failed to load tabs", "error", err)
		return fmt.Errorf("list tabs: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	known := make(map[string]bool, len(list))
	for _, t := range list {
		known[t.ID] = true
		current, ok := d.ledger.Current(t.ID)
		switch {
		case !ok:
			d.ledger.Seed(t.ID, t.URL)
		case current != t.URL && !(ledger.IsBlank(current) && ledger.IsBlank(t.URL)):
			// Loaded elsewhere, e.g. by the agent.
			d.ledger.Record(t.ID, t.URL)
		}
	}
	for _, t := range d.tabs {
		if !known[t.ID] {
			d.ledger.Drop(t.ID)
		}
	}

	d.tabs = append([]models.Tab(nil), list...)
	d.active = ""
	for _, t := range d.tabs {
		if t.IsActive {
			d.active = t.ID
			break
		}
	}
	if d.active == "" && len(d.tabs) > 0 {
		d.active = d.tabs[0].ID
	}
	d.markActiveLocked()
	return nil
}

// Create opens a tab at url (blank when empty) and makes it active.
func (d *Directory) Create(ctx context.Context, url string) (models.Tab, error) {
	tab, err := d.svc.CreateTab(ctx, url)
	if err != nil {
		logger.Error("Failed to create tab", "url", url, "error", err)
		return models.Tab{}, fmt.Errorf("create tab: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if tab.Favicon == "" {
		tab.Favicon, _ = favicon.BuildURL(tab.URL)
	}
	d.tabs = append(d.tabs, tab)
	d.active = tab.ID
	d.markActiveLocked()
	d.ledger.Seed(tab.ID, url)

	tab.IsActive = true
	return tab, nil
}

// Close removes a tab. When the active tab goes, the first remaining tab
// takes over and the remote service is told so.
func (d *Directory) Close(ctx context.Context, id string) error {
	if _, ok := d.find(id); !ok {
		return ErrUnknownTab
	}
	if err := d.svc.CloseTab(ctx, id); err != nil {
		logger.Error("Failed to close tab", "id", id, "error", err)
		return fmt.Errorf("close tab: %w", err)
	}

	d.mu.Lock()
	idx := d.indexLocked(id)
	if idx >= 0 {
		d.tabs = append(d.tabs[:idx], d.tabs[idx+1:]...)
	}
	d.ledger.Drop(id)

	var next string
	if d.active == id {
		d.active = ""
		if len(d.tabs) > 0 {
			d.active = d.tabs[0].ID
			next = d.active
		}
		d.markActiveLocked()
	}
	d.mu.Unlock()

	if next == "" {
		return nil
	}
	resp, err := d.svc.SwitchTab(ctx, next)
	if err != nil {
		logger.Warn("Failed to activate tab after close", "id", next, "error", err)
		return nil
	}
	d.setActive(resp.ID)
	return nil
}

// Switch activates a tab. The id the service answers with wins.
func (d *Directory) Switch(ctx context.Context, id string) error {
	if _, ok := d.find(id); !ok {
		return ErrUnknownTab
	}
	resp, err := d.svc.SwitchTab(ctx, id)
	if err != nil {
		logger.Error("Failed to switch tab", "id", id, "error", err)
		return fmt.Errorf("switch tab: %w", err)
	}
	if !d.setActive(resp.ID) {
		return fmt.Errorf("switch tab: service answered with %q: %w", resp.ID, ErrUnknownTab)
	}
	return nil
}

// Navigate loads url in the tab, records it in the ledger and reports the
// visit to the history service in the background.
func (d *Directory) Navigate(ctx context.Context, id, url string) (models.Tab, error) {
	if _, ok := d.find(id); !ok {
		return models.Tab{}, ErrUnknownTab
	}
	resp, err := d.svc.NavigateTab(ctx, id, url)
	if err != nil {
		logger.Error("Failed to navigate", "id", id, "url", url, "error", err)
		return models.Tab{}, fmt.Errorf("navigate tab: %w", err)
	}

	tab := d.apply(id, resp)
	d.ledger.Record(id, url)

	if !ledger.IsBlank(url) {
		go func(ctx context.Context, url, title string) {
			if err := d.svc.RecordHistory(ctx, url, title); err != nil {
				logger.Warn("Failed to record history", "url", url, "error", err)
			}
		}(context.WithoutCancel(ctx), url, tab.Title)
	}
	return tab, nil
}

// Back steps the tab one entry back and loads it. It reports false when
// there is nothing to go back to. A failed load puts the cursor back unless
// the tab navigated elsewhere in the meantime.
func (d *Directory) Back(ctx context.Context, id string) (bool, error) {
	return d.step(ctx, id, -1)
}

func (d *Directory) Forward(ctx context.Context, id string) (bool, error) {
	return d.step(ctx, id, 1)
}

func (d *Directory) step(ctx context.Context, id string, delta int) (bool, error) {
	url, mark, ok := d.ledger.Step(id, delta)
	if !ok {
		return false, nil
	}
	if _, err := d.load(ctx, id, url); err != nil {
		if !d.ledger.Undo(id, mark) {
			logger.Debug("Ledger changed during failed load, keeping cursor", "id", id)
		}
		return false, err
	}
	return true, nil
}

// Refresh reloads the tab's current URL without touching its ledger.
func (d *Directory) Refresh(ctx context.Context, id string) (models.Tab, error) {
	tab, ok := d.find(id)
	if !ok {
		return models.Tab{}, ErrUnknownTab
	}
	return d.load(ctx, id, tab.URL)
}

func (d *Directory) load(ctx context.Context, id, url string) (models.Tab, error) {
	if _, ok := d.find(id); !ok {
		return models.Tab{}, ErrUnknownTab
	}
	resp, err := d.svc.NavigateTab(ctx, id, url)
	if err != nil {
		logger.Error("Failed to load page", "id", id, "url", url, "error", err)
		return models.Tab{}, fmt.Errorf("navigate tab: %w", err)
	}
	return d.apply(id, resp), nil
}

func (d *Directory) CanGoBack(id string) bool {
	return d.ledger.CanGoBack(id)
}

func (d *Directory) CanGoForward(id string) bool {
	return d.ledger.CanGoForward(id)
}

// Tabs returns a copy of the ordered tab list.
func (d *Directory) Tabs() []models.Tab {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Tab(nil), d.tabs...)
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tabs)
}

func (d *Directory) ActiveID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// Active returns the active tab, if any.
func (d *Directory) Active() (models.Tab, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if idx := d.indexLocked(d.active); idx >= 0 {
		return d.tabs[idx], true
	}
	return models.Tab{}, false
}

// At returns the tab at index i in list order.
func (d *Directory) At(i int) (models.Tab, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.tabs) {
		return models.Tab{}, false
	}
	return d.tabs[i], true
}

// Neighbor returns the tab offset positions away from the active one,
// wrapping around the ends of the list.
func (d *Directory) Neighbor(offset int) (models.Tab, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := len(d.tabs)
	if n == 0 {
		return models.Tab{}, false
	}
	idx := d.indexLocked(d.active)
	if idx < 0 {
		return d.tabs[0], true
	}
	next := ((idx+offset)%n + n) % n
	return d.tabs[next], true
}

func (d *Directory) find(id string) (models.Tab, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if idx := d.indexLocked(id); idx >= 0 {
		return d.tabs[idx], true
	}
	return models.Tab{}, false
}

// apply copies the remote-derived fields of resp onto the tab.
func (d *Directory) apply(id string, resp models.Tab) models.Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.indexLocked(id)
	if idx < 0 {
		return resp
	}
	t := &d.tabs[idx]
	t.URL = resp.URL
	t.Title = resp.Title
	t.Favicon = resp.Favicon
	if t.Favicon == "" {
		t.Favicon, _ = favicon.BuildURL(resp.URL)
	}
	return *t
}

func (d *Directory) setActive(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexLocked(id) < 0 {
		return false
	}
	d.active = id
	d.markActiveLocked()
	return true
}

func (d *Directory) markActiveLocked() {
	for i := range d.tabs {
		d.tabs[i].IsActive = d.tabs[i].ID == d.active
	}
}

func (d *Directory) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range d.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}
