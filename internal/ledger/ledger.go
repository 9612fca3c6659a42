// Package ledger keeps the per-tab back/forward navigation log.
//
// Each tab owns one row: an ordered list of visited URLs and a cursor into
// it. Rows are created when a tab opens and dropped when it closes. All
// mutations of a row are serialized by the row's own lock, so two tabs never
// wait on each other beyond the table lookup.
package ledger

import (
	"sync"

	"aether/internal/models"
)

// Snapshot is a copy of one tab's row.
type Snapshot struct {
	Entries []string
	Cursor  int
}

type row struct {
	mu      sync.Mutex
	entries []string
	cursor  int
	version uint64
}

// Mark is the row state before a Step. Undo puts it back.
type Mark struct {
	cursor  int
	version uint64
}

// Ledger is the table of navigation rows keyed by tab id.
type Ledger struct {
	mu   sync.RWMutex
	rows map[string]*row
}

func New() *Ledger {
	return &Ledger{rows: make(map[string]*row)}
}

// IsBlank reports whether url is the placeholder recorded for blank tabs.
func IsBlank(url string) bool {
	return url == "" || url == models.BlankURL
}

// Seed replaces the tab's row with a single entry. An empty url seeds the
// blank placeholder.
func (l *Ledger) Seed(tabID, url string) {
	if url == "" {
		url = models.BlankURL
	}
	l.mu.Lock()
	l.rows[tabID] = &row{entries: []string{url}, cursor: 0}
	l.mu.Unlock()
}

// Drop removes the tab's row.
func (l *Ledger) Drop(tabID string) {
	l.mu.Lock()
	delete(l.rows, tabID)
	l.mu.Unlock()
}

func (l *Ledger) get(tabID string) *row {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rows[tabID]
}

func (l *Ledger) getOrCreate(tabID string) *row {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rows[tabID]
	if !ok {
		r = &row{cursor: -1}
		l.rows[tabID] = r
	}
	return r
}

// Record appends url after the cursor, discarding any forward entries.
func (l *Ledger) Record(tabID, url string) {
	r := l.getOrCreate(tabID)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries[:r.cursor+1], url)
	r.cursor = len(r.entries) - 1
	r.version++
}

// Back moves the cursor one entry back and returns the URL now current.
// It reports false, changing nothing, when there is nowhere to go.
func (l *Ledger) Back(tabID string) (string, bool) {
	url, _, ok := l.Step(tabID, -1)
	return url, ok
}

// Forward is the mirror of Back.
func (l *Ledger) Forward(tabID string) (string, bool) {
	url, _, ok := l.Step(tabID, 1)
	return url, ok
}

// Step moves the cursor by delta (-1 or 1) and returns the URL now current
// together with a Mark for Undo.
func (l *Ledger) Step(tabID string, delta int) (string, Mark, bool) {
	r := l.get(tabID)
	if r == nil {
		return "", Mark{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cursor + delta
	if r.cursor < 0 || next < 0 || next >= len(r.entries) {
		return "", Mark{}, false
	}
	m := Mark{cursor: r.cursor, version: r.version}
	r.cursor = next
	r.version++
	return r.entries[r.cursor], m, true
}

// Undo restores the cursor saved in m, provided the row has not changed
// since the Step that produced it. It reports whether it restored anything.
func (l *Ledger) Undo(tabID string, m Mark) bool {
	r := l.get(tabID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.version != m.version+1 {
		return false
	}
	r.cursor = m.cursor
	r.version++
	return true
}

func (l *Ledger) CanGoBack(tabID string) bool {
	r := l.get(tabID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor > 0
}

func (l *Ledger) CanGoForward(tabID string) bool {
	r := l.get(tabID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor >= 0 && r.cursor < len(r.entries)-1
}

// Current returns the URL under the cursor.
func (l *Ledger) Current(tabID string) (string, bool) {
	r := l.get(tabID)
	if r == nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor < 0 {
		return "", false
	}
	return r.entries[r.cursor], true
}

func (l *Ledger) Snapshot(tabID string) (Snapshot, bool) {
	r := l.get(tabID)
	if r == nil {
		return Snapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]string, len(r.entries))
	copy(entries, r.entries)
	return Snapshot{Entries: entries, Cursor: r.cursor}, true
}

// Len returns the number of tabs with a row.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}
