// Package library caches bookmarks, history and the stored-conversation list
// for the address bar and the manager views.
package library

import (
	"context"
	"fmt"
	"sync"

	"aether/internal/logger"
	"aether/internal/models"
)

type BookmarkService interface {
	GetBookmarks(ctx context.Context) ([]models.Bookmark, error)
	AddBookmark(ctx context.Context, url, title string, folderID *int64) (models.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
}

type HistoryService interface {
	GetHistory(ctx context.Context) ([]models.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

type ConversationService interface {
	ListConversations(ctx context.Context, limit, offset int) (int, []models.ConversationSummary, error)
}

// Bookmarks is the local copy of the bookmark list, newest first.
type Bookmarks struct {
	svc BookmarkService

	mu         sync.RWMutex
	items      []models.Bookmark
	barVisible bool
}

func NewBookmarks(svc BookmarkService) *Bookmarks {
	return &Bookmarks{svc: svc, barVisible: true}
}

func (b *Bookmarks) Load(ctx context.Context) error {
	items, err := b.svc.GetBookmarks(ctx)
	if err != nil {
		logger.Error("Failed to load bookmarks", "error", err)
		return fmt.Errorf("get bookmarks: %w", err)
	}
	b.mu.Lock()
	b.items = items
	b.mu.Unlock()
	return nil
}

// Add stores a bookmark and puts the stored copy at the front.
func (b *Bookmarks) Add(ctx context.Context, url, title string) (models.Bookmark, error) {
	bm, err := b.svc.AddBookmark(ctx, url, title, nil)
	if err != nil {
		logger.Error("Failed to add bookmark", "url", url, "error", err)
		return models.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}
	b.mu.Lock()
	b.items = append([]models.Bookmark{bm}, b.items...)
	b.mu.Unlock()
	return bm, nil
}

func (b *Bookmarks) Delete(ctx context.Context, id int64) error {
	if err := b.svc.DeleteBookmark(ctx, id); err != nil {
		logger.Error("Failed to delete bookmark", "id", id, "error", err)
		return fmt.Errorf("delete bookmark: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, bm := range b.items {
		if bm.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	return nil
}

// Has reports whether url is bookmarked.
func (b *Bookmarks) Has(url string) bool {
	_, ok := b.Find(url)
	return ok
}

// Find returns the bookmark stored for url.
func (b *Bookmarks) Find(url string) (models.Bookmark, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, bm := range b.items {
		if bm.URL == url {
			return bm, true
		}
	}
	return models.Bookmark{}, false
}

func (b *Bookmarks) All() []models.Bookmark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Bookmark(nil), b.items...)
}

func (b *Bookmarks) ToggleBar() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.barVisible = !b.barVisible
	return b.barVisible
}

func (b *Bookmarks) BarVisible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.barVisible
}

// History is the local copy of the visit history, most recent first.
type History struct {
	svc HistoryService

	mu    sync.RWMutex
	items []models.HistoryEntry
}

func NewHistory(svc HistoryService) *History {
	return &History{svc: svc}
}

func (h *History) Load(ctx context.Context) error {
	items, err := h.svc.GetHistory(ctx)
	if err != nil {
		logger.Error("Failed to load history", "error", err)
		return fmt.Errorf("get history: %w", err)
	}
	h.mu.Lock()
	h.items = items
	h.mu.Unlock()
	return nil
}

func (h *History) Clear(ctx context.Context) error {
	if err := h.svc.ClearHistory(ctx); err != nil {
		logger.Error("Failed to clear history", "error", err)
		return fmt.Errorf("clear history: %w", err)
	}
	h.mu.Lock()
	h.items = nil
	h.mu.Unlock()
	return nil
}

func (h *History) All() []models.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]models.HistoryEntry(nil), h.items...)
}

// Conversations holds one page of stored conversations, most recently
// updated first.
type Conversations struct {
	svc      ConversationService
	pageSize int

	mu    sync.RWMutex
	items []models.ConversationSummary
	total int
	page  int
}

func NewConversations(svc ConversationService, pageSize int) *Conversations {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Conversations{svc: svc, pageSize: pageSize}
}

// Load fetches page (zero-based). Pages past the end fall back to the last
// one.
func (c *Conversations) Load(ctx context.Context, page int) error {
	if page < 0 {
		page = 0
	}
	total, items, err := c.svc.ListConversations(ctx, c.pageSize, page*c.pageSize)
	if err != nil {
		logger.Error("Failed to load conversations", "page", page, "error", err)
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(items) == 0 && page > 0 && total > 0 {
		return c.Load(ctx, (total-1)/c.pageSize)
	}
	c.mu.Lock()
	c.items = items
	c.total = total
	c.page = page
	c.mu.Unlock()
	return nil
}

func (c *Conversations) All() []models.ConversationSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ConversationSummary(nil), c.items...)
}

func (c *Conversations) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

func (c *Conversations) Page() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Pages is the page count, at least one.
func (c *Conversations) Pages() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.total == 0 {
		return 1
	}
	return (c.total + c.pageSize - 1) / c.pageSize
}
