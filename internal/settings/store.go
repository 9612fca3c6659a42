// Package settings keeps the process-wide settings in step with the
// settings service. Local changes commit only after the service has stored
// them.
package settings

import (
	"context"
	"fmt"
	"sync"

	"aether/internal/logger"
	"aether/internal/models"
)

type Persister interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) error
}

type Store struct {
	p Persister

	mu      sync.RWMutex
	current models.Settings
	err     error
}

func NewStore(p Persister) *Store {
	return &Store{p: p, current: models.DefaultSettings()}
}

// Load fetches the stored settings. On failure the defaults stay in place.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.p.GetSettings(ctx)
	if err != nil {
		logger.Warn("Failed to load settings, using defaults", "error", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return fmt.Errorf("get settings: %w", err)
	}
	if !loaded.Theme.Valid() {
		loaded.Theme = models.ThemeLight
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = loaded
	s.err = nil
	return nil
}

func (s *Store) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update persists next and then makes it current.
func (s *Store) Update(ctx context.Context, next models.Settings) error {
	if !next.Theme.Valid() {
		return fmt.Errorf("update settings: invalid theme %q", next.Theme)
	}
	if err := s.p.UpdateSettings(ctx, next); err != nil {
		logger.Error("Failed to update settings", "error", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return fmt.Errorf("update settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
	s.err = nil
	return nil
}

func (s *Store) SetTheme(ctx context.Context, theme models.Theme) error {
	next := s.Current()
	next.Theme = theme
	return s.Update(ctx, next)
}

func (s *Store) ToggleAgentMode(ctx context.Context) error {
	next := s.Current()
	next.AgentModeEnabled = !next.AgentModeEnabled
	return s.Update(ctx, next)
}

// Err returns the last load or update failure.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
