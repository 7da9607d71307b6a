// Package memory provides an in-memory settings store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dibull/preview-renderer/internal/seo"
	"github.com/dibull/preview-renderer/internal/store"
)

// SettingsStore keeps settings rows in a mutex-guarded map.
type SettingsStore struct {
	mu       sync.RWMutex
	settings map[string]seo.PageSettings
}

// New constructs an empty SettingsStore.
func New() *SettingsStore {
	return &SettingsStore{settings: make(map[string]seo.PageSettings)}
}

// Get fetches the settings for the exact page path.
func (s *SettingsStore) Get(_ context.Context, pagePath string) (seo.PageSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.settings[pagePath]
	if !ok {
		return seo.PageSettings{}, store.ErrNotFound
	}
	return rec.Clone(), nil
}

// Upsert stores the settings keyed by page path.
func (s *SettingsStore) Upsert(_ context.Context, settings seo.PageSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := settings.Clone()
	cp.UpdatedAt = time.Now().UTC()
	s.settings[settings.PagePath] = cp
	return nil
}

// Delete removes the settings for the page path.
func (s *SettingsStore) Delete(_ context.Context, pagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings[pagePath]; !ok {
		return store.ErrNotFound
	}
	delete(s.settings, pagePath)
	return nil
}

// List returns all settings ordered by page path.
func (s *SettingsStore) List(_ context.Context) ([]seo.PageSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]seo.PageSettings, 0, len(s.settings))
	for _, rec := range s.settings {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PagePath < out[j].PagePath })
	return out, nil
}

// Ping always succeeds for the in-memory backend.
func (s *SettingsStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *SettingsStore) Close() {}
