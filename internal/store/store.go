// Package store defines persistence for page SEO settings.
package store

import (
	"context"
	"errors"

	"github.com/dibull/preview-renderer/internal/seo"
)

// ErrNotFound is returned when no settings row exists for a page path.
// The preview path treats it as "use defaults", never as a failure.
var ErrNotFound = errors.New("page settings not found")

// SettingsStore is the keyed lookup service backing the renderer and the
// admin API. Lookups are exact path matches; there is no prefix or
// wildcard resolution.
type SettingsStore interface {
	Get(ctx context.Context, pagePath string) (seo.PageSettings, error)
	Upsert(ctx context.Context, settings seo.PageSettings) error
	Delete(ctx context.Context, pagePath string) error
	List(ctx context.Context) ([]seo.PageSettings, error)
	Ping(ctx context.Context) error
	Close()
}
