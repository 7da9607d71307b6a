// Package postgres provides the Postgres-backed settings store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dibull/preview-renderer/internal/seo"
	"github.com/dibull/preview-renderer/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for settings rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// SettingsStore reads and writes page SEO settings rows in Postgres.
type SettingsStore struct {
	pool  pgxPool
	table string
}

// New creates a Postgres-backed SettingsStore using the provided config.
func New(ctx context.Context, cfg Config) (*SettingsStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "page_seo_settings"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &SettingsStore{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool, table string) (*SettingsStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "page_seo_settings"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SettingsStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *SettingsStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies connectivity for readiness checks.
func (s *SettingsStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("settings store is not configured")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

const settingsColumns = `page_path, meta_title, meta_description, meta_keywords, og_title, og_description, og_image, og_type, canonical_url, updated_at`

// Get fetches at most one row for the exact page path.
func (s *SettingsStore) Get(ctx context.Context, pagePath string) (seo.PageSettings, error) {
	if pagePath == "" {
		return seo.PageSettings{}, fmt.Errorf("page path is required")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE page_path = $1`, settingsColumns, s.table)

	var out seo.PageSettings
	err := s.pool.QueryRow(ctx, query, pagePath).Scan(
		&out.PagePath,
		&out.MetaTitle,
		&out.MetaDescription,
		&out.MetaKeywords,
		&out.OGTitle,
		&out.OGDescription,
		&out.OGImage,
		&out.OGType,
		&out.CanonicalURL,
		&out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return seo.PageSettings{}, store.ErrNotFound
	}
	if err != nil {
		return seo.PageSettings{}, fmt.Errorf("select page settings: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces the row for the settings' page path.
func (s *SettingsStore) Upsert(ctx context.Context, settings seo.PageSettings) error {
	if settings.PagePath == "" {
		return fmt.Errorf("page path is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	page_path,
	meta_title,
	meta_description,
	meta_keywords,
	og_title,
	og_description,
	og_image,
	og_type,
	canonical_url,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,now()
)
ON CONFLICT (page_path) DO UPDATE SET
	meta_title = EXCLUDED.meta_title,
	meta_description = EXCLUDED.meta_description,
	meta_keywords = EXCLUDED.meta_keywords,
	og_title = EXCLUDED.og_title,
	og_description = EXCLUDED.og_description,
	og_image = EXCLUDED.og_image,
	og_type = EXCLUDED.og_type,
	canonical_url = EXCLUDED.canonical_url,
	updated_at = now()`, s.table)

	args := []any{
		settings.PagePath,
		settings.MetaTitle,
		settings.MetaDescription,
		settings.MetaKeywords,
		settings.OGTitle,
		settings.OGDescription,
		settings.OGImage,
		settings.OGType,
		settings.CanonicalURL,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert page settings: %w", err)
	}
	return nil
}

// Delete removes the row for the exact page path.
func (s *SettingsStore) Delete(ctx context.Context, pagePath string) error {
	if pagePath == "" {
		return fmt.Errorf("page path is required")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE page_path = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, pagePath)
	if err != nil {
		return fmt.Errorf("delete page settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns all settings rows ordered by page path.
func (s *SettingsStore) List(ctx context.Context) ([]seo.PageSettings, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY page_path`, settingsColumns, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list page settings: %w", err)
	}
	defer rows.Close()

	var out []seo.PageSettings
	for rows.Next() {
		var rec seo.PageSettings
		if err := rows.Scan(
			&rec.PagePath,
			&rec.MetaTitle,
			&rec.MetaDescription,
			&rec.MetaKeywords,
			&rec.OGTitle,
			&rec.OGDescription,
			&rec.OGImage,
			&rec.OGType,
			&rec.CanonicalURL,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan page settings: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page settings: %w", err)
	}
	return out, nil
}
