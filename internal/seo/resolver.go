package seo

import (
	"net/url"
	"strings"
)

// Resolver applies the per-field fallback chain against fixed site defaults.
type Resolver struct {
	defaults SiteDefaults
}

// NewResolver constructs a Resolver around the given defaults.
func NewResolver(defaults SiteDefaults) *Resolver {
	return &Resolver{defaults: defaults}
}

// Defaults exposes the injected site defaults.
func (r *Resolver) Defaults() SiteDefaults {
	return r.defaults
}

// Resolve merges one override record (or nil) with the site defaults.
// Social fields win over general meta fields, which win over defaults.
// The result is pure and deterministic: same inputs, same output, and no
// field is ever empty.
func (r *Resolver) Resolve(pagePath string, overrides *PageSettings) ResolvedMetadata {
	if overrides == nil {
		overrides = &PageSettings{}
	}
	return ResolvedMetadata{
		Title:        coalesce(overrides.OGTitle, overrides.MetaTitle, r.defaults.Title),
		Description:  coalesce(overrides.OGDescription, overrides.MetaDescription, r.defaults.Description),
		Image:        r.absolute(coalesce(overrides.OGImage, nil, r.defaults.Image)),
		OGType:       coalesce(overrides.OGType, nil, "website"),
		CanonicalURL: r.canonical(pagePath, overrides.CanonicalURL),
	}
}

// coalesce returns the first present, non-empty value. An empty stored
// string is treated as absent, matching the editor-facing behavior where
// clearing a field restores the default.
func coalesce(first, second *string, fallback string) string {
	if first != nil && *first != "" {
		return *first
	}
	if second != nil && *second != "" {
		return *second
	}
	return fallback
}

// canonical prefers the stored canonical URL verbatim, even when it is
// relative (caller error by contract), and otherwise derives one from the
// base URL and page path.
func (r *Resolver) canonical(pagePath string, stored *string) string {
	if stored != nil && *stored != "" {
		return *stored
	}
	if !strings.HasPrefix(pagePath, "/") {
		pagePath = "/" + pagePath
	}
	return strings.TrimSuffix(r.defaults.BaseURL, "/") + pagePath
}

// absolute prefixes the site base URL onto relative image paths. Values
// that already carry a scheme pass through untouched.
func (r *Resolver) absolute(value string) string {
	if u, err := url.Parse(value); err == nil && u.IsAbs() {
		return value
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return strings.TrimSuffix(r.defaults.BaseURL, "/") + value
}
