// Package seo defines page metadata records and the resolver that layers
// page-specific overrides over immutable site defaults.
package seo

import "time"

// PageSettings is one stored override record, keyed by page path.
// Pointer fields distinguish "absent" from "present"; a nil or empty value
// falls through to the next level of the default chain.
type PageSettings struct {
	PagePath        string    `json:"page_path"`
	MetaTitle       *string   `json:"meta_title,omitempty"`
	MetaDescription *string   `json:"meta_description,omitempty"`
	MetaKeywords    *string   `json:"meta_keywords,omitempty"`
	OGTitle         *string   `json:"og_title,omitempty"`
	OGDescription   *string   `json:"og_description,omitempty"`
	OGImage         *string   `json:"og_image,omitempty"`
	OGType          *string   `json:"og_type,omitempty"`
	CanonicalURL    *string   `json:"canonical_url,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Clone returns a deep copy so callers cannot mutate stored pointers.
func (s PageSettings) Clone() PageSettings {
	cp := s
	cp.MetaTitle = clonePtr(s.MetaTitle)
	cp.MetaDescription = clonePtr(s.MetaDescription)
	cp.MetaKeywords = clonePtr(s.MetaKeywords)
	cp.OGTitle = clonePtr(s.OGTitle)
	cp.OGDescription = clonePtr(s.OGDescription)
	cp.OGImage = clonePtr(s.OGImage)
	cp.OGType = clonePtr(s.OGType)
	cp.CanonicalURL = clonePtr(s.CanonicalURL)
	return cp
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SiteDefaults holds the site-wide constants every resolution falls back to.
// Loaded once at process start and immutable thereafter.
type SiteDefaults struct {
	BaseURL     string
	SiteName    string
	Title       string
	Description string
	Image       string
}

// ResolvedMetadata is the fully-populated result of one resolution.
// Every field is guaranteed non-empty.
type ResolvedMetadata struct {
	Title        string
	Description  string
	Image        string
	OGType       string
	CanonicalURL string
}
