package api

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dibull/preview-renderer/internal/render"
	"github.com/dibull/preview-renderer/internal/seo"
	"github.com/dibull/preview-renderer/internal/store"
	"github.com/dibull/preview-renderer/internal/telemetry"
)

// previewPreflight answers the CORS preflight for the preview route.
func (s *Server) previewPreflight(w http.ResponseWriter, _ *http.Request) {
	corsHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// preview classifies the caller and serves either the crawler document or
// the JSON short-circuit telling the edge to render the app normally.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	if !s.detector.IsCrawler(r.Header.Get("User-Agent")) {
		telemetry.ObservePreview(telemetry.AgentBrowser)
		writeJSON(s.logger, w, http.StatusOK, map[string]bool{"redirect": true})
		return
	}
	telemetry.ObservePreview(telemetry.AgentCrawler)

	start := time.Now()

	// A failed lookup degrades to defaults: crawlers always get a document.
	var overrides *seo.PageSettings
	rec, err := s.settings.Get(r.Context(), path)
	switch {
	case err == nil:
		overrides = &rec
	case errors.Is(err, store.ErrNotFound):
	default:
		telemetry.ObserveLookupFailure()
		s.logger.Warn("settings lookup failed, serving defaults",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	meta := s.resolver.Resolve(path, overrides)
	doc, err := render.Document(meta, s.cfg.Site.Name)
	if err != nil {
		s.logger.Error("render preview document failed", zap.String("path", path), zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "failed to render preview")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cfg.Cache.MaxAgeSeconds))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		s.logger.Error("write preview document failed", zap.Error(err))
	}
	telemetry.ObserveRenderDuration(time.Since(start))
}

type sitemapEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
}

type sitemapURLSet struct {
	XMLName xml.Name       `xml:"urlset"`
	XMLNS   string         `xml:"xmlns,attr"`
	URLs    []sitemapEntry `xml:"url"`
}

// sitemap lists the root plus every page with stored settings.
func (s *Server) sitemap(w http.ResponseWriter, r *http.Request) {
	recs, err := s.settings.List(r.Context())
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "failed to list pages")
		return
	}

	base := strings.TrimSuffix(s.cfg.Site.BaseURL, "/")
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	seen := map[string]bool{}
	add := func(path string, lastMod time.Time) {
		if seen[path] {
			return
		}
		seen[path] = true
		entry := sitemapEntry{Loc: base + path, ChangeFreq: "weekly"}
		if !lastMod.IsZero() {
			entry.LastMod = lastMod.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}

	add("/", time.Time{})
	for _, rec := range recs {
		add(rec.PagePath, rec.UpdatedAt)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "failed to build sitemap")
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append([]byte(xml.Header), body...)); err != nil {
		s.logger.Error("write sitemap failed", zap.Error(err))
	}
}
