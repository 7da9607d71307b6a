package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dibull/preview-renderer/internal/classifier"
	"github.com/dibull/preview-renderer/internal/config"
	notifymemory "github.com/dibull/preview-renderer/internal/notify/memory"
	"github.com/dibull/preview-renderer/internal/relay"
	"github.com/dibull/preview-renderer/internal/seo"
	storememory "github.com/dibull/preview-renderer/internal/store/memory"
)

func strPtr(s string) *string { return &s }

func testConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Logging: config.LoggingConfig{Development: true},
		Site: config.SiteConfig{
			BaseURL:            "https://dibull.com",
			Name:               "Digital Bull Technology",
			DefaultTitle:       "Digital Bull Technology | Digital Marketing Agency",
			DefaultDescription: "Full-service digital marketing for growing brands.",
			DefaultImage:       "https://dibull.com/logo.png",
		},
		Classifier: config.ClassifierConfig{Signatures: classifier.DefaultSignatures},
		Cache:      config.CacheConfig{MaxAgeSeconds: 3600},
		DB:         config.DBConfig{Provider: "memory"},
		Notify:     config.NotifyConfig{Provider: "memory", Topic: "seo-invalidations"},
	}
}

type serverFixture struct {
	server   *Server
	settings *storememory.SettingsStore
	events   *notifymemory.Publisher
}

func newFixture(cfg config.Config) *serverFixture {
	settings := storememory.New()
	events := notifymemory.New()
	server := NewServer(
		settings,
		classifier.New(cfg.Classifier.Signatures),
		seo.NewResolver(cfg.SiteDefaults()),
		events,
		nil,
		cfg,
		zap.NewNop(),
	)
	return &serverFixture{server: server, settings: settings, events: events}
}

func TestPreviewCrawlerGetsDocumentWithDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/preview?path=/contact", nil)
	req.Header.Set("User-Agent", "Twitterbot/1.0")
	rec := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	body := rec.Body.String()
	require.Contains(t, body,
		`<meta property="og:title" content="Digital Bull Technology | Digital Marketing Agency">`)
	require.Contains(t, body, `<link rel="canonical" href="https://dibull.com/contact">`)
}

func TestPreviewBrowserGetsRedirectSignal(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/preview?path=/contact", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.JSONEq(t, `{"redirect": true}`, rec.Body.String())
}

func TestPreviewMissingUserAgentIsBrowser(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/preview", nil)
	rec := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"redirect": true}`, rec.Body.String())
}

func TestPreviewAnswersEveryMethod(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	// Link-preview fetchers frequently probe with HEAD before fetching.
	for _, method := range []string{http.MethodHead, http.MethodPost, http.MethodPut} {
		req := httptest.NewRequest(method, "/preview?path=/contact", nil)
		req.Header.Set("User-Agent", "Twitterbot/1.0")
		rec := httptest.NewRecorder()

		f.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, method)
		require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"), method)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), method)
	}

	req := httptest.NewRequest(http.MethodHead, "/preview?path=/contact", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"redirect": true}`, rec.Body.String())
}

func TestPreviewPreflight(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/preview", nil)
	rec := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "authorization, x-client-info, apikey, content-type",
		rec.Header().Get("Access-Control-Allow-Headers"))
	require.Empty(t, rec.Body.String())
}

func TestPreviewUsesStoredOverrides(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())
	require.NoError(t, f.settings.Upsert(context.Background(), seo.PageSettings{
		PagePath:        "/services/seo",
		MetaTitle:       strPtr("SEO Services | Dibull"),
		OGDescription:   strPtr("X"),
		MetaDescription: strPtr("Y"),
	}))

	req := httptest.NewRequest(http.MethodGet, "/preview?path=/services/seo", nil)
	req.Header.Set("User-Agent", "facebookexternalhit/1.1")
	rec := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	require.Equal(t, "SEO Services | Dibull", doc.Find("title").Text())
	content, ok := doc.Find(`meta[property="og:description"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, "X", content)
}

func TestPreviewDefaultsPathToRoot(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/preview", nil)
	req.Header.Set("User-Agent", "Googlebot/2.1")
	rec := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `<link rel="canonical" href="https://dibull.com/">`)
}

type failingStore struct {
	*storememory.SettingsStore
	getErr  error
	pingErr error
}

func (f *failingStore) Get(ctx context.Context, path string) (seo.PageSettings, error) {
	if f.getErr != nil {
		return seo.PageSettings{}, f.getErr
	}
	return f.SettingsStore.Get(ctx, path)
}

func (f *failingStore) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.SettingsStore.Ping(ctx)
}

func TestPreviewLookupFailureDegradesToDefaults(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	broken := &failingStore{
		SettingsStore: storememory.New(),
		getErr:        errors.New("connection refused"),
	}
	server := NewServer(
		broken,
		classifier.New(cfg.Classifier.Signatures),
		seo.NewResolver(cfg.SiteDefaults()),
		notifymemory.New(),
		nil,
		cfg,
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/preview?path=/contact", nil)
	req.Header.Set("User-Agent", "Slackbot-LinkExpanding 1.0")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(),
		`<meta property="og:title" content="Digital Bull Technology | Digital Marketing Agency">`)
}

func TestReadyzReportsStoreOutage(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	broken := &failingStore{
		SettingsStore: storememory.New(),
		pingErr:       errors.New("down"),
	}
	server := NewServer(
		broken,
		classifier.New(cfg.Classifier.Signatures),
		seo.NewResolver(cfg.SiteDefaults()),
		nil,
		nil,
		cfg,
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSitemapListsStoredPages(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())
	ctx := context.Background()
	require.NoError(t, f.settings.Upsert(ctx, seo.PageSettings{PagePath: "/services/seo"}))
	require.NoError(t, f.settings.Upsert(ctx, seo.PageSettings{PagePath: "/blog"}))

	req := httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.Contains(t, body, "<loc>https://dibull.com/</loc>")
	require.Contains(t, body, "<loc>https://dibull.com/services/seo</loc>")
	require.Contains(t, body, "<loc>https://dibull.com/blog</loc>")
	require.Equal(t, 1, strings.Count(body, "<loc>https://dibull.com/</loc>"))
}

func TestAdminSettingsRequireAPIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "secret"}
	f := newFixture(cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/seo/settings?path=/", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The preview route stays public.
	req = httptest.NewRequest(http.MethodGet, "/preview", nil)
	req.Header.Set("User-Agent", "Googlebot/2.1")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminSettingsLifecycle(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "secret"}
	f := newFixture(cfg)

	body := `{"page_path":"/contact","og_title":"Contact Dibull","meta_description":"Say hello"}`
	req := httptest.NewRequest(http.MethodPut, "/v1/seo/settings", bytes.NewBufferString(body))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/seo/settings?path=/contact", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Contact Dibull")

	req = httptest.NewRequest(http.MethodGet, "/v1/seo/settings", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/contact")

	req = httptest.NewRequest(http.MethodDelete, "/v1/seo/settings?path=/contact", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/seo/settings?path=/contact", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	events := f.events.Events()
	require.Len(t, events, 2)
	require.Equal(t, "upserted", events[0].Event.Action)
	require.Equal(t, "deleted", events[1].Event.Action)
	require.Equal(t, "/contact", events[0].Event.PagePath)
}

func TestUpsertSettingsRejectsBadInput(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodPut, "/v1/seo/settings", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/v1/seo/settings",
		bytes.NewBufferString(`{"page_path":"no-slash"}`))
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSettingsRequiresPath(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())

	req := httptest.NewRequest(http.MethodDelete, "/v1/seo/settings", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/seo/settings?path=/missing", nil)
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string) (bool, error) {
	return f.ok, f.err
}

type fakeSender struct {
	err error
}

func (f *fakeSender) Send(_ context.Context, _ relay.Message) error {
	return f.err
}

func newContactServer(verifier relay.CaptchaVerifier, sender relay.EmailSender) *Server {
	cfg := testConfig()
	cfg.Contact.Enabled = true
	return NewServer(
		storememory.New(),
		classifier.New(cfg.Classifier.Signatures),
		seo.NewResolver(cfg.SiteDefaults()),
		notifymemory.New(),
		relay.New(verifier, sender, zap.NewNop()),
		cfg,
		zap.NewNop(),
	)
}

func TestContactStatusMapping(t *testing.T) {
	t.Parallel()

	valid := `{"name":"Jordan","email":"jordan@example.com","message":"hi","captcha_token":"tok"}`

	tests := []struct {
		name     string
		verifier *fakeVerifier
		sender   *fakeSender
		body     string
		want     int
	}{
		{
			name:     "success",
			verifier: &fakeVerifier{ok: true},
			sender:   &fakeSender{},
			body:     valid,
			want:     http.StatusOK,
		},
		{
			name:     "invalid json",
			verifier: &fakeVerifier{ok: true},
			sender:   &fakeSender{},
			body:     "{invalid",
			want:     http.StatusBadRequest,
		},
		{
			name:     "missing fields",
			verifier: &fakeVerifier{ok: true},
			sender:   &fakeSender{},
			body:     `{"name":"Jordan"}`,
			want:     http.StatusBadRequest,
		},
		{
			name:     "captcha rejected",
			verifier: &fakeVerifier{ok: false},
			sender:   &fakeSender{},
			body:     valid,
			want:     http.StatusForbidden,
		},
		{
			name:     "captcha service down",
			verifier: &fakeVerifier{err: errors.New("timeout")},
			sender:   &fakeSender{},
			body:     valid,
			want:     http.StatusInternalServerError,
		},
		{
			name:     "email upstream failure",
			verifier: &fakeVerifier{ok: true},
			sender:   &fakeSender{err: errors.New("smtp down")},
			body:     valid,
			want:     http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := newContactServer(tt.verifier, tt.sender)
			req := httptest.NewRequest(http.MethodPost, "/v1/contact", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestContactRouteAbsentWhenRelayDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteJSONLogsEncodeFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	rec := httptest.NewRecorder()

	// Channels are not JSON-encodable, forcing the error branch.
	writeJSON(zap.New(core), rec, http.StatusOK, map[string]any{"ch": make(chan int)})

	require.Equal(t, 1, logs.FilterMessage("write JSON failed").Len())
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	f := newFixture(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
