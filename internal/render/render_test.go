package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/dibull/preview-renderer/internal/seo"
)

func sampleMeta() seo.ResolvedMetadata {
	return seo.ResolvedMetadata{
		Title:        "Digital Bull Technology | Digital Marketing Agency",
		Description:  "Full-service digital marketing for growing brands.",
		Image:        "https://dibull.com/logo.png",
		OGType:       "website",
		CanonicalURL: "https://dibull.com/contact",
	}
}

func TestDocumentShape(t *testing.T) {
	t.Parallel()

	meta := sampleMeta()
	out, err := Document(meta, "Digital Bull Technology")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	titles := doc.Find("title")
	require.Equal(t, 1, titles.Length())
	require.Equal(t, meta.Title, titles.Text())

	content, ok := doc.Find(`meta[property="og:image"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, meta.Image, content)

	content, ok = doc.Find(`meta[property="og:url"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, meta.CanonicalURL, content)

	content, ok = doc.Find(`meta[property="og:site_name"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, "Digital Bull Technology", content)

	content, ok = doc.Find(`meta[name="twitter:card"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, "summary_large_image", content)

	href, ok := doc.Find(`link[rel="canonical"]`).Attr("href")
	require.True(t, ok)
	require.Equal(t, meta.CanonicalURL, href)
}

func TestDocumentBodyIsHumanReadable(t *testing.T) {
	t.Parallel()

	meta := sampleMeta()
	out, err := Document(meta, "Digital Bull Technology")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	require.Equal(t, meta.Title, doc.Find("body h1").Text())
	require.Equal(t, meta.Description, doc.Find("body p").Text())
	href, ok := doc.Find("body a").Attr("href")
	require.True(t, ok)
	require.Equal(t, meta.CanonicalURL, href)
}

func TestDocumentEscapesStoredMarkup(t *testing.T) {
	t.Parallel()

	meta := sampleMeta()
	meta.Title = `<script>alert("x")</script> & more`
	meta.Description = `"quoted" <b>`

	out, err := Document(meta, "Digital Bull Technology")
	require.NoError(t, err)

	require.NotContains(t, out, "<script>")
	require.NotContains(t, out, "<b>")

	// The escaped values must survive a parse round trip intact.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, meta.Title, doc.Find("title").Text())
	content, ok := doc.Find(`meta[name="description"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, meta.Description, content)
}
