// Package render assembles the crawler-facing HTML document from resolved
// metadata. Interpolation goes through html/template so stored values
// containing markup cannot break the document.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dibull/preview-renderer/internal/seo"
)

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Meta.Title}}</title>
<meta name="description" content="{{.Meta.Description}}">
<link rel="canonical" href="{{.Meta.CanonicalURL}}">
<meta property="og:title" content="{{.Meta.Title}}">
<meta property="og:description" content="{{.Meta.Description}}">
<meta property="og:image" content="{{.Meta.Image}}">
<meta property="og:url" content="{{.Meta.CanonicalURL}}">
<meta property="og:type" content="{{.Meta.OGType}}">
<meta property="og:site_name" content="{{.SiteName}}">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="{{.Meta.Title}}">
<meta name="twitter:description" content="{{.Meta.Description}}">
<meta name="twitter:image" content="{{.Meta.Image}}">
</head>
<body>
<h1>{{.Meta.Title}}</h1>
<p>{{.Meta.Description}}</p>
<a href="{{.Meta.CanonicalURL}}">{{.Meta.CanonicalURL}}</a>
</body>
</html>
`

var document = template.Must(template.New("preview").Parse(documentTemplate))

type documentData struct {
	Meta     seo.ResolvedMetadata
	SiteName string
}

// Document renders the complete preview page for a crawler.
func Document(meta seo.ResolvedMetadata, siteName string) (string, error) {
	var buf bytes.Buffer
	if err := document.Execute(&buf, documentData{Meta: meta, SiteName: siteName}); err != nil {
		return "", fmt.Errorf("execute preview template: %w", err)
	}
	return buf.String(), nil
}
