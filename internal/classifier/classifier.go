// Package classifier decides whether a request comes from a known
// link-preview or search crawler based on its User-Agent string.
package classifier

import "strings"

// DefaultSignatures lists the bot substrings matched out of the box.
// Order is irrelevant; all matches are equivalent.
var DefaultSignatures = []string{
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"whatsapp",
	"slackbot",
	"telegrambot",
	"pinterest",
	"discordbot",
	"googlebot",
	"bingbot",
}

// Detector matches User-Agent strings against a configured signature set.
type Detector struct {
	signatures []string
}

// New constructs a Detector from the given signatures. Signatures are
// trimmed and lowercased; blank entries are dropped.
func New(signatures []string) *Detector {
	lowered := make([]string, 0, len(signatures))
	for _, sig := range signatures {
		sig = strings.ToLower(strings.TrimSpace(sig))
		if sig == "" {
			continue
		}
		lowered = append(lowered, sig)
	}
	return &Detector{signatures: lowered}
}

// IsCrawler reports whether the User-Agent contains any configured
// signature, case-insensitively. An empty User-Agent is never a crawler.
func (d *Detector) IsCrawler(userAgent string) bool {
	if d == nil || userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, sig := range d.signatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}
