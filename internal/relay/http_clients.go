package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTPCaptchaVerifier posts tokens to a CAPTCHA verification endpoint
// (hCaptcha/Turnstile-style form API returning {"success": bool}).
type HTTPCaptchaVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHTTPCaptchaVerifier builds a verifier against the given endpoint.
func NewHTTPCaptchaVerifier(endpoint, secret string) *HTTPCaptchaVerifier {
	return &HTTPCaptchaVerifier{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// Verify reports whether the verification service accepted the token.
func (v *HTTPCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("call captcha service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha service returned status %d", resp.StatusCode)
	}

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode captcha response: %w", err)
	}
	return out.Success, nil
}

// HTTPEmailSender forwards messages through a transactional email API.
type HTTPEmailSender struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

// NewHTTPEmailSender builds a sender against the given API endpoint.
func NewHTTPEmailSender(endpoint, apiKey, from, to string) *HTTPEmailSender {
	return &HTTPEmailSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		to:       to,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send posts the message as a JSON email request.
func (s *HTTPEmailSender) Send(ctx context.Context, msg Message) error {
	payload := emailPayload{
		From:    s.from,
		To:      []string{s.to},
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("Contact form: %s", msg.Name),
		Text:    msg.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call email service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
	return nil
}
