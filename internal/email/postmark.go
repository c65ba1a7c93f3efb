package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// tokenPlaceholder is substituted with the action token key when building
// activation and password-reset links.
const tokenPlaceholder = "{{token}}"

type Client struct {
	serverToken      string
	fromEmail        string
	activationURL    string
	passwordResetURL string
	httpClient       *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, activationURL, passwordResetURL string, opts ...Option) *Client {
	c := &Client{
		serverToken:      serverToken,
		fromEmail:        fromEmail,
		activationURL:    activationURL,
		passwordResetURL: passwordResetURL,
		httpClient:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendActivation sends the account activation email carrying the activation
// link built from the configured URL template.
func (c *Client) SendActivation(toEmail, token string) error {
	link := strings.ReplaceAll(c.activationURL, tokenPlaceholder, token)
	text := fmt.Sprintf("Welcome! Click the link below to activate your account:\n\n%s\n\nThis link expires in 48 hours.", link)
	html := fmt.Sprintf(
		`<p>Welcome! Click the link below to activate your account:</p><p><a href="%s">Activate my account</a></p><p>This link expires in 48 hours.</p>`,
		link,
	)
	return c.send(toEmail, "Activate your account", html, text)
}

// SendPasswordReset sends the password reset email with the reset link.
func (c *Client) SendPasswordReset(toEmail, token string) error {
	link := strings.ReplaceAll(c.passwordResetURL, tokenPlaceholder, token)
	text := fmt.Sprintf("A password reset was requested for your account. Click the link below to choose a new password:\n\n%s\n\nIf you did not ask for this, you can ignore this email.", link)
	html := fmt.Sprintf(
		`<p>A password reset was requested for your account. Click the link below to choose a new password:</p><p><a href="%s">Reset my password</a></p><p>If you did not ask for this, you can ignore this email.</p>`,
		link,
	)
	return c.send(toEmail, "Reset your password", html, text)
}

// SendVideoStatus notifies a video owner that moderation changed the
// visibility of their video.
func (c *Client) SendVideoStatus(toEmail, title string, active bool) error {
	name := title
	if name == "" {
		name = "Your video"
	}
	var subject, text, html string
	if active {
		subject = "Your video has been published"
		text = fmt.Sprintf("%s has been reviewed and is now visible to everyone.", name)
		html = fmt.Sprintf("<p>%s has been reviewed and is now visible to everyone.</p>", name)
	} else {
		subject = "Your video has been unpublished"
		text = fmt.Sprintf("%s is no longer visible. Contact us if you think this is a mistake.", name)
		html = fmt.Sprintf("<p>%s is no longer visible. Contact us if you think this is a mistake.</p>", name)
	}
	return c.send(toEmail, subject, html, text)
}

func (c *Client) send(toEmail, subject, htmlBody, textBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.postmarkapp.com/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
