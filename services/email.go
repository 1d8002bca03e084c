package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"
)

const resendAPIURL = "https://api.resend.com/emails"

type EmailService struct {
	apiKey      string
	fromEmail   string
	frontendURL string
	apiURL      string
	client      *http.Client
}

func NewEmailService(apiKey, fromEmail, frontendURL string) *EmailService {
	return &EmailService{
		apiKey:      apiKey,
		fromEmail:   fromEmail,
		frontendURL: frontendURL,
		apiURL:      resendAPIURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled indique si une clé Resend est configurée.
func (s *EmailService) Enabled() bool {
	return s.apiKey != ""
}

func (s *EmailService) SendGoalInvitation(ctx context.Context, to, inviterName, goalTitle string, expiresAt time.Time) error {
	if s.apiKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if inviterName == "" {
		inviterName = "Quelqu'un"
	}

	invitationURL := fmt.Sprintf("%s/invitations", s.frontendURL)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; }
        .button { display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🎯 Invitation à un objectif d'épargne</h1>
        </div>
        <div class="content">
            <p>Bonjour,</p>
            <p><strong>%s</strong> vous invite à collaborer sur l'objectif <strong>"%s"</strong>.</p>
            <a href="%s" class="button">Voir l'invitation</a>
            <p style="color: #e74c3c; margin-top: 30px;">⚠️ Cette invitation expire le %s.</p>
        </div>
    </div>
</body>
</html>
	`, html.EscapeString(inviterName), html.EscapeString(goalTitle), invitationURL, expiresAt.Format("02/01/2006"))

	payload := map[string]interface{}{
		"from":    fmt.Sprintf("Budget Famille <%s>", s.fromEmail),
		"to":      []string{to},
		"subject": fmt.Sprintf("%s vous invite à collaborer", inviterName),
		"html":    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}

	return nil
}
