// Package mailer delivers notification emails through SendGrid.
package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Config holds the SendGrid credentials and sender identity.
type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
	SubjectTag  string
}

// Service sends notification mails via the SendGrid v3 API.
type Service struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     zerolog.Logger
}

// New constructs a SendGrid-backed mailer.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.APIKey == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("sendgrid api key and from address must be provided")
	}

	prefix := ""
	if cfg.SubjectTag != "" {
		prefix = "[" + cfg.SubjectTag + "] "
	}

	return &Service{
		key:        cfg.APIKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: prefix,
		logger:     logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// Send delivers one notification mail. The action URL is appended as a plain
// link so the mail works without an HTML-capable client.
func (s *Service) Send(ctx context.Context, to, subject, body, actionURL string) error {
	personalization := sgmail.NewPersonalization()
	personalization.Subject = s.subjPrefix + subject
	personalization.AddTos(sgmail.NewEmail("", to))

	text := body
	html := fmt.Sprintf("<p>%s</p>", body)
	if actionURL != "" {
		text = fmt.Sprintf("%s\n\n%s", body, actionURL)
		html = fmt.Sprintf("<p>%s</p><p><a href=%q>View</a></p>", body, actionURL)
	}

	message := sgmail.NewV3Mail()
	message.SetFrom(s.from)
	message.AddPersonalizations(personalization)
	message.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html),
	)

	request := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected mail: status %d", response.StatusCode)
	}

	s.logger.Debug().Str("to", to).Msg("notification mail sent")

	return nil
}
