package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
)

var bodies = map[string]string{
	TemplateCheckoutLink: "Subject: Payment requested\r\n\r\n" +
		"Hello,\r\n\r\nYour notarization \"{{.filename}}\" is ready. " +
		"Complete the payment here: {{.checkout_url}}\r\n",
	TemplateNFTTransfer: "Subject: You received a document NFT\r\n\r\n" +
		"Hello,\r\n\r\nYou received {{.amount}} copy(ies) of \"{{.filename}}\".\r\n",
	TemplateDocumentDone: "Subject: Notarization complete\r\n\r\n" +
		"Hello,\r\n\r\nYour document \"{{.filename}}\" has been notarized. " +
		"Proof: {{.explorer_link}}\r\n",
}

// smtpSender implements Sender over plain SMTP with AUTH.
type smtpSender struct {
	addr      string
	from      string
	auth      smtp.Auth
	templates map[string]*template.Template
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP builds the SMTP sender from config. Templates are parsed once at
// startup so a bad template fails the process early, not mid-request.
func NewSMTP(cfg config.SMTPConfig) (Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	parsed := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		parsed[name] = t
	}
	return &smtpSender{
		addr:      cfg.Host + ":" + cfg.Port,
		from:      cfg.From,
		auth:      smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		templates: parsed,
		sendMail:  smtp.SendMail,
	}, nil
}

// Send renders the named template and delivers it.
func (s *smtpSender) Send(ctx context.Context, to, tmpl string, data map[string]string) error {
	t, ok := s.templates[tmpl]
	if !ok {
		return fmt.Errorf("unknown email template %q", tmpl)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sendMail(s.addr, s.auth, s.from, []string{to}, []byte(sb.String())); err != nil {
		return fmt.Errorf("%w: send email to %s: %v", apperr.ErrExternalService, to, err)
	}
	return nil
}
