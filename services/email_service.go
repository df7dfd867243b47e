// File: /services/email_service.go
package services

import (
	"fmt"
	"html"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"quillpost-api/config"
	"quillpost-api/models"
)

type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends author notifications over SMTP. Sends happen in the
// background and failures are only logged.
type EmailService struct {
	config *config.Config
	dialer mailer
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewEmailService(cfg *config.Config, log *zap.Logger) *EmailService {
	return &EmailService{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		log:    log.Named("email"),
	}
}

// NewNotifier returns an EmailService when SMTP is configured and a no-op
// notifier otherwise.
func NewNotifier(cfg *config.Config, log *zap.Logger) Notifier {
	if !cfg.EmailEnabled() {
		log.Info("smtp host not set, email notifications disabled")
		return NopNotifier{}
	}
	return NewEmailService(cfg, log)
}

func (es *EmailService) message(to, subject, text, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", htmlBody)
	return m
}

func (es *EmailService) send(kind string, m *gomail.Message) {
	to := m.GetHeader("To")
	es.wg.Add(1)
	go func() {
		defer es.wg.Done()
		if err := es.dialer.DialAndSend(m); err != nil {
			es.log.Warn("failed to send email", zap.String("kind", kind), zap.Strings("to", to), zap.Error(err))
			return
		}
		es.log.Debug("email sent", zap.String("kind", kind), zap.Strings("to", to))
	}()
}

// Wait blocks until queued emails have been handed to the SMTP server.
func (es *EmailService) Wait() {
	es.wg.Wait()
}

func (es *EmailService) NewFollower(author, follower models.User) {
	if author.Email == "" {
		return
	}

	name := follower.Name
	if follower.Username != "" {
		name = fmt.Sprintf("%s (@%s)", follower.Name, follower.Username)
	}

	text := fmt.Sprintf("Hello %s!\n\n%s started following you on %s.\n", author.Name, name, es.config.FromName)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Hello %s!</h2>
    <p><strong>%s</strong> started following you on %s.</p>
</body>
</html>`, html.EscapeString(author.Name), html.EscapeString(name), html.EscapeString(es.config.FromName))

	es.send("new_follower", es.message(author.Email, "You have a new follower", text, htmlBody))
}

func (es *EmailService) NewComment(author models.User, post models.Post, comment models.Comment) {
	if author.Email == "" {
		return
	}

	text := fmt.Sprintf("Hello %s!\n\n%s commented on \"%s\":\n\n%s\n", author.Name, comment.AuthorName, post.Title, comment.Content)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Hello %s!</h2>
    <p><strong>%s</strong> commented on <em>%s</em>:</p>
    <blockquote>%s</blockquote>
</body>
</html>`, html.EscapeString(author.Name), html.EscapeString(comment.AuthorName), html.EscapeString(post.Title), html.EscapeString(comment.Content))

	es.send("new_comment", es.message(author.Email, fmt.Sprintf("New comment on %q", post.Title), text, htmlBody))
}
