package service

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"
)

type EmailSender struct {
	dialer  *mail.Dialer
	logger  *logrus.Logger
	enabled bool
	baseURL string
}

func NewEmailSender(logger *logrus.Logger) *EmailSender {
	enabled := os.Getenv("EMAIL_SENDER_ENABLED") == "true"
	if !enabled {
		logger.Info("Отправка email отключена")
		return &EmailSender{logger: logger}
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		logger.Fatalf("Ошибка преобразования SMTP_PORT: %v", err)
	}

	d := mail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	d.TLSConfig = &tls.Config{
		ServerName:         smtpHost,
		InsecureSkipVerify: os.Getenv("INSECURE_SKIP_VERIFY") == "true",
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	return &EmailSender{
		dialer:  d,
		logger:  logger,
		enabled: true,
		baseURL: baseURL,
	}
}

// Enabled сообщает, включена ли отправка почты
func (es *EmailSender) Enabled() bool {
	return es.enabled
}

// SendVerificationEmail отправляет ссылку подтверждения учетной записи
func (es *EmailSender) SendVerificationEmail(email, token string) error {
	if !es.enabled {
		es.logger.Warn("Отправка уведомлений отключена")
		return nil
	}

	subject := "Подтверждение учетной записи FlowFund"
	content := fmt.Sprintf(`
		<h1>Добро пожаловать в FlowFund</h1>
		<p>Для подтверждения учетной записи перейдите по ссылке:</p>
		<p><a href="%s/api/auth/verify?token=%s">Подтвердить</a></p>
		<small>Это автоматическое уведомление, пожалуйста, не отвечайте на него</small>
	`, es.baseURL, token)

	return es.sendEmail(email, subject, content)
}

// SendRecurringProcessedNotification уведомляет об автоматически
// добавленных повторяющихся операциях
func (es *EmailSender) SendRecurringProcessedNotification(email string, count int) error {
	if !es.enabled {
		es.logger.Warn("Отправка уведомлений отключена")
		return nil
	}

	subject := "Повторяющиеся операции обработаны"
	content := fmt.Sprintf(`
		<h1>Повторяющиеся операции</h1>
		<p>В журнал добавлено операций: <strong>%d</strong></p>
		<p>Дата: <strong>%s</strong></p>
		<small>Это автоматическое уведомление, пожалуйста, не отвечайте на него</small>
	`, count, time.Now().Format("02.01.2006 15:04"))

	return es.sendEmail(email, subject, content)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_USER"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("Ошибка отправки email")
		return fmt.Errorf("не удалось отправить email: %w", err)
	}

	es.logger.Infof("Email успешно отправлен на %s", to)
	return nil
}
