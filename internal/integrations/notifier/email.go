package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const defaultSMTPTimeout = 15 * time.Second

// EmailConfig параметры SMTP
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	FromName string
	Timeout  time.Duration
	Location *time.Location
}

// Dialer отправка писем; реализуется *gomail.Dialer
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier уведомления по email через SMTP
type EmailNotifier struct {
	cfg    EmailConfig
	dialer Dialer
	logger Logger
}

// NewEmailNotifier создает email-уведомитель
func NewEmailNotifier(cfg EmailConfig, logger Logger) (*EmailNotifier, error) {
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("%w: from is required", ErrInvalidMessage)
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseTLS
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	return newEmailNotifier(cfg, d, logger), nil
}

func newEmailNotifier(cfg EmailConfig, dialer Dialer, logger Logger) *EmailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &EmailNotifier{cfg: cfg, dialer: dialer, logger: logger}
}

// SendBookingConfirmation отправляет подтверждение записи
func (n *EmailNotifier) SendBookingConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	data := newMessageData(appt, slot, n.cfg.Location)
	subject := fmt.Sprintf("Appointment confirmed: %s on %s at %s", data.Service, data.Date, data.StartTime)
	return n.send(ctx, appt.ClientEmail, subject, templateConfirmation, data)
}

// SendReminder отправляет напоминание о записи
func (n *EmailNotifier) SendReminder(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	data := newMessageData(appt, slot, n.cfg.Location)
	subject := fmt.Sprintf("Reminder: %s on %s at %s", data.Service, data.Date, data.StartTime)
	return n.send(ctx, appt.ClientEmail, subject, templateReminder, data)
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, tmpl string, data MessageData) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}

	body, err := render(tmpl, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	if n.cfg.FromName != "" {
		msg.SetAddressHeader("From", n.cfg.From, n.cfg.FromName)
	} else {
		msg.SetHeader("From", n.cfg.From)
	}
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	done := make(chan error, 1)
	go func() {
		done <- n.dialer.DialAndSend(msg)
	}()

	// Дедлайн ctx имеет приоритет, если он раньше таймаута SMTP
	wait := n.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: smtp to=%s: %v", ErrSend, to, err)
		}
		n.logger.Info("EmailNotifier: %q sent to %s", subject, to)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: smtp to=%s: %v", ErrSend, to, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: smtp to=%s: %v", ErrSend, to, context.DeadlineExceeded)
	}
}
