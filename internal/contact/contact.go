package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/lumina_shop/pkg/events"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

const (
	DefaultDelay   = 1500 * time.Millisecond
	DefaultTimeout = 10 * time.Second
)

var (
	ErrValidation = errors.New("validation")
	ErrTimeout    = errors.New("contact delivery timed out")
)

type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (m *Message) Normalize() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)

	var missing []string
	for _, f := range []struct{ name, v string }{
		{"name", m.Name}, {"email", m.Email}, {"subject", m.Subject}, {"message", m.Message},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

type Delivered struct {
	Type    string    `json:"type"`
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Service struct {
	Publisher events.Publisher
	Delay     time.Duration
	Timeout   time.Duration
	Log       *slog.Logger
	Now       func() time.Time
}

func New(pub events.Publisher, delay time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{Publisher: pub, Delay: delay, Timeout: DefaultTimeout, Log: log, Now: time.Now}
}

// Send validates, waits out the delivery delay and publishes a
// contact_message event. It returns the message id.
func (s *Service) Send(ctx context.Context, m Message) (string, error) {
	if err := m.Normalize(); err != nil {
		return "", err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrTimeout
			}
			return "", ctx.Err()
		}
	}

	ev := Delivered{
		Type:    "contact_message",
		ID:      uuid.NewString(),
		Name:    m.Name,
		Email:   m.Email,
		Subject: m.Subject,
		Message: m.Message,
		At:      s.Now().UTC(),
	}
	if err := s.Publisher.PublishEvent(ctx, events.TopicContact, ev.ID, ev); err != nil {
		s.Log.Error("contact_publish_error", "id", ev.ID, "error", err)
		return "", fmt.Errorf("deliver contact message: %w", err)
	}
	s.Log.Info("contact_message_sent", "id", ev.ID, "subject", ev.Subject)
	return ev.ID, nil
}
