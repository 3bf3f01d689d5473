package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianhq/meridian/internal/shared"
)

// Service relays notifications and persists a record per dispatch.
type Service struct {
	logger      *slog.Logger
	mailer      Mailer
	repo        Repository
	defaultFrom string
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, mailer Mailer, repo Repository, defaultFrom string) *Service {
	return &Service{logger: logger, mailer: mailer, repo: repo, defaultFrom: defaultFrom}
}

// Send relays the email and records the dispatch. An empty sender falls
// back to the configured default. Relay or insert failure surfaces as
// ErrNotification; nothing is retried.
func (s *Service) Send(ctx context.Context, recipient, subject, message, sender string) error {
	if sender == "" {
		sender = s.defaultFrom
	}
	s.logger.Info("sending notification",
		slog.String("to", recipient), slog.String("from", sender), slog.String("subject", subject))

	if err := s.mailer.Mail(recipient, sender, subject, message); err != nil {
		s.logger.Error("mail relay", slog.Any("error", err))
		return fmt.Errorf("%w: %v", shared.ErrNotification, err)
	}

	record := &Notification{
		RecipientEmail: recipient,
		SenderEmail:    sender,
		Subject:        subject,
		Message:        message,
		Sent:           true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("persist notification", slog.Any("error", err))
		return fmt.Errorf("%w: %v", shared.ErrNotification, err)
	}
	return nil
}

// Cleanup deletes notification records older than retention.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("notification retention cleanup", slog.Int64("deleted", deleted))
	}
	return deleted, nil
}
