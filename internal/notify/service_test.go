package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/shared"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []struct{ To, From, Subject, Body string }
	err  error
}

func (m *fakeMailer) Mail(to, from, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ To, From, Subject, Body string }{to, from, subject, body})
	return nil
}

type memNotificationRepo struct {
	mu      sync.Mutex
	records []Notification
	saveErr error
}

func (r *memNotificationRepo) Save(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records = append(r.records, *n)
	return nil
}

func (r *memNotificationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var deleted int64
	for _, n := range r.records {
		if n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.records = kept
	return deleted, nil
}

var _ Repository = (*memNotificationRepo)(nil)

func newTestNotifyService(t *testing.T) (*Service, *fakeMailer, *memNotificationRepo) {
	t.Helper()
	mailer := &fakeMailer{}
	repo := &memNotificationRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, mailer, repo, "no-reply@meridian.local"), mailer, repo
}

func TestSendRelaysAndPersists(t *testing.T) {
	service, mailer, repo := newTestNotifyService(t)

	err := service.Send(context.Background(), "alice@example.com", "Welcome", "Hello there", "ops@meridian.local")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "alice@example.com", mailer.sent[0].To)
	require.Equal(t, "ops@meridian.local", mailer.sent[0].From)

	require.Len(t, repo.records, 1)
	record := repo.records[0]
	require.True(t, record.Sent)
	require.Equal(t, "alice@example.com", record.RecipientEmail)
	require.Equal(t, "ops@meridian.local", record.SenderEmail)
	require.Equal(t, "Welcome", record.Subject)
	require.Equal(t, "Hello there", record.Message)
	require.False(t, record.CreatedAt.IsZero())
}

func TestSendAppliesDefaultSender(t *testing.T) {
	service, mailer, repo := newTestNotifyService(t)

	require.NoError(t, service.Send(context.Background(), "alice@example.com", "Welcome", "Hello", ""))
	require.Equal(t, "no-reply@meridian.local", mailer.sent[0].From)
	require.Equal(t, "no-reply@meridian.local", repo.records[0].SenderEmail)
}

func TestSendRelayFailure(t *testing.T) {
	service, mailer, repo := newTestNotifyService(t)
	mailer.err = errors.New("connection refused")

	err := service.Send(context.Background(), "alice@example.com", "Welcome", "Hello", "")
	require.ErrorIs(t, err, shared.ErrNotification)
	// Nothing is recorded for a failed relay; there is no retry queue.
	require.Empty(t, repo.records)
}

func TestSendPersistFailure(t *testing.T) {
	service, mailer, repo := newTestNotifyService(t)
	repo.saveErr = shared.NewStorageError("save notification", errors.New("insert failed"))

	err := service.Send(context.Background(), "alice@example.com", "Welcome", "Hello", "")
	require.ErrorIs(t, err, shared.ErrNotification)
	require.Len(t, mailer.sent, 1)
}

func TestCleanupDeletesOnlyExpired(t *testing.T) {
	service, _, repo := newTestNotifyService(t)
	now := time.Now().UTC()
	repo.records = []Notification{
		{RecipientEmail: "old@example.com", CreatedAt: now.Add(-48 * time.Hour)},
		{RecipientEmail: "fresh@example.com", CreatedAt: now.Add(-time.Hour)},
	}

	deleted, err := service.Cleanup(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
	require.Len(t, repo.records, 1)
	require.Equal(t, "fresh@example.com", repo.records[0].RecipientEmail)
}
