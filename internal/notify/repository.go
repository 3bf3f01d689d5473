package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/shared"
)

// Repository defines persistence operations for notification records.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Save inserts the notification record.
func (r *PGRepository) Save(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_email, sender_email, subject, message, sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.RecipientEmail, n.SenderEmail, n.Subject, n.Message, n.Sent, n.CreatedAt)
	if err != nil {
		return shared.NewStorageError("save notification", err)
	}
	return nil
}

// DeleteOlderThan removes records created before cutoff and reports how many
// were deleted. The retention job calls this periodically.
func (r *PGRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, shared.NewStorageError("delete old notifications", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
