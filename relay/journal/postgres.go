package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/relaybot/core/logger"
)

const (
	insertEntry = `INSERT INTO relay_journal (kind, actor_id, sender_id, message_id, detail, created_at)
VALUES (:kind, :actor_id, :sender_id, :message_id, :detail, :created_at)`

	selectRecent = `SELECT id, kind, actor_id, sender_id, message_id, detail, created_at
FROM relay_journal
WHERE sender_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	maxDetail = 512
)

// Postgres stores entries in the relay_journal table.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgres wraps an open pool. The schema comes from the migrations package.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Record appends e, stamping it with the current time when At is zero.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = p.now().UTC()
	}
	e.Detail = logger.SanitizeLimit(e.Detail, maxDetail)

	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		logger.Warn(ctx, "journal", "record",
			slog.String("status", "fail"),
			slog.String("kind", e.Kind),
			slog.Int64("sender_id", e.SenderID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("journal record %s: %w", e.Kind, err)
	}
	logger.Debug(ctx, "journal", "record",
		slog.String("status", "ok"),
		slog.String("kind", e.Kind),
		slog.Int64("sender_id", e.SenderID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Recent returns up to limit entries of senderID, newest first.
func (p *Postgres) Recent(ctx context.Context, senderID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Entry
	if err := p.db.SelectContext(ctx, &out, selectRecent, senderID, limit); err != nil {
		return nil, fmt.Errorf("journal recent %d: %w", senderID, err)
	}
	return out, nil
}
