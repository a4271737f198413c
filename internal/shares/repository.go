package shares

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturio/facturio/internal/billing"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Share, error)
	GetByToken(ctx context.Context, token string) (*Share, error)
	ListForDocument(ctx context.Context, kind DocumentKind, documentID int64) ([]Share, error)
	Create(ctx context.Context, share *Share) error
	Update(ctx context.Context, share *Share) error
	RecordView(ctx context.Context, id int64) error
	RecordDownload(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const shareColumns = `id, token, document_kind, document_id, type, status,
	recipient_email, recipient_phone, recipient_name, subject, message,
	view_count, download_count, expires_at, sent_at, opened_at, last_viewed_at,
	created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Share, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shareColumns+` FROM document_shares WHERE id = $1`, id)
	return scanShare(row)
}

func (r *repository) GetByToken(ctx context.Context, token string) (*Share, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shareColumns+` FROM document_shares WHERE token = $1`, token)
	return scanShare(row)
}

func (r *repository) ListForDocument(ctx context.Context, kind DocumentKind, documentID int64) ([]Share, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+shareColumns+` FROM document_shares WHERE document_kind = $1 AND document_id = $2 ORDER BY created_at DESC`,
		string(kind), documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Share
	for rows.Next() {
		s, err := scanShareRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *repository) Create(ctx context.Context, s *Share) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO document_shares (token, document_kind, document_id, type, status,
			recipient_email, recipient_phone, recipient_name, subject, message,
			view_count, download_count, expires_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, $11, $12, NOW(), NOW())
		RETURNING id
	`, s.Token, string(s.DocumentKind), s.DocumentID, string(s.Type), string(s.Status),
		s.RecipientEmail, s.RecipientPhone, s.RecipientName, s.Subject, s.Message,
		s.ExpiresAt, s.CreatedBy).Scan(&s.ID)
}

func (r *repository) Update(ctx context.Context, s *Share) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE document_shares SET
			status = $2, sent_at = $3, opened_at = $4, expires_at = $5, updated_at = NOW()
		WHERE id = $1
	`, s.ID, string(s.Status), s.SentAt, s.OpenedAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (r *repository) RecordView(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE document_shares SET
			view_count = view_count + 1,
			last_viewed_at = NOW(),
			opened_at = COALESCE(opened_at, NOW()),
			status = CASE WHEN status IN ($2, $3) THEN $4 ELSE status END,
			updated_at = NOW()
		WHERE id = $1
	`, id, string(StatusPending), string(StatusSent), string(StatusOpened))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (r *repository) RecordDownload(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE document_shares SET download_count = download_count + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func scanShare(row pgx.Row) (*Share, error) {
	s, err := scanShareRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanShareRow(row pgx.Row) (*Share, error) {
	var s Share
	var kind, shareType, status string
	var recipientEmail, recipientPhone, recipientName, subject, message pgtype.Text
	var expiresAt, sentAt, openedAt, lastViewedAt, createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&s.ID, &s.Token, &kind, &s.DocumentID, &shareType, &status,
		&recipientEmail, &recipientPhone, &recipientName, &subject, &message,
		&s.ViewCount, &s.DownloadCount, &expiresAt, &sentAt, &openedAt, &lastViewedAt,
		&s.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.DocumentKind = DocumentKind(kind)
	s.Type = ShareType(shareType)
	s.Status = ShareStatus(status)
	s.RecipientEmail = textPtr(recipientEmail)
	s.RecipientPhone = textPtr(recipientPhone)
	s.RecipientName = textPtr(recipientName)
	s.Subject = textPtr(subject)
	s.Message = textPtr(message)
	s.ExpiresAt = timePtr(expiresAt)
	s.SentAt = timePtr(sentAt)
	s.OpenedAt = timePtr(openedAt)
	s.LastViewedAt = timePtr(lastViewedAt)
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	s.UpdatedAt = timePtr(updatedAt)
	return &s, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	val := t.Time
	return &val
}
