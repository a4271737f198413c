package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/platform/db"
)

// ErrCodeTaken signals a template code collision.
var ErrCodeTaken = errors.New("template code already used")

type Repository interface {
	Get(ctx context.Context, id int64) (*EmailTemplate, error)
	GetByCode(ctx context.Context, code string) (*EmailTemplate, error)
	List(ctx context.Context, onlyActive bool) ([]EmailTemplate, error)
	Create(ctx context.Context, tpl *EmailTemplate) error
	Update(ctx context.Context, tpl *EmailTemplate) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const templateColumns = `id, name, code, type, subject, body_html, is_active, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*EmailTemplate, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*EmailTemplate, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE code = $1`, code))
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]EmailTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates`
	if onlyActive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY type, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EmailTemplate
	for rows.Next() {
		tpl, err := scanTemplateRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tpl)
	}
	return result, rows.Err()
}

func (r *repository) Create(ctx context.Context, tpl *EmailTemplate) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO email_templates (name, code, type, subject, body_html, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at
	`, tpl.Name, tpl.Code, string(tpl.Type), tpl.Subject, tpl.BodyHTML,
		tpl.IsActive, tpl.CreatedBy).Scan(&tpl.ID, &tpl.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrCodeTaken, tpl.Code)
	}
	return err
}

func (r *repository) Update(ctx context.Context, tpl *EmailTemplate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE email_templates SET
			name = $2, type = $3, subject = $4, body_html = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
	`, tpl.ID, tpl.Name, string(tpl.Type), tpl.Subject, tpl.BodyHTML, tpl.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*EmailTemplate, error) {
	tpl, err := scanTemplateRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func scanTemplateRow(row pgx.Row) (*EmailTemplate, error) {
	var tpl EmailTemplate
	var kind string
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&tpl.ID, &tpl.Name, &tpl.Code, &kind, &tpl.Subject, &tpl.BodyHTML,
		&tpl.IsActive, &tpl.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	tpl.Type = TemplateType(kind)
	if createdAt.Valid {
		tpl.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		tpl.UpdatedAt = &t
	}
	return &tpl, nil
}
