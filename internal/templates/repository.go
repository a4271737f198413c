package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturio/facturio/internal/billing"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Template, error)
	List(ctx context.Context, req ListTemplatesRequest) ([]Template, int, error)
	Create(ctx context.Context, tpl *Template) error
	Update(ctx context.Context, tpl *Template) error
	Delete(ctx context.Context, id int64) error
	IncrementUsage(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const templateColumns = `id, name, code, description, category, base_price,
	default_object, default_notes, default_conditions, validity_days,
	is_active, usage_count, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM proforma_templates WHERE id = $1`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		return nil, err
	}
	tpl.Items, err = r.loadItems(ctx, tpl.ID)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *repository) List(ctx context.Context, req ListTemplatesRequest) ([]Template, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, string(*req.Category))
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM proforma_templates "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT "+templateColumns+" FROM proforma_templates %s ORDER BY usage_count DESC, name LIMIT $%d OFFSET $%d",
		whereClause, argPos, argPos+1,
	)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Template
	for rows.Next() {
		tpl, err := scanTemplateRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *tpl)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, tpl *Template) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO proforma_templates (name, code, description, category, base_price,
			default_object, default_notes, default_conditions, validity_days,
			is_active, usage_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, NOW(), NOW())
		RETURNING id
	`, tpl.Name, tpl.Code, tpl.Description, string(tpl.Category), tpl.BasePrice,
		tpl.DefaultObject, tpl.DefaultNotes, tpl.DefaultConditions, tpl.ValidityDays,
		tpl.IsActive, tpl.CreatedBy).Scan(&tpl.ID)
	if err != nil {
		return err
	}

	if err := insertItems(ctx, tx, tpl.ID, tpl.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) Update(ctx context.Context, tpl *Template) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE proforma_templates SET
			name = $2, code = $3, description = $4, category = $5, base_price = $6,
			default_object = $7, default_notes = $8, default_conditions = $9,
			validity_days = $10, is_active = $11, updated_at = NOW()
		WHERE id = $1
	`, tpl.ID, tpl.Name, tpl.Code, tpl.Description, string(tpl.Category), tpl.BasePrice,
		tpl.DefaultObject, tpl.DefaultNotes, tpl.DefaultConditions,
		tpl.ValidityDays, tpl.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM template_items WHERE template_id = $1`, tpl.ID); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, tpl.ID, tpl.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM template_items WHERE template_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM proforma_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *repository) IncrementUsage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE proforma_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (r *repository) loadItems(ctx context.Context, templateID int64) ([]TemplateItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template_id, product_id, designation, description, quantity, unit, unit_price, discount, sort_order, is_optional
		FROM template_items WHERE template_id = $1 ORDER BY sort_order, id
	`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TemplateItem
	for rows.Next() {
		var item TemplateItem
		var productID pgtype.Int8
		var description, unit pgtype.Text
		err := rows.Scan(&item.ID, &item.TemplateID, &productID, &item.Designation, &description,
			&item.Quantity, &unit, &item.UnitPrice, &item.Discount, &item.SortOrder, &item.IsOptional)
		if err != nil {
			return nil, err
		}
		if productID.Valid {
			val := productID.Int64
			item.ProductID = &val
		}
		item.Description = textPtr(description)
		item.Unit = textPtr(unit)
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, templateID int64, items []TemplateItem) error {
	for idx := range items {
		item := &items[idx]
		item.TemplateID = templateID
		item.SortOrder = idx
		err := tx.QueryRow(ctx, `
			INSERT INTO template_items (template_id, product_id, designation, description, quantity, unit, unit_price, discount, sort_order, is_optional)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, templateID, item.ProductID, item.Designation, item.Description, item.Quantity,
			item.Unit, item.UnitPrice, item.Discount, item.SortOrder, item.IsOptional).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanTemplate(row pgx.Row) (*Template, error) {
	tpl, err := scanTemplateRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func scanTemplateRow(row pgx.Row) (*Template, error) {
	var tpl Template
	var category string
	var code, description, defaultObject, defaultNotes, defaultConditions pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&tpl.ID, &tpl.Name, &code, &description, &category, &tpl.BasePrice,
		&defaultObject, &defaultNotes, &defaultConditions, &tpl.ValidityDays,
		&tpl.IsActive, &tpl.UsageCount, &tpl.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	tpl.Category = Category(category)
	tpl.Code = textPtr(code)
	tpl.Description = textPtr(description)
	tpl.DefaultObject = textPtr(defaultObject)
	tpl.DefaultNotes = textPtr(defaultNotes)
	tpl.DefaultConditions = textPtr(defaultConditions)
	if createdAt.Valid {
		tpl.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		tpl.UpdatedAt = &t
	}
	return &tpl, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}
