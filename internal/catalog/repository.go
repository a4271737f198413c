package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/sequence"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
	Create(ctx context.Context, product Product) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Deactivate(ctx context.Context, id int64) error
	GenerateCode(ctx context.Context, productType ProductType) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = `id, code, name, type, description, characteristics, unit_price, unit,
	version, license_type, license_duration, max_users,
	brand, model, warranty_months, duration_hours,
	is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code)
	return scanProduct(row)
}

func (r *repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}
	if req.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, string(*req.Type))
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT "+productColumns+" FROM products %s ORDER BY name, id LIMIT $%d OFFSET $%d",
		whereClause, argPos, argPos+1,
	)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (code, name, type, description, characteristics, unit_price, unit,
			version, license_type, license_duration, max_users,
			brand, model, warranty_months, duration_hours,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id
	`, p.Code, p.Name, string(p.Type), p.Description, p.Characteristics, p.UnitPrice, p.Unit,
		p.Version, p.LicenseType, p.LicenseDuration, p.MaxUsers,
		p.Brand, p.Model, p.WarrantyMonths, p.DurationHours,
		p.IsActive).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE products SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	columns := []string{
		"name", "description", "characteristics", "unit_price", "unit",
		"version", "license_type", "license_duration", "max_users",
		"brand", "model", "warranty_months", "duration_hours", "is_active",
	}
	for _, column := range columns {
		if v, ok := updates[column]; ok {
			query += fmt.Sprintf(", %s = $%d", column, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

// Deactivate soft-disables a product; historical document lines keep their
// snapshot of the designation and price, so hard deletion is never needed.
func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

// GenerateCode issues the next PRDLOG001 style code for the product type.
func (r *repository) GenerateCode(ctx context.Context, productType ProductType) (string, error) {
	prefix := productType.CodePrefix()
	kind := sequence.Kind("PRODUCT_" + string(productType))
	return sequence.Next(ctx, r.db, kind, sequence.Format{Prefix: prefix, Width: 3}, time.Now())
}

func scanProduct(row pgx.Row) (*Product, error) {
	p, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProductRow(row pgx.Row) (*Product, error) {
	var p Product
	var typ string
	var description, characteristics, unit, version, licenseType, brand, model pgtype.Text
	var licenseDuration, maxUsers, warrantyMonths, durationHours pgtype.Int4
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &typ, &description, &characteristics, &p.UnitPrice, &unit,
		&version, &licenseType, &licenseDuration, &maxUsers,
		&brand, &model, &warrantyMonths, &durationHours,
		&p.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = ProductType(typ)
	p.Description = textPtr(description)
	p.Characteristics = textPtr(characteristics)
	p.Unit = textPtr(unit)
	p.Version = textPtr(version)
	p.LicenseType = textPtr(licenseType)
	p.Brand = textPtr(brand)
	p.Model = textPtr(model)
	p.LicenseDuration = intPtr(licenseDuration)
	p.MaxUsers = intPtr(maxUsers)
	p.WarrantyMonths = intPtr(warrantyMonths)
	p.DurationHours = intPtr(durationHours)
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}

func intPtr(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	val := int(i.Int32)
	return &val
}
