package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/platform/db"
	"github.com/facturio/facturio/internal/sequence"
)

// Repository provides read access plus transactional writes for both
// document kinds. Proformas and invoices share the line item table, so a
// single repository keeps conversion atomic.
type Repository interface {
	GetProforma(ctx context.Context, id int64) (*billing.Proforma, error)
	GetProformaByReference(ctx context.Context, reference string) (*billing.Proforma, error)
	ListProformas(ctx context.Context, req ListProformasRequest) ([]billing.Proforma, int, error)
	ListExpiryCandidates(ctx context.Context, at time.Time) ([]int64, error)

	GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error)
	GetInvoiceByReference(ctx context.Context, reference string) (*billing.Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]billing.Invoice, int, error)
	ListOverdueCandidates(ctx context.Context, at time.Time) ([]int64, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the write operations available inside a transaction.
type TxRepository interface {
	AllocateReference(ctx context.Context, kind sequence.Kind, f sequence.Format, at time.Time) (string, error)

	GetProformaForUpdate(ctx context.Context, id int64) (*billing.Proforma, error)
	InsertProforma(ctx context.Context, p *billing.Proforma) (int64, error)
	UpdateProforma(ctx context.Context, p *billing.Proforma) error
	DeleteProforma(ctx context.Context, id int64) error
	ReplaceProformaItems(ctx context.Context, proformaID int64, items []*billing.LineItem) error

	GetInvoiceForUpdate(ctx context.Context, id int64) (*billing.Invoice, error)
	InsertInvoice(ctx context.Context, inv *billing.Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, inv *billing.Invoice) error
	DeleteInvoice(ctx context.Context, id int64) error
	ReplaceInvoiceItems(ctx context.Context, invoiceID int64, items []*billing.LineItem) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", billing.ErrDuplicateReference, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", billing.ErrDuplicateReference, err)
		}
		return err
	}
	return nil
}

type txRepo struct {
	tx pgx.Tx
}

// ============================================================================
// PROFORMA READS
// ============================================================================

const proformaColumns = `id, reference, client_id, status, issue_date, valid_until, tax_rate,
	total_ht, total_tva, total_ttc, object, notes, conditions, invoice_id,
	created_by, created_at, updated_at`

func (r *repository) GetProforma(ctx context.Context, id int64) (*billing.Proforma, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+proformaColumns+` FROM proformas WHERE id = $1`, id)
	p, err := scanProforma(row)
	if err != nil {
		return nil, err
	}
	p.Items, err = loadItems(ctx, r.pool, "proforma_id", p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) GetProformaByReference(ctx context.Context, reference string) (*billing.Proforma, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+proformaColumns+` FROM proformas WHERE reference = $1`, reference)
	p, err := scanProforma(row)
	if err != nil {
		return nil, err
	}
	p.Items, err = loadItems(ctx, r.pool, "proforma_id", p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) ListProformas(ctx context.Context, req ListProformasRequest) ([]billing.Proforma, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(reference ILIKE $%d OR object ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM proformas "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT "+proformaColumns+" FROM proformas %s ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d",
		whereClause, argPos, argPos+1,
	)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []billing.Proforma
	for rows.Next() {
		p, err := scanProformaRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	return result, total, rows.Err()
}

// ListExpiryCandidates returns sent proformas whose validity window passed.
func (r *repository) ListExpiryCandidates(ctx context.Context, at time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM proformas
		WHERE status = $1 AND valid_until < $2
		ORDER BY id
	`, string(billing.ProformaStatusSent), at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// ============================================================================
// INVOICE READS
// ============================================================================

const invoiceColumns = `id, reference, client_id, status, issue_date, due_date, tax_rate,
	total_ht, total_tva, total_ttc, amount_paid, paid_at, payment_method, payment_reference,
	object, notes, conditions, proforma_id, created_by, created_at, updated_at`

func (r *repository) GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	inv.Items, err = loadItems(ctx, r.pool, "invoice_id", inv.ID)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) GetInvoiceByReference(ctx context.Context, reference string) (*billing.Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE reference = $1`, reference)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	inv.Items, err = loadItems(ctx, r.pool, "invoice_id", inv.ID)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]billing.Invoice, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(reference ILIKE $%d OR object ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT "+invoiceColumns+" FROM invoices %s ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d",
		whereClause, argPos, argPos+1,
	)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []billing.Invoice
	for rows.Next() {
		inv, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *inv)
	}
	return result, total, rows.Err()
}

// ListOverdueCandidates returns sent or partially paid invoices past due.
func (r *repository) ListOverdueCandidates(ctx context.Context, at time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM invoices
		WHERE status IN ($1, $2) AND due_date < $3
		ORDER BY id
	`, string(billing.InvoiceStatusSent), string(billing.InvoiceStatusPartial), at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// ============================================================================
// TRANSACTIONAL WRITES
// ============================================================================

func (t *txRepo) AllocateReference(ctx context.Context, kind sequence.Kind, f sequence.Format, at time.Time) (string, error) {
	return sequence.Next(ctx, t.tx, kind, f, at)
}

func (t *txRepo) GetProformaForUpdate(ctx context.Context, id int64) (*billing.Proforma, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+proformaColumns+` FROM proformas WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProforma(row)
	if err != nil {
		return nil, err
	}
	p.Items, err = loadItems(ctx, t.tx, "proforma_id", p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (t *txRepo) InsertProforma(ctx context.Context, p *billing.Proforma) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO proformas (reference, client_id, status, issue_date, valid_until, tax_rate,
			total_ht, total_tva, total_ttc, object, notes, conditions, invoice_id,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id
	`, p.Reference, p.ClientID, string(p.Status), p.IssueDate, p.ValidUntil, p.TaxRate,
		p.TotalHT, p.TotalTVA, p.TotalTTC, p.Object, p.Notes, p.Conditions, p.InvoiceID,
		p.CreatedBy).Scan(&id)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (t *txRepo) UpdateProforma(ctx context.Context, p *billing.Proforma) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE proformas SET
			reference = $2, client_id = $3, status = $4, issue_date = $5, valid_until = $6,
			tax_rate = $7, total_ht = $8, total_tva = $9, total_ttc = $10,
			object = $11, notes = $12, conditions = $13, invoice_id = $14, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Reference, p.ClientID, string(p.Status), p.IssueDate, p.ValidUntil,
		p.TaxRate, p.TotalHT, p.TotalTVA, p.TotalTTC,
		p.Object, p.Notes, p.Conditions, p.InvoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteProforma(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM document_items WHERE proforma_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM proformas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (t *txRepo) ReplaceProformaItems(ctx context.Context, proformaID int64, items []*billing.LineItem) error {
	return replaceItems(ctx, t.tx, "proforma_id", proformaID, items)
}

func (t *txRepo) GetInvoiceForUpdate(ctx context.Context, id int64) (*billing.Invoice, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	inv.Items, err = loadItems(ctx, t.tx, "invoice_id", inv.ID)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv *billing.Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoices (reference, client_id, status, issue_date, due_date, tax_rate,
			total_ht, total_tva, total_ttc, amount_paid, paid_at, payment_method, payment_reference,
			object, notes, conditions, proforma_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		RETURNING id
	`, inv.Reference, inv.ClientID, string(inv.Status), inv.IssueDate, inv.DueDate, inv.TaxRate,
		inv.TotalHT, inv.TotalTVA, inv.TotalTTC, inv.AmountPaid, inv.PaidAt, inv.PaymentMethod, inv.PaymentReference,
		inv.Object, inv.Notes, inv.Conditions, inv.ProformaID, inv.CreatedBy).Scan(&id)
	if err != nil {
		return 0, err
	}
	inv.ID = id
	return id, nil
}

func (t *txRepo) UpdateInvoice(ctx context.Context, inv *billing.Invoice) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE invoices SET
			reference = $2, client_id = $3, status = $4, issue_date = $5, due_date = $6,
			tax_rate = $7, total_ht = $8, total_tva = $9, total_ttc = $10,
			amount_paid = $11, paid_at = $12, payment_method = $13, payment_reference = $14,
			object = $15, notes = $16, conditions = $17, proforma_id = $18, updated_at = NOW()
		WHERE id = $1
	`, inv.ID, inv.Reference, inv.ClientID, string(inv.Status), inv.IssueDate, inv.DueDate,
		inv.TaxRate, inv.TotalHT, inv.TotalTVA, inv.TotalTTC,
		inv.AmountPaid, inv.PaidAt, inv.PaymentMethod, inv.PaymentReference,
		inv.Object, inv.Notes, inv.Conditions, inv.ProformaID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteInvoice(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM document_items WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrNotFound
	}
	return nil
}

func (t *txRepo) ReplaceInvoiceItems(ctx context.Context, invoiceID int64, items []*billing.LineItem) error {
	return replaceItems(ctx, t.tx, "invoice_id", invoiceID, items)
}

// ============================================================================
// ROW MAPPING
// ============================================================================

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const itemColumns = `id, product_id, designation, description, quantity, unit, unit_price, discount, total, sort_order, created_at, updated_at`

func loadItems(ctx context.Context, q pgxQuerier, fkColumn string, documentID int64) ([]*billing.LineItem, error) {
	rows, err := q.Query(ctx,
		`SELECT `+itemColumns+` FROM document_items WHERE `+fkColumn+` = $1 ORDER BY sort_order, id`,
		documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*billing.LineItem
	for rows.Next() {
		var item billing.LineItem
		var productID pgtype.Int8
		var description, unit pgtype.Text
		var createdAt, updatedAt pgtype.Timestamptz
		err := rows.Scan(&item.ID, &productID, &item.Designation, &description, &item.Quantity,
			&unit, &item.UnitPrice, &item.Discount, &item.Total, &item.SortOrder, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		if productID.Valid {
			val := productID.Int64
			item.ProductID = &val
		}
		if description.Valid {
			val := description.String
			item.Description = &val
		}
		if unit.Valid {
			val := unit.String
			item.Unit = &val
		}
		if createdAt.Valid {
			item.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			item.UpdatedAt = updatedAt.Time
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func replaceItems(ctx context.Context, tx pgx.Tx, fkColumn string, documentID int64, items []*billing.LineItem) error {
	if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE `+fkColumn+` = $1`, documentID); err != nil {
		return err
	}
	for idx, item := range items {
		item.SortOrder = idx
		err := tx.QueryRow(ctx, `
			INSERT INTO document_items (`+fkColumn+`, product_id, designation, description, quantity, unit, unit_price, discount, total, sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			RETURNING id
		`, documentID, item.ProductID, item.Designation, item.Description, item.Quantity,
			item.Unit, item.UnitPrice, item.Discount, item.Total, item.SortOrder).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanProforma(row pgx.Row) (*billing.Proforma, error) {
	p, err := scanProformaRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProformaRow(row pgx.Row) (*billing.Proforma, error) {
	var p billing.Proforma
	var status string
	var object, notes, conditions pgtype.Text
	var invoiceID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&p.ID, &p.Reference, &p.ClientID, &status, &p.IssueDate, &p.ValidUntil,
		&p.TaxRate, &p.TotalHT, &p.TotalTVA, &p.TotalTTC,
		&object, &notes, &conditions, &invoiceID, &p.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Status = billing.ProformaStatus(status)
	p.Object = docTextPtr(object)
	p.Notes = docTextPtr(notes)
	p.Conditions = docTextPtr(conditions)
	if invoiceID.Valid {
		val := invoiceID.Int64
		p.InvoiceID = &val
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

func scanInvoice(row pgx.Row) (*billing.Invoice, error) {
	inv, err := scanInvoiceRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func scanInvoiceRow(row pgx.Row) (*billing.Invoice, error) {
	var inv billing.Invoice
	var status string
	var paidAt pgtype.Timestamptz
	var paymentMethod, paymentReference, object, notes, conditions pgtype.Text
	var proformaID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&inv.ID, &inv.Reference, &inv.ClientID, &status, &inv.IssueDate, &inv.DueDate,
		&inv.TaxRate, &inv.TotalHT, &inv.TotalTVA, &inv.TotalTTC,
		&inv.AmountPaid, &paidAt, &paymentMethod, &paymentReference,
		&object, &notes, &conditions, &proformaID, &inv.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	inv.Status = billing.InvoiceStatus(status)
	inv.PaymentMethod = docTextPtr(paymentMethod)
	inv.PaymentReference = docTextPtr(paymentReference)
	inv.Object = docTextPtr(object)
	inv.Notes = docTextPtr(notes)
	inv.Conditions = docTextPtr(conditions)
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	if proformaID.Valid {
		val := proformaID.Int64
		inv.ProformaID = &val
	}
	if createdAt.Valid {
		inv.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		inv.UpdatedAt = updatedAt.Time
	}
	return &inv, nil
}

func collectIDs(rows pgx.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func docTextPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}
