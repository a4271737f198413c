package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/facturio/facturio/internal/billing"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the SQL-backed stats source.
func NewRepository(pool *pgxpool.Pool) StatsSource {
	return &repository{pool: pool}
}

func (r *repository) CollectStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM clients WHERE is_active),
				(SELECT COUNT(*) FROM products WHERE is_active)
		`).Scan(&stats.Clients, &stats.Products)
	})

	g.Go(func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*),
				COUNT(*) FILTER (WHERE status = $1),
				COUNT(*) FILTER (WHERE status = $2),
				COUNT(*) FILTER (WHERE status = $3),
				COUNT(*) FILTER (WHERE status = $4),
				COUNT(*) FILTER (WHERE status = $5),
				COUNT(*) FILTER (WHERE status = $6)
			FROM proformas
		`,
			string(billing.ProformaStatusDraft), string(billing.ProformaStatusSent),
			string(billing.ProformaStatusAccepted), string(billing.ProformaStatusRefused),
			string(billing.ProformaStatusExpired), string(billing.ProformaStatusInvoiced),
		).Scan(&stats.Proformas.Total, &stats.Proformas.Draft, &stats.Proformas.Sent,
			&stats.Proformas.Accepted, &stats.Proformas.Refused, &stats.Proformas.Expired,
			&stats.Proformas.Invoiced)
	})

	g.Go(func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*),
				COUNT(*) FILTER (WHERE status = $1),
				COUNT(*) FILTER (WHERE status = $2),
				COUNT(*) FILTER (WHERE status = $3),
				COUNT(*) FILTER (WHERE status = $4),
				COUNT(*) FILTER (WHERE status = $5),
				COUNT(*) FILTER (WHERE status = $6),
				COALESCE(SUM(amount_paid) FILTER (WHERE status IN ($3, $4)), 0),
				COALESCE(SUM(total_ttc - amount_paid) FILTER (WHERE status IN ($2, $4, $5)), 0)
			FROM invoices
		`,
			string(billing.InvoiceStatusDraft), string(billing.InvoiceStatusSent),
			string(billing.InvoiceStatusPaid), string(billing.InvoiceStatusPartial),
			string(billing.InvoiceStatusOverdue), string(billing.InvoiceStatusCancelled),
		).Scan(&stats.Invoices.Total, &stats.Invoices.Draft, &stats.Invoices.Sent,
			&stats.Invoices.Paid, &stats.Invoices.Partial, &stats.Invoices.Overdue,
			&stats.Invoices.Cancelled, &stats.Invoices.TotalPaid, &stats.Invoices.TotalPending)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) MonthlyRevenue(ctx context.Context, months int) ([]MonthRevenue, error) {
	since := time.Now().AddDate(0, -months+1, 0)
	since = time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('month', paid_at) AS month, COALESCE(SUM(amount_paid), 0)
		FROM invoices
		WHERE status = $1 AND paid_at >= $2
		GROUP BY month
		ORDER BY month
	`, string(billing.InvoiceStatusPaid), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMonth := make(map[string]float64)
	for rows.Next() {
		var month time.Time
		var revenue float64
		if err := rows.Scan(&month, &revenue); err != nil {
			return nil, err
		}
		byMonth[month.Format("2006-01")] = revenue
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Emit a zero-filled point per month so charts stay continuous.
	series := make([]MonthRevenue, 0, months)
	for i := 0; i < months; i++ {
		month := since.AddDate(0, i, 0)
		series = append(series, MonthRevenue{
			Month:   month.Format("Jan"),
			Year:    month.Year(),
			Revenue: byMonth[month.Format("2006-01")],
		})
	}
	return series, nil
}
