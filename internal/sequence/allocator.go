// Package sequence issues unique human-readable document references from a
// Postgres-backed counter table. Allocation is a single atomic upsert so
// concurrent writers never compute the same next value; a stale collision
// with a pre-existing reference still surfaces through the unique constraint
// on the reference column at persistence time.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Kind scopes a counter. Document kinds are fixed; catalog code kinds are
// derived from the product type prefix.
type Kind string

const (
	KindProforma Kind = "PROFORMA"
	KindInvoice  Kind = "INVOICE"
	KindClient   Kind = "CLIENT"
)

// Format describes how a reference is rendered.
// Yearly references look like FAC20260001 (prefix, year, fixed-width
// sequence); non-yearly ones like PRDLOG001.
type Format struct {
	Prefix string
	Yearly bool
	Width  int
	Start  int
}

// Querier is the subset of pgx used by the allocator, satisfied by both a
// pool and a transaction so allocation can join the caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Next returns the next reference for the kind, incrementing the scoped
// counter atomically.
func Next(ctx context.Context, q Querier, kind Kind, f Format, at time.Time) (string, error) {
	period := ""
	if f.Yearly {
		period = at.Format("2006")
	}

	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, string(kind), period).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("sequence: next %s: %w", kind, err)
	}

	return Render(f, period, seq), nil
}

// Render formats a reference from a raw counter value. The configured start
// number offsets the counter so the first issued reference carries it.
func Render(f Format, period string, seq int64) string {
	width := f.Width
	if width <= 0 {
		width = 4
	}
	number := seq
	if f.Start > 1 {
		number = seq + int64(f.Start) - 1
	}
	return fmt.Sprintf("%s%s%0*d", f.Prefix, period, width, number)
}
