// Package export defines the outbound mirror for ledger transactions. The
// ledger stays the source of truth; targets receive an append-only feed,
// with retractions mirrored as VOID rows.
package export

import (
	"context"

	"budgetwise/internal/core"
)

// Row is one exported ledger entry. Voided transactions are exported with
// Status "VOID" rather than removed, keeping the target append-only.
type Row struct {
	Transaction core.Transaction
	Status      string // "ACTIVE" or "VOID"
}

// TransactionWriter appends rows to an export target and returns an opaque
// row reference for logging.
type TransactionWriter interface {
	Append(ctx context.Context, row Row) (rowRef string, err error)
}

const (
	StatusActive = "ACTIVE"
	StatusVoid   = "VOID"
)
