// Package sheets defines the ports for the ledger mirror: a one-way,
// append-only copy of the transaction log kept outside the device. Nothing
// is ever read back into the application from the mirror.
package sheets

import (
	"context"

	"github.com/coojiin/credit-card-helper/internal/core"
)

// LedgerWriter appends one transaction row to the mirror and returns an
// implementation-specific reference to the written row.
type LedgerWriter interface {
	Append(ctx context.Context, tx core.Transaction, cardName string) (string, error)
}
