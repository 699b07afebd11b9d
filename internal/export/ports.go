package export

import (
	"context"

	"finpulse/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter appends transaction rows to an external ledger.
	LedgerWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// LedgerTombstoner records a deletion marker for a transaction that
	// was already exported.
	LedgerTombstoner interface {
		AppendTombstone(ctx context.Context, transactionID, userID string) error
	}
)
