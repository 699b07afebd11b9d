// Package memory is an in-process ledger used in development and tests,
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finpulse/internal/core"
)

type Ledger struct {
	mu         sync.Mutex
	rows       []core.Transaction
	tombstones []string
}

func New() *Ledger {
	return &Ledger{}
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, tx)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// AppendTombstone records a deletion marker.
func (l *Ledger) AppendTombstone(_ context.Context, transactionID, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tombstones = append(l.tombstones, transactionID)
	return nil
}

// Rows returns a copy of the appended transactions.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.rows...)
}

// Tombstones returns a copy of the recorded deletion markers.
func (l *Ledger) Tombstones() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.tombstones...)
}
