package backend

import (
	"context"

	"copilote/internal/export"
	"copilote/internal/ledger"
	"copilote/internal/rules"
	"copilote/internal/services"
)

// Store is the unified persistence surface a backend must provide: the rule
// table, the transaction ledger, and the sync bookkeeping for the export
// worker.
type Store interface {
	rules.Repo
	ledger.Repo
	export.SyncQueue

	Close() error
}

// Result contains the store, the optional sync publisher (nil when AMQP is
// not configured), and a cleanup function to run on shutdown.
type Result struct {
	Store     Store
	Publisher services.SyncPublisher
	Cleanup   func() error
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}
