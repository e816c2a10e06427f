package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs functions inside a database transaction. Saves and
// publishes depend on it so a reader never observes a page row without its
// sections, nor a publish with zero published rows mid-flight.
type TransactionManager interface {
	// ExecTx executes fn within a transaction, committing on nil return
	// and rolling back otherwise.
	ExecTx(ctx context.Context, fn TxFn) error
}
