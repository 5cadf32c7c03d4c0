package slooze

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// TxFunc runs inside a transaction. tx is bound to the transaction and must be used
// for every query that should commit or roll back with it.
type TxFunc func(ctx context.Context, tx dbkit.IDB) error

// Transaction executes fn within a database transaction with automatic commit/rollback.
// When the store is already bound to a transaction, a savepoint is used instead.
//
// Example:
//
//	err := store.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
//	    if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
//	        return err // rolls back
//	    }
//	    return nil // commits
//	})
func (s *BunStore) Transaction(ctx context.Context, fn TxFunc) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	default:
		err = fmt.Errorf("%w: transaction support requires a dbkit.DBKit or dbkit.Tx instance", ErrDatabaseError)
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil || isDomainError(err))
	return err
}

// TransactionWithOptions executes fn within a transaction using custom options such as
// isolation level or read-only mode. Nested calls fall back to a savepoint and ignore opts.
//
// Example:
//
//	err := store.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), fn)
func (s *BunStore) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn TxFunc) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	case *dbkit.DBKit:
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	default:
		err = fmt.Errorf("%w: transaction support requires a dbkit.DBKit or dbkit.Tx instance", ErrDatabaseError)
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil || isDomainError(err))
	return err
}

// ReadOnlyTransaction executes fn within a read-only transaction, giving every query
// in fn the same snapshot.
func (s *BunStore) ReadOnlyTransaction(ctx context.Context, fn TxFunc) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// isDomainError reports whether err is a business rejection rather than a database failure.
// Rejected transitions roll back but do not count against transaction health.
func isDomainError(err error) bool {
	return KindOf(err) != KindInternal
}
