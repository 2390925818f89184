package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn within a storage transaction, passing the
// underlying handle via tx.
//
// Repository methods accept tx and, when it is a live transaction, lock the rows
// they read (SELECT ... FOR UPDATE). A nil tx means the non-transactional path.
// The concrete type of tx is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
