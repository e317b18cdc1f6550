package services

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/safatanc/travel-checkout/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// isRetryableTxError reports whether Postgres aborted the transaction
// because of a conflict with a concurrent one.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return true
		}
	}
	return false
}

// runInTx executes fn in a single transaction and replays the whole
// transaction when it lost a serialization conflict. Errors returned by fn
// roll back every write of the attempt.
func runInTx(ctx context.Context, db *gorm.DB, attempts uint, fn func(tx *gorm.DB) error) error {
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			return db.WithContext(ctx).Transaction(fn)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(20*time.Millisecond),
		retry.MaxDelay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryableTxError),
		retry.OnRetry(func(n uint, err error) {
			metrics.TxRetries.Inc()
			logrus.WithError(err).WithField("attempt", n+1).Warn("retrying checkout transaction")
		}),
	)
}
