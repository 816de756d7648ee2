package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartRetentionCleaner periodically removes one-time passcodes that expired
// more than retention ago and session rows past their expiry. Expiry of a
// passcode is enforced at verification time; this only bounds table growth.
func StartRetentionCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now()
				purge(ctx, db, log, "otp_codes",
					`DELETE FROM otp_codes WHERE expires_at < $1`, now.Add(-retention))
				purge(ctx, db, log, "sessions",
					`DELETE FROM sessions WHERE expire < $1`, now)
			}
		}
	}()
}

func purge(ctx context.Context, db *sql.DB, log *zap.Logger, table, query string, cutoff time.Time) {
	res, err := db.ExecContext(ctx, query, cutoff)
	if err != nil {
		log.Error("failed to purge expired rows", zap.String("table", table), zap.Error(err))
		return
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		log.Info("purged expired rows", zap.String("table", table), zap.Int64("removed", rows))
	}
}
