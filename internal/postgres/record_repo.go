package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/enedis-gateway/metering"
)

var _ metering.Repo = (*RecordRepo)(nil)

// RecordRepo stores readings in the metering_records table.
type RecordRepo struct {
	pool *pgxpool.Pool
}

func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

var recordCopyColumns = []string{"user_id", "type", "timestamp", "value", "unit", "usage_point_id"}

// InsertBatch bulk loads the records with COPY.
func (r *RecordRepo) InsertBatch(ctx context.Context, records []metering.Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"metering_records"},
		recordCopyColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{rec.UserID, rec.Type, rec.Timestamp, rec.Value, rec.Unit, rec.UsagePointID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("[RecordRepo InsertBatch] %w", err)
	}
	return nil
}

func (r *RecordRepo) ListByUserAndType(ctx context.Context, userID, recordType string) ([]metering.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, "timestamp", value, unit, usage_point_id
		FROM metering_records
		WHERE user_id = $1 AND type = $2
		ORDER BY "timestamp" ASC, id ASC`,
		userID, recordType,
	)
	if err != nil {
		return nil, fmt.Errorf("[RecordRepo ListByUserAndType] %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (metering.Record, error) {
		var rec metering.Record
		err := row.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Timestamp, &rec.Value, &rec.Unit, &rec.UsagePointID)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("[RecordRepo ListByUserAndType] %w", err)
	}
	return records, nil
}

func (r *RecordRepo) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM metering_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("[RecordRepo DeleteForUser] %w", err)
	}
	return tag.RowsAffected(), nil
}
