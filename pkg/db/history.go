package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Operation names the repository operation that produced a write.
type Operation string

const (
	OpRegisterDebtor    Operation = "register_debtor"
	OpAddInstallment    Operation = "add_installment"
	OpRemoveDebtor      Operation = "remove_debtor"
	OpRemoveInstallment Operation = "remove_installment"
	OpReconcile         Operation = "reconcile"
	OpRestore           Operation = "restore"
)

// MetadataLastRevision holds the revision of the most recent recorded write.
const MetadataLastRevision = "last_revision"

// Entry represents one committed document write.
type Entry struct {
	ID           int64
	OpID         string
	Operation    Operation
	Debtor       string
	Revision     string
	Debtors      int
	Installments int
	RecordedAt   time.Time
}

// History manages write history records.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// Record stores an entry and updates the last revision in one transaction.
// Recording the same OpID twice is an error.
func (h *History) Record(ctx context.Context, e Entry) error {
	if e.OpID == "" {
		return errors.New("entry has no operation ID")
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	return h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO write_history (op_id, operation, debtor, revision, debtors, installments, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			e.OpID,
			string(e.Operation),
			e.Debtor,
			e.Revision,
			e.Debtors,
			e.Installments,
			e.RecordedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to record write: %w", err)
		}

		if err := setMetadata(ctx, tx, MetadataLastRevision, e.Revision); err != nil {
			return err
		}
		return nil
	})
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.conn.QueryContext(ctx, `
		SELECT id, op_id, operation, debtor, revision, debtors, installments, recorded_at
		FROM write_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get write history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			operation  string
			recordedAt string
		)

		if err := rows.Scan(
			&e.ID,
			&e.OpID,
			&operation,
			&e.Debtor,
			&e.Revision,
			&e.Debtors,
			&e.Installments,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan write history: %w", err)
		}

		e.Operation = Operation(operation)
		e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at %q: %w", recordedAt, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Stats represents write history statistics.
type Stats struct {
	TotalWrites  int
	ByOperation  map[Operation]int
	LastWrite    sql.NullString
	LastRevision string
}

// GetStats retrieves write history statistics.
func (h *History) GetStats(ctx context.Context) (*Stats, error) {
	stats := Stats{ByOperation: make(map[Operation]int)}

	rows, err := h.conn.QueryContext(ctx, `SELECT operation, COUNT(*) FROM write_history GROUP BY operation`)
	if err != nil {
		return nil, fmt.Errorf("failed to count writes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			operation string
			count     int
		)
		if err := rows.Scan(&operation, &count); err != nil {
			return nil, fmt.Errorf("failed to scan write count: %w", err)
		}
		stats.ByOperation[Operation(operation)] = count
		stats.TotalWrites += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = h.conn.QueryRowContext(ctx, `SELECT MAX(recorded_at) FROM write_history`).Scan(&stats.LastWrite)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last write time: %w", err)
	}

	stats.LastRevision, err = h.GetMetadata(ctx, MetadataLastRevision)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value. A missing key yields "".
func (h *History) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := h.conn.QueryRowContext(ctx, `SELECT value FROM history_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(ctx context.Context, key, value string) error {
	return h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		return setMetadata(ctx, tx, key, value)
	})
}

func setMetadata(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO history_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}
