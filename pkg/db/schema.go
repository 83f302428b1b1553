// Package db provides SQLite storage for the local write history of the
// debtor document.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Write history table
-- One row per committed document write
CREATE TABLE IF NOT EXISTS write_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    op_id TEXT NOT NULL UNIQUE,        -- uuid of the repository operation
    operation TEXT NOT NULL,           -- 'register_debtor', 'reconcile', ...
    debtor TEXT NOT NULL DEFAULT '',   -- affected debtor, empty for bulk operations
    revision TEXT NOT NULL,            -- sha256 of the written document
    debtors INTEGER NOT NULL,          -- debtor count after the write
    installments INTEGER NOT NULL,     -- installment count after the write
    recorded_at TEXT NOT NULL          -- RFC 3339, UTC
);

CREATE INDEX IF NOT EXISTS idx_write_history_operation
    ON write_history(operation);

CREATE INDEX IF NOT EXISTS idx_write_history_debtor
    ON write_history(debtor);

-- History metadata table
CREATE TABLE IF NOT EXISTS history_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
