package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Timestamps are Unix nanoseconds; amounts are decimal strings.
const schema = `
CREATE TABLE IF NOT EXISTS allowlist (
    email_lower TEXT PRIMARY KEY,
    role TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    label TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS months (
    month_key TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS month_counts (
    month_key TEXT NOT NULL,
    bucket TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (month_key, bucket),
    FOREIGN KEY (month_key) REFERENCES months(month_key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS counters (
    year INTEGER PRIMARY KEY,
    next_seq INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS queue_requests (
    id TEXT PRIMARY KEY,
    month_key TEXT NOT NULL,
    description TEXT NOT NULL,
    amount_czk TEXT NOT NULL,
    status TEXT NOT NULL,
    created_by_uid TEXT NOT NULL DEFAULT '',
    created_by_email TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    reviewed_by_email TEXT NOT NULL DEFAULT '',
    reviewed_at INTEGER
);

CREATE TABLE IF NOT EXISTS requests (
    id TEXT PRIMARY KEY,
    month_key TEXT NOT NULL,
    description TEXT NOT NULL,
    amount_czk TEXT NOT NULL,
    state TEXT NOT NULL,
    vs TEXT NOT NULL,
    seq_year INTEGER NOT NULL,
    seq_num INTEGER NOT NULL,
    editor_data TEXT NOT NULL DEFAULT '{}',
    created_by_uid TEXT NOT NULL DEFAULT '',
    created_by_email TEXT NOT NULL DEFAULT '',
    updated_by_uid TEXT NOT NULL DEFAULT '',
    updated_by_email TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (seq_year, seq_num)
);

CREATE TABLE IF NOT EXISTS attachments (
    request_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    storage_path TEXT NOT NULL,
    filename TEXT NOT NULL,
    mime TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    uploaded_by_uid TEXT NOT NULL DEFAULT '',
    uploaded_by_email TEXT NOT NULL DEFAULT '',
    uploaded_at INTEGER NOT NULL,
    kind TEXT NOT NULL,
    download_url TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (request_id, position),
    FOREIGN KEY (request_id) REFERENCES requests(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS audit (
    id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    actor_uid TEXT NOT NULL DEFAULT '',
    actor_email TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    target_type TEXT NOT NULL,
    target_id TEXT NOT NULL DEFAULT '',
    diff TEXT
);

CREATE TABLE IF NOT EXISTS oauth_states (
    state TEXT PRIMARY KEY,
    verifier TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_month ON requests(month_key, created_at);
CREATE INDEX IF NOT EXISTS idx_queue_month_status ON queue_requests(month_key, status, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit(ts);
CREATE INDEX IF NOT EXISTS idx_oauth_states_expires ON oauth_states(expires_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
