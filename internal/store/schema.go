package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS actions (
    action_id            TEXT PRIMARY KEY,
    kind                 TEXT NOT NULL,
    target               TEXT NOT NULL,
    label                TEXT,
    counter              INTEGER,
    multiplier           REAL,
    status               TEXT NOT NULL,
    error                TEXT,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id          INTEGER PRIMARY KEY AUTOINCREMENT,
    hours_back           INTEGER NOT NULL,
    fetched_at           TEXT NOT NULL,
    campaigns            INTEGER NOT NULL,
    adsets               INTEGER NOT NULL,
    payload              BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_actions_created ON actions(created_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_hours ON snapshots(hours_back, fetched_at);
`
