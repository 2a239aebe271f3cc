package db

const postgresSchema = `
CREATE TABLE IF NOT EXISTS service_orders (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    total_value TEXT,
    status TEXT NOT NULL DEFAULT '',
    business_unit_type TEXT NOT NULL DEFAULT '',
    supplier TEXT NOT NULL DEFAULT '',
    supplier_document TEXT NOT NULL DEFAULT '',
    client TEXT NOT NULL DEFAULT '',
    regional TEXT NOT NULL DEFAULT '',
    branch TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS agents (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT '',
    band_key TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    status TEXT NOT NULL,
    filter TEXT NOT NULL DEFAULT '{}',
    summary TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// created_at and run timestamps are stored as fixed-width UTC text so that
// lexical order matches time order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS service_orders (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    total_value TEXT,
    status TEXT NOT NULL DEFAULT '',
    business_unit_type TEXT NOT NULL DEFAULT '',
    supplier TEXT NOT NULL DEFAULT '',
    supplier_document TEXT NOT NULL DEFAULT '',
    client TEXT NOT NULL DEFAULT '',
    regional TEXT NOT NULL DEFAULT '',
    branch TEXT NOT NULL DEFAULT '',
    created_at TEXT
);

CREATE TABLE IF NOT EXISTS agents (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT '',
    band_key TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    status TEXT NOT NULL,
    filter TEXT NOT NULL DEFAULT '{}',
    summary TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
