package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the evidence tables. Action type and flag lists are stored
// as JSON arrays.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    scenario_id TEXT NOT NULL,
    hash TEXT NOT NULL,
    engine_version TEXT NOT NULL,

    allowed_actions TEXT NOT NULL,
    blocked_actions TEXT NOT NULL,
    escalation_flags TEXT NOT NULL,
    critical_load_at_risk BOOLEAN NOT NULL,

    etr_band TEXT NOT NULL,
    etr_confidence REAL NOT NULL,
    warning_count INTEGER NOT NULL,

    cache_hit BOOLEAN NOT NULL,
    source TEXT NOT NULL,
    duration_us INTEGER NOT NULL,

    evaluated_at TIMESTAMP NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_evaluated_at ON evidence(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_evidence_scenario_id ON evidence(scenario_id);
CREATE INDEX IF NOT EXISTS idx_evidence_hash ON evidence(hash);
CREATE INDEX IF NOT EXISTS idx_evidence_etr_band ON evidence(etr_band);
CREATE INDEX IF NOT EXISTS idx_evidence_request_id ON evidence(request_id);
`

// InsertSchemaVersion records a schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertEvidence = `
INSERT INTO evidence (
    id, request_id,
    scenario_id, hash, engine_version,
    allowed_actions, blocked_actions, escalation_flags, critical_load_at_risk,
    etr_band, etr_confidence, warning_count,
    cache_hit, source, duration_us,
    evaluated_at, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `id, request_id,
    scenario_id, hash, engine_version,
    allowed_actions, blocked_actions, escalation_flags, critical_load_at_risk,
    etr_band, etr_confidence, warning_count,
    cache_hit, source, duration_us,
    evaluated_at, recorded_at`
