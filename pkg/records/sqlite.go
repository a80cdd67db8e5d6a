package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"mercator-hq/stormwatch/pkg/config"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
    id TEXT PRIMARY KEY,
    scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scenarios_created ON scenarios(created_at, id);
CREATE INDEX IF NOT EXISTS idx_assets_scenario ON assets(scenario_id, created_at, id);
`

// SQLiteStore implements Store on the pure-Go modernc.org/sqlite driver.
// Timestamps are stored as Unix milliseconds.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the database at cfg.Path and creates the schema.
func NewSQLiteStore(cfg *config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("records storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "records.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create records directory: %w", err)
		}
	}

	pragmas := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()),
	}
	if cfg.WALMode {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}
	dsn := "file:" + filepath.Clean(cfg.Path) + "?" + strings.Join(pragmas, "&")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open records db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping records db: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("records store initialized", "path", cfg.Path, "wal_mode", cfg.WALMode)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create records schema: %w", err)
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case version == 0:
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	case version != schemaVersion:
		return fmt.Errorf("records schema version %d is not supported (want %d)", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) CreateScenario(ctx context.Context, rec *ScenarioRecord) error {
	if err := prepareScenario(rec, now()); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, name, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, string(rec.Payload), toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		if isConstraint(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert scenario: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*ScenarioRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, payload, created_at, updated_at FROM scenarios WHERE id = ?`, id)

	rec, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("scenario", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) UpdateScenario(ctx context.Context, rec *ScenarioRecord) error {
	if err := checkObject("payload", rec.Payload); err != nil {
		return err
	}

	updated := now()
	row := s.db.QueryRowContext(ctx,
		`UPDATE scenarios SET name = ?, payload = ?, updated_at = ? WHERE id = ? RETURNING created_at`,
		rec.Name, string(rec.Payload), toMillis(updated), rec.ID,
	)
	var created int64
	if err := row.Scan(&created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("scenario", rec.ID)
		}
		return fmt.Errorf("update scenario: %w", err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = updated
	return nil
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return requireAffected(res, "scenario", id)
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, opts ListOptions) ([]*ScenarioRecord, error) {
	opts = normalizeList(opts)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, payload, created_at, updated_at FROM scenarios
		 ORDER BY created_at, id LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	out := []*ScenarioRecord{}
	for rows.Next() {
		rec, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateAsset(ctx context.Context, rec *AssetRecord) error {
	if err := prepareAsset(rec, now()); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin asset insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios WHERE id = ?`, rec.ScenarioID).Scan(&exists); err != nil {
		return fmt.Errorf("check scenario: %w", err)
	}
	if exists == 0 {
		return notFound("scenario", rec.ScenarioID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assets (id, scenario_id, name, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ScenarioID, rec.Name, string(rec.Payload), toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		if isConstraint(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetAsset(ctx context.Context, scenarioID, id string) (*AssetRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scenario_id, name, payload, created_at, updated_at FROM assets
		 WHERE id = ? AND scenario_id = ?`, id, scenarioID)

	rec, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("asset", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) UpdateAsset(ctx context.Context, rec *AssetRecord) error {
	if err := checkObject("payload", rec.Payload); err != nil {
		return err
	}

	updated := now()
	row := s.db.QueryRowContext(ctx,
		`UPDATE assets SET name = ?, payload = ?, updated_at = ? WHERE id = ? AND scenario_id = ? RETURNING created_at`,
		rec.Name, string(rec.Payload), toMillis(updated), rec.ID, rec.ScenarioID,
	)
	var created int64
	if err := row.Scan(&created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("asset", rec.ID)
		}
		return fmt.Errorf("update asset: %w", err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = updated
	return nil
}

func (s *SQLiteStore) DeleteAsset(ctx context.Context, scenarioID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ? AND scenario_id = ?`, id, scenarioID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return requireAffected(res, "asset", id)
}

func (s *SQLiteStore) ListAssets(ctx context.Context, scenarioID string) ([]*AssetRecord, error) {
	if _, err := s.GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario_id, name, payload, created_at, updated_at FROM assets
		 WHERE scenario_id = ? ORDER BY created_at, id`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := []*AssetRecord{}
	for rows.Next() {
		rec, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (*ScenarioRecord, error) {
	var rec ScenarioRecord
	var payload string
	var created, updated int64
	if err := row.Scan(&rec.ID, &rec.Name, &payload, &created, &updated); err != nil {
		return nil, err
	}
	rec.Payload = []byte(payload)
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

func scanAsset(row scanner) (*AssetRecord, error) {
	var rec AssetRecord
	var payload string
	var created, updated int64
	if err := row.Scan(&rec.ID, &rec.ScenarioID, &rec.Name, &payload, &created, &updated); err != nil {
		return nil, err
	}
	rec.Payload = []byte(payload)
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// isConstraint reports a primary key or unique violation.
func isConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
