package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
)

const (
	defaultLimit = 100
	streamBuffer = 100
)

// sortColumns maps accepted sort fields to columns.
var sortColumns = map[string]string{
	"evaluated_at":   "evaluated_at",
	"recorded_at":    "recorded_at",
	"etr_confidence": "etr_confidence",
}

// SQLiteStorage implements evidence.Storage on SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database at cfg.Path, enables WAL mode if
// configured and creates or verifies the schema.
func NewSQLiteStorage(cfg *config.SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, evidence.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists an evidence record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.EvidenceRecord) error {
	allowed, err := encodeList(record.AllowedActions)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	blocked, err := encodeList(record.BlockedActions)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	flags, err := encodeList(record.EscalationFlags)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	_, err = s.db.ExecContext(ctx, insertEvidence,
		record.ID, record.RequestID,
		record.ScenarioID, record.Hash, record.EngineVersion,
		allowed, blocked, flags, record.CriticalLoadAtRisk,
		record.ETRBand, record.ETRConfidence, record.WarningCount,
		record.CacheHit, string(record.Source), record.Duration.Microseconds(),
		record.EvaluatedAt.UTC(), record.RecordedAt.UTC(),
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves evidence records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.EvidenceRecord, error) {
	sqlQuery, args := s.buildSelect(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.EvidenceRecord{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// QueryStream streams matching records from an open cursor.
func (s *SQLiteStorage) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.EvidenceRecord, <-chan error, error) {
	sqlQuery, args := s.buildSelect(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, nil, evidence.NewStorageError("sqlite", "query_stream", err)
	}

	recordsCh := make(chan *evidence.EvidenceRecord, streamBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)
		defer rows.Close()

		for rows.Next() {
			record, err := scanRow(rows)
			if err != nil {
				errCh <- evidence.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM evidence"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes evidence records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM evidence"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) buildSelect(query *evidence.Query) (string, []any) {
	where, args := buildWhereClause(query)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString(" FROM evidence")
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "evaluated_at"
	}
	order := "DESC"
	if query.SortOrder == "asc" {
		order = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", column, order, order)

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	fmt.Fprintf(&sb, " LIMIT %d", limit)
	if query.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", query.Offset)
	}

	return sb.String(), args
}

// buildWhereClause returns the WHERE clause without the keyword, and its
// arguments.
func buildWhereClause(query *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, query.StartTime.UTC())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, query.EndTime.UTC())
	}
	if len(query.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.IDs)), ",")
		conditions = append(conditions, "id IN ("+placeholders+")")
		for _, id := range query.IDs {
			args = append(args, id)
		}
	}
	if query.ScenarioID != "" {
		conditions = append(conditions, "scenario_id = ?")
		args = append(args, query.ScenarioID)
	}
	if query.Hash != "" {
		conditions = append(conditions, "hash = ?")
		args = append(args, query.Hash)
	}
	if query.ETRBand != "" {
		conditions = append(conditions, "etr_band = ?")
		args = append(args, query.ETRBand)
	}
	if query.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, string(query.Source))
	}
	if query.Flag != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(escalation_flags) WHERE value = ?)")
		args = append(args, query.Flag)
	}
	if query.BlockedAction != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(blocked_actions) WHERE value = ?)")
		args = append(args, query.BlockedAction)
	}
	if query.CacheHit != nil {
		conditions = append(conditions, "cache_hit = ?")
		args = append(args, *query.CacheHit)
	}

	return strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*evidence.EvidenceRecord, error) {
	var record evidence.EvidenceRecord
	var allowed, blocked, flags, source string
	var durationUS int64

	err := rows.Scan(
		&record.ID, &record.RequestID,
		&record.ScenarioID, &record.Hash, &record.EngineVersion,
		&allowed, &blocked, &flags, &record.CriticalLoadAtRisk,
		&record.ETRBand, &record.ETRConfidence, &record.WarningCount,
		&record.CacheHit, &source, &durationUS,
		&record.EvaluatedAt, &record.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	if record.AllowedActions, err = decodeList(allowed); err != nil {
		return nil, err
	}
	if record.BlockedActions, err = decodeList(blocked); err != nil {
		return nil, err
	}
	if record.EscalationFlags, err = decodeList(flags); err != nil {
		return nil, err
	}
	record.Source = evidence.Source(source)
	record.Duration = time.Duration(durationUS) * time.Microsecond

	return &record, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	values := []string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list column: %w", err)
	}
	return values, nil
}
