// Package storage provides evidence.Storage backends.
//
//   - SQLiteStorage: durable storage on github.com/mattn/go-sqlite3 with WAL
//     mode, a busy timeout and a versioned schema
//   - MemoryStorage: process-local storage for tests and ephemeral runs
//
// Both backends sort by evaluated_at descending unless the query says
// otherwise, break ties by id, and cap unbounded queries at 100 records.
//
//	store, err := storage.NewSQLiteStorage(&cfg.Evidence.SQLite, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	records, err := store.Query(ctx, &evidence.Query{ScenarioID: "storm-42", Limit: 20})
package storage
