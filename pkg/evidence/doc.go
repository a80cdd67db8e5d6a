// Package evidence records an audit trail of every evaluation.
//
// Each evaluation produces an EvidenceRecord naming the scenario, the
// deterministic hash, the engine version and the advice given (allowed and
// blocked action types, escalation flags and the ETR band). Records never
// contain the raw scenario input; the hash ties a record back to it.
//
// # Layers
//
//  1. recorder - enqueues records on a buffered channel and writes them in
//     the background so evaluations never wait on storage
//  2. storage - memory and SQLite (WAL mode, versioned schema) backends
//  3. query - validation and defaults for filters
//  4. retention - age and count based pruning on a cron schedule
//  5. export - JSON and CSV writers
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&cfg.Evidence.SQLite, logger)
//	if err != nil {
//	    return err
//	}
//	rec := recorder.New(store, &cfg.Evidence.Recorder, collector, logger)
//	defer rec.Close()
//
//	_ = rec.Record(ctx, recorder.Build(resp, recorder.Meta{
//	    RequestID: requestID,
//	    Source:    evidence.SourceHTTP,
//	}))
package evidence
