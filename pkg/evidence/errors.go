package evidence

import "fmt"

// StorageError is a failed backend operation.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// NewStorageError wraps cause for operation on backend.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("evidence %s backend: %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// QueryError is a query rejected by validation. It maps to a client error.
type QueryError struct {
	Query *Query
	Cause error
}

// NewQueryError wraps cause for q.
func NewQueryError(q *Query, cause error) *QueryError {
	return &QueryError{Query: q, Cause: cause}
}

func (e *QueryError) Error() string {
	return "invalid evidence query: " + e.Cause.Error()
}

func (e *QueryError) Unwrap() error { return e.Cause }

// RecorderError is a record the recorder did not accept.
type RecorderError struct {
	RecordID string
	Cause    error
}

// NewRecorderError wraps cause for the record with id.
func NewRecorderError(id string, cause error) *RecorderError {
	return &RecorderError{RecordID: id, Cause: cause}
}

func (e *RecorderError) Error() string {
	if e.RecordID == "" {
		return "evidence record not recorded: " + e.Cause.Error()
	}
	return fmt.Sprintf("evidence record %s not recorded: %v", e.RecordID, e.Cause)
}

func (e *RecorderError) Unwrap() error { return e.Cause }

// RetentionError is a failed prune run.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

// NewRetentionError wraps cause for a prune with the given retention.
func NewRetentionError(days int, cause error) *RetentionError {
	return &RetentionError{RetentionDays: days, Cause: cause}
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("evidence pruning (%d day retention): %v", e.RetentionDays, e.Cause)
}

func (e *RetentionError) Unwrap() error { return e.Cause }

// ExportError is a failed export, with the records written before failing.
type ExportError struct {
	Format      string
	RecordCount int
	Cause       error
}

// NewExportError wraps cause for a format export that wrote count records.
func NewExportError(format string, count int, cause error) *ExportError {
	return &ExportError{Format: format, RecordCount: count, Cause: cause}
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("evidence %s export failed after %d records: %v", e.Format, e.RecordCount, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }
