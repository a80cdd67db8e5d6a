// Package recorder writes evidence records asynchronously.
//
// Record never blocks: records go onto a buffered channel drained by one
// worker, and a full buffer drops the record (counted as "dropped" in the
// evidence metrics). Each storage write runs under its own timeout. Close
// drains whatever is still buffered.
package recorder
