// Package records stores outage scenarios and their assets so they can be
// evaluated by id.
//
// A scenario record holds the scenario JSON object as submitted; asset
// records hold one asset object each and are merged into the scenario's
// "assets" array by BuildInput. Two backends implement Store: MemoryStore
// and SQLiteStore, the latter on the pure-Go modernc.org/sqlite driver
// with WAL mode and cascading asset deletes.
package records
