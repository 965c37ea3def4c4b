// Package audit persists scrub reports so operators can review what the
// relay changed without keeping any payload content.
//
// Every scrubbed or rejected event produces one [Record]: the run id, the
// project and config version that were applied, and counts of remarks per
// rule and of meta errors per kind. Records are written to a [Storage]
// backend.
//
// # Backends
//
//   - [MemoryStorage] keeps records in a map. It is meant for tests and
//     dry runs.
//   - [SQLiteStorage] writes to a SQLite database (github.com/mattn/go-sqlite3)
//     in WAL mode.
//
// # Retention
//
// A [Pruner] deletes records older than the retention period and trims the
// store to a maximum record count. [Pruner.Start] runs it on a cron
// schedule (github.com/robfig/cron/v3):
//
//	pruner := audit.NewPruner(store, &audit.RetentionConfig{
//		RetentionDays: 30,
//		PruneSchedule: "0 3 * * *",
//	})
//	if err := pruner.Start(ctx); err != nil {
//		return err
//	}
//	defer pruner.Stop()
package audit
