// Package audit keeps a SQLite trail of proxied operations.
//
// A Recorder is registered as a bridge.Observer. Each finished query or
// function call becomes an Entry holding its request id, target, result
// category, ERP status and duration; request and response payloads are
// never written. Entries are queued on a buffered channel and written by
// a single goroutine. When the buffer is full the entry is dropped and
// counted rather than delaying the caller.
//
// A Scheduler prunes entries older than the retention period on a cron
// schedule.
package audit
