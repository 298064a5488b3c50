// Package taskhook provides a high-level library API over the taskhook
// pipeline: snapshot parsing, change detection, event emission, hook
// dispatch, and audit queries.
//
// This package is the integration point for external consumers such as
// editor plugins and CI steps that want to drive hook runs in-process
// instead of shelling out to the taskhook binary. It wraps internal
// packages into a small, stable surface.
//
// # Concurrency
//
// A Client is not safe for concurrent mutating use. Run appends to the
// project's audit log; the caller must ensure only one Run is in flight
// per project at a time. Read-only calls (AuditRecords, VerifyAudit,
// Metrics) may run concurrently with each other.
//
// # Usage
//
//	client, err := taskhook.Open(projectRoot)
//	if err != nil { ... }
//	summary, err := client.Run(taskhook.RunOptions{Before: "HEAD~1", After: "HEAD"})
package taskhook
