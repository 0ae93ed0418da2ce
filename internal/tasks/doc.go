// Package tasks runs long operations across many users with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes the listening history of every requested user:
//
//  1. A producer fetches each user's profile and history, paced by a rate limiter
//  2. A pool of workers fetches the two scores concurrently and writes the files
//  3. A manifest (export_manifest.json) summarizes successes and failures
//
// A failure for one user is recorded in its [SubjectExportResult]. A failure that needs the user to log in again
// stops the export.
//
// # Progress Reporting
//
// Progress is sent on an optional channel as [ProgressUpdate] values. Sends never block; a full channel drops the
// update.
package tasks
