// Package dashboard sequences the fetches behind the personal dashboard and holds the assembled view state.
//
// The Orchestrator walks Idle → Loading → Ready, or exits to Redirecting when the session owner cannot be
// resolved. Fetch results are applied under a single lock after a generation check, so a superseding
// navigation makes late results from an earlier view harmless.
package dashboard
