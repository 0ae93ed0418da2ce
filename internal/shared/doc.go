// Package shared holds the plumbing used across scorify: logging, sentinel errors, TOML configuration,
// session cookie import from cURL commands, browser launch, and the sqlite database with its migrations.
package shared
