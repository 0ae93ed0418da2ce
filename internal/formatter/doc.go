// Package formatter exports listening history and leaderboards to various formats (JSON, CSV, Markdown, plain text).
package formatter
