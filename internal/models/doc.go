// Package models defines the domain entities shared by the dashboard client and the stub backend.
//
// The package contains two categories of types:
//
// 1. Wire types decoded from the score service:
//   - [Profile] : a user's identity, decoded from either an object or a positional row
//   - [Track] : one listening-history entry; [Artists] accepts a string or a list
//   - [Score] : a [0,1] backend value presented as a two-decimal percentage
//   - [SongOfDay] : the daily featured track
//   - [LeaderboardData] : bulk profiles and scores rows
//
// 2. Persistent entities used only by the stub backend:
//   - [User] : accounts with a soft-delete lifecycle
//   - [Play] : one stored listening event
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
