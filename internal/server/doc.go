// Package server implements the stub score service used for local development and end-to-end tests.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method-qualified [http.ServeMux] patterns, so path wildcards such as
// {id} are available through [http.Request.PathValue] and unsupported methods answer 405.
//
// # Contract
//
// [Backend] serves the nine read endpoints the dashboard client consumes, plus a development login that issues
// a session cookie and a health probe:
//
//	GET /login                                  → sets the session cookie
//	GET /health
//	GET /refresh-user-token                     → rotates the access token
//	GET /get-user-info                          → {user_info}
//	GET /get-user-info-by-id/{id}               → {user_info: [[id, name, picUrl]]}
//	GET /get-user-listening-history-by-id/{id}  → {user_listening_history}
//	GET /fetch-user-listening-history-by-id/{id}
//	GET /get-user-diversity-score-by-id/{id}    → {diversity_score}
//	GET /get-user-taste-score-by-id/{id}        → {taste_score}
//	GET /get-song-of-the-day                    → {song_of_the_day}
//	GET /get-leaderboard-data                   → {profiles, scores}
//
// # Sessions
//
// The session cookie carries the access token only. An unknown or missing cookie answers 401 with
// needs_refresh=false; an expired access token answers 401 with needs_refresh=true, and the client is expected to
// call /refresh-user-token once before retrying.
//
// # Scores
//
// Diversity is the normalized Shannon entropy of the root genres a user listened to. Taste compares a user's
// diversity to the average diversity of the developers.
package server
