// Package services talks to the score service on behalf of the dashboard.
//
// # Session Transport
//
// [Transport] issues every request with the session credential held in its cookie jar.
// A 401 carrying needs_refresh triggers exactly one call to /refresh-user-token followed by one
// re-issue of the original request. The retry budget belongs to a single [Transport.Call], so concurrent
// calls each recover independently and no call can loop.
//
// # Resource Fetchers
//
// [Client] wraps the transport with one typed method per backend capability. Every method returns a
// [Result]: either a decoded value with its status code, or a [TransportError] describing the failure.
// Fetchers never panic past their boundary; decode failures and recovered panics become
// [KindUnknown] failures with status 500.
//
// # Error Handling
//
// Transport errors unwrap to sentinels from the shared package:
//   - [shared.ErrTokenExpired] : refresh attempted and failed ([KindAuthExpired])
//   - [shared.ErrNotAuthenticated] : no refresh possible ([KindUnauthorized])
//   - [shared.ErrAPIRequest] : any other status or a network failure ([KindUnknown])
//
// The first two carry a [Navigation] to the login page; the caller decides how to perform it.
package services
