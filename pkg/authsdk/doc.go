// Package authsdk is the Go client for the CVForge authentication service.
//
// It provides a plain Client for unauthenticated operations (register,
// login, password reset) and a Session type for authenticated calls.
// Sessions transparently refresh the access token: when a request comes
// back 401 the session performs a single refresh-token exchange and
// retries the request once. Concurrent 401s coalesce into one refresh.
//
// The wire types in this package are shared with the server's HTTP
// handlers so the two sides cannot drift apart.
package authsdk
