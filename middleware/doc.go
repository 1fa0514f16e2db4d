// Package middleware provides net/http glue for the authentication engine:
// a per-request resolution middleware and a guard that rejects
// unauthenticated requests.
package middleware
