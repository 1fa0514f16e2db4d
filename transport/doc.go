// Package transport provides token transports: the mechanisms that carry
// the opaque session token between client and engine.
//
// A transport is constructed per inbound request and handed to the engine,
// which reads the presented token through it and writes the (possibly
// rotated) token back at the end of the operation. [Cookie] stores the raw
// token in an HTTP cookie, [Signed] wraps any inner transport in an HMAC
// envelope so client-side tampering is detected before any store is
// consulted, and [Header] reads a bearer token from the Authorization
// header for non-browser clients.
package transport
