// Package upstream provides the HTTP client for the project-management API.
//
// It is a thin GET-only wrapper: fixed base address, a single basic-auth
// credential, and envelope decoding. Response status classification lives
// here so callers can decide between retrying and failing.
package upstream
