// Package httpapi exposes the summary endpoints over HTTP.
//
// All routes are read-only. Upstream failures are mapped to 502 with a
// generic error body so no upstream detail leaks to callers.
package httpapi
