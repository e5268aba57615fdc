// Package summary turns aggregator output into the shapes the HTTP
// endpoints return. Everything here is local arithmetic over fetched data:
// counts, grouping by assignee, and a join against the static member
// directory. No caching, no remote calls.
package summary
