package aggregate

import "strings"

// IsSectionHeader reports whether a task name marks a section header rather
// than a real task. The convention is a trailing colon ("Launch:" is a
// header, "Launch" is a task). This is a workspace convention, not an API
// concept, which is why it lives here as an explicit predicate.
func IsSectionHeader(name string) bool {
	return strings.HasSuffix(name, ":")
}
