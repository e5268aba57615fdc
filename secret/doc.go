// Package secret provides strict environment expansion for configuration
// values that carry credentials.
//
// Values like "${BOARDPROXY_API_KEY}" are expanded from the environment,
// and a reference to a missing variable is an error rather than a silent
// empty string. A `$$` emits a literal `$`.
package secret
