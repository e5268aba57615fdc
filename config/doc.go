// Package config loads service configuration from the environment.
//
// Everything is read from BOARDPROXY_* variables by FromEnv and validated
// up front, so the rest of the service takes explicit Config values and
// never touches the environment itself.
package config
