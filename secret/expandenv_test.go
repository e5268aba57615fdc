package secret

import (
	"strings"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("BOARDPROXY_TEST_KEY", "sekrit")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain value passes through", "literal-api-key", "literal-api-key"},
		{"braced reference expands", "${BOARDPROXY_TEST_KEY}", "sekrit"},
		{"inline reference expands", "user:${BOARDPROXY_TEST_KEY}", "user:sekrit"},
		{"double dollar escapes", "$$${BOARDPROXY_TEST_KEY}", "$sekrit"},
		{"empty value", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.in)
			if err != nil {
				t.Fatalf("ExpandEnvStrict(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrictMissingVar(t *testing.T) {
	t.Setenv("PRESENT", "ok")

	_, err := ExpandEnvStrict("a=${PRESENT} b=${MISSING_VAR_FOR_TEST}")
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR_FOR_TEST") {
		t.Errorf("error %v should name the missing variable", err)
	}
}
