package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

// TestValidateKey tests key validation rules.
func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "boardproxy:/workspaces/1/projects", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains space", "key with spaces", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestKey_Namespacing(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		path      string
		want      string
	}{
		{"with namespace", "dogboard", "/projects/1", "dogboard:/projects/1"},
		{"empty namespace", "", "/projects/1", "/projects/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.namespace, tt.path); got != tt.want {
				t.Errorf("Key(%q, %q) = %q, want %q", tt.namespace, tt.path, got, tt.want)
			}
		})
	}
}

// mockStore is a test double that implements Store.
type mockStore struct{}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return nil
}

// TestStoreInterface_CompileCheck verifies the Store interface contract.
func TestStoreInterface_CompileCheck(t *testing.T) {
	var _ Store = (*mockStore)(nil)
}
