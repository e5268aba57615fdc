package cache

import (
	"testing"
	"time"
)

func TestMemcacheExpiration(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want int32
	}{
		{"sub-second rounds up", 50 * time.Millisecond, 1},
		{"one second", time.Second, 1},
		{"truncates partial seconds", 1500 * time.Millisecond, 1},
		{"one hour", time.Hour, 3600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := memcacheExpiration(tt.ttl); got != tt.want {
				t.Errorf("memcacheExpiration(%v) = %d, want %d", tt.ttl, got, tt.want)
			}
		})
	}
}
