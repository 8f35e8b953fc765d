package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{name: "expired entry", expires: time.Now().Add(-time.Hour), want: true},
		{name: "valid entry", expires: time.Now().Add(time.Hour), want: false},
		{name: "zero expiry", expires: time.Time{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	entry := &Entry{Expires: time.Now().Add(5 * time.Minute)}
	if ttl := entry.TTL(); ttl < 4*time.Minute || ttl > 5*time.Minute {
		t.Errorf("TTL() = %v, want about 5m", ttl)
	}

	expired := &Entry{Expires: time.Now().Add(-time.Minute)}
	if ttl := expired.TTL(); ttl != 0 {
		t.Errorf("TTL() = %v, want 0", ttl)
	}
}
