package collect

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakim/domainwatch/internal/models"
)

func TestIsPrivateAddress(t *testing.T) {
	private := []string{
		"10.0.0.1", "172.16.5.5", "192.168.1.1",
		"127.0.0.1", "169.254.0.1", "0.0.0.0",
		"::1", "fc00::1", "fe80::1",
	}
	for _, s := range private {
		assert.True(t, IsPrivateAddress(net.ParseIP(s)), "%s should be private", s)
	}

	public := []string{"8.8.8.8", "93.184.216.34", "2606:2800:220:1::1"}
	for _, s := range public {
		assert.False(t, IsPrivateAddress(net.ParseIP(s)), "%s should be public", s)
	}
}

func TestParseWhoisDate(t *testing.T) {
	tests := []struct {
		value string
		want  *time.Time
	}{
		{"2024-03-15T10:30:00Z", timePtr(2024, 3, 15, 10, 30)},
		{"2024-03-15 10:30:00", timePtr(2024, 3, 15, 10, 30)},
		{"2024-03-15", timePtr(2024, 3, 15, 0, 0)},
		{"15-Mar-2024", timePtr(2024, 3, 15, 0, 0)},
		{"2024.03.15", timePtr(2024, 3, 15, 0, 0)},
		{"", nil},
		{"not a date", nil},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := parseWhoisDate(tt.value)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.NotNil(t, got)
			assert.True(t, got.Equal(*tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func timePtr(year int, month time.Month, day, hour, min int) *time.Time {
	t := time.Date(year, month, day, hour, min, 0, 0, time.UTC)
	return &t
}

func TestAppendUnique(t *testing.T) {
	s := appendUnique(nil, "a@example.com")
	s = appendUnique(s, "b@example.com")
	s = appendUnique(s, "a@example.com")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, s)
}

func TestWhoisInfoEmpty(t *testing.T) {
	assert.True(t, models.WhoisInfo{}.Empty())
	assert.False(t, models.WhoisInfo{Registrar: "x"}.Empty())
}
