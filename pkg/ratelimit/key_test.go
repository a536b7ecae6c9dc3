package ratelimit_test

import (
	"strings"
	"testing"

	"github.com/dmitrymomot/twofactor/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{name: "no parts", parts: nil, want: ""},
		{name: "only empty", parts: []string{"", ""}, want: ""},
		{name: "joined", parts: []string{"2fa", "verify", "user-1"}, want: "2fa:verify:user-1"},
		{name: "skips empty", parts: []string{"2fa", "", "user-1"}, want: "2fa:user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ratelimit.Key(tt.parts...))
		})
	}
}

func TestKey_LongKeysHashed(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 100)
	got := ratelimit.Key("2fa", long)
	assert.Len(t, got, 32)
	assert.Equal(t, got, ratelimit.Key("2fa", long))
	assert.NotEqual(t, got, ratelimit.Key("2fa", long+"y"))
}
