package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{"Trusted.org", "  corp.example.com  "}, zap.NewNop())

	tests := []struct {
		name string
		from string
		want bool
	}{
		{name: "bare address on trusted domain", from: "alice@trusted.org", want: true},
		{name: "case insensitive domain", from: "bob@TRUSTED.ORG", want: true},
		{name: "display name form", from: "Carol <carol@corp.example.com>", want: true},
		{name: "unknown domain", from: "mallory@evil.example", want: false},
		{name: "subdomain does not match", from: "x@mail.trusted.org", want: false},
		{name: "no at sign", from: "not-an-address", want: false},
		{name: "trailing at sign", from: "broken@", want: false},
		{name: "empty sender", from: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsWhitelisted(tt.from))
		})
	}
}

func TestIsWhitelisted_EmptyList(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	assert.False(t, checker.IsWhitelisted("anyone@anywhere.org"))
}
