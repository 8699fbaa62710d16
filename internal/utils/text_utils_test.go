package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", tp.TruncateText("hello", 100))
	})

	t.Run("zero limit disables truncation", func(t *testing.T) {
		long := strings.Repeat("a", 10000)
		assert.Equal(t, long, tp.TruncateText(long, 0))
	})

	t.Run("long text gets marker", func(t *testing.T) {
		got := tp.TruncateText(strings.Repeat("a", 200), 50)
		assert.True(t, strings.HasSuffix(got, truncationMarker))
		assert.Equal(t, 50+len(truncationMarker), len(got))
	})

	t.Run("never splits a multibyte rune", func(t *testing.T) {
		text := strings.Repeat("é", 100)
		got := tp.TruncateText(text, 51)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, 50+len(truncationMarker), len(got))
	})
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("valid text unchanged", func(t *testing.T) {
		assert.Equal(t, "déjà vu", tp.SanitizeUTF8("déjà vu"))
	})

	t.Run("invalid bytes dropped", func(t *testing.T) {
		got := tp.SanitizeUTF8("ok\xff\xfeok")
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "okok", got)
	})
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.ProcessText("abc\xffdef"+strings.Repeat("x", 100), 20)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, truncationMarker))
}
