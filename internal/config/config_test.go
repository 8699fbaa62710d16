package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return NewFromViper(NewEmptyViper())
}

func TestDefaults(t *testing.T) {
	cfg := newTestConfig()

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)

	gemini := cfg.GetGemini()
	assert.Equal(t, "gemini-2.0-flash", gemini.ModelName)
	assert.Equal(t, 100, gemini.MaxTokens)
	assert.InDelta(t, 0.1, gemini.Temperature, 0.0001)
	assert.InDelta(t, 0.9, gemini.TopP, 0.0001)
	assert.Equal(t, 4096, gemini.MaxBodySize)

	gmail := cfg.GetGmail()
	assert.Equal(t, "credentials.json", gmail.CredentialsFile)
	assert.Equal(t, "token.json", gmail.TokenFile)
	assert.Equal(t, int64(50), gmail.MaxResults)

	detector := cfg.GetDetector()
	assert.Equal(t, 10, detector.MaxEmails)
	assert.Equal(t, 1, detector.Workers)
	assert.Equal(t, "spam_detection_results.csv", detector.OutputPath)

	assert.Equal(t, "memory", cfg.GetString("cache.type"))
	assert.True(t, cfg.GetBool("cache.enabled"))
	assert.Empty(t, cfg.GetStringSlice("spam.whitelisted_domains"))
	assert.Equal(t, "info", cfg.GetString("logging.level"))
}

func TestGetDuration(t *testing.T) {
	cfg := newTestConfig()

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	cfg.GetViper().Set("cache.ttl", "not-a-duration")
	_, err = cfg.GetDuration("cache.ttl")
	assert.Error(t, err)
}

func TestOverrides(t *testing.T) {
	cfg := newTestConfig()
	v := cfg.GetViper()
	v.Set("detector.workers", 8)
	v.Set("detector.output_path", "/tmp/out.csv")
	v.Set("spam.whitelisted_domains", []string{"example.org"})

	detector := cfg.GetDetector()
	assert.Equal(t, 8, detector.Workers)
	assert.Equal(t, "/tmp/out.csv", detector.OutputPath)
	assert.Equal(t, []string{"example.org"}, cfg.GetStringSlice("spam.whitelisted_domains"))
}
