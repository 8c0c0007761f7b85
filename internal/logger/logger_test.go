package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"access_token", "abc", "step", "blog_publish", "API_KEY", "k"})
	assert.Equal(t, []interface{}{"access_token", "[REDACTED]", "step", "blog_publish", "API_KEY", "[REDACTED]"}, out)
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"run_id", 4, "dangling"})
	assert.Equal(t, []interface{}{"run_id", 4, "dangling"}, out)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.With("run_id", 1).Info("hello", "secret", "x")
	})
}
