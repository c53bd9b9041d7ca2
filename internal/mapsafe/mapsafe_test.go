package mapsafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	m := map[string]any{
		"port":    8891,
		"timeout": 600.0,
		"float":   3,
		"command": "python3",
		"args":    []any{"-m", "chatterbox_worker"},
		"mixed":   []any{"-m", 1},
		"env":     map[string]any{"HF_HOME": "/cache"},
		"debug":   true,
		"nil":     nil,
	}

	assert.Equal(t, 8891, Get(m, "port", 0))
	assert.Equal(t, 600, Get(m, "timeout", 0))
	assert.InDelta(t, 3.0, Get(m, "float", 0.0), 1e-9)
	assert.Equal(t, "python3", Get(m, "command", ""))
	assert.Equal(t, []string{"-m", "chatterbox_worker"}, Get[[]string](m, "args", nil))
	assert.Equal(t, []string{"x"}, Get(m, "mixed", []string{"x"}))
	assert.Equal(t, map[string]string{"HF_HOME": "/cache"}, Get[map[string]string](m, "env", nil))
	assert.True(t, Get(m, "debug", false))

	assert.Equal(t, "fallback", Get(m, "missing", "fallback"))
	assert.Equal(t, "fallback", Get(m, "nil", "fallback"))
	assert.Equal(t, "fallback", Get(m, "port", "fallback"))
	assert.Equal(t, time.Second, Get(m, "command", time.Second))
	assert.Equal(t, 1, Get[int](nil, "port", 1))
}
