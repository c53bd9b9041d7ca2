package xfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, ".cache", "models"), ExpandTilde("~/.cache/models"))
	assert.Equal(t, "/var/lib/models", ExpandTilde("/var/lib/models"))
	assert.Equal(t, "~user/models", ExpandTilde("~user/models"))
}
