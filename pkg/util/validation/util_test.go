package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidWorldName(t *testing.T) {
	for _, name := range []string{"world", "world_nether", "w", "World-2.old"} {
		assert.True(t, ValidWorldName(name), name)
		assert.NoError(t, WorldName(name))
	}
	for _, name := range []string{"", "../etc", "world/", "_world", "world.", strings.Repeat("a", 64)} {
		assert.False(t, ValidWorldName(name), name)
		assert.Error(t, WorldName(name))
	}
}
