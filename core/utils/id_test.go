package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTempID(t *testing.T) {
	id := NewTempID()
	assert.True(t, IsTempID(id))
	assert.False(t, IsTempID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, IsTempID(""))
}

func TestNewTempID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewTempID()
		require.False(t, seen[id], "temp ids must not collide within a session")
		seen[id] = true
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	assert.Len(t, id, 7)
}
