package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDs_InOrder(t *testing.T) {
	ids := NewFixedIDs("s1", "s2")

	assert.Equal(t, "s1", ids.Next())
	assert.Equal(t, "s2", ids.Next())
	assert.Panics(t, func() { ids.Next() })
}

func TestSequenceIDs(t *testing.T) {
	ids := NewSequenceIDs("sess")

	assert.Equal(t, "sess-0001", ids.Next())
	assert.Equal(t, "sess-0002", ids.Next())

	assert.Equal(t, "id-0001", NewSequenceIDs("").Next())
}
