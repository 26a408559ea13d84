package synerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(NotFound, "session %s", "abc123")
	assert.Equal(t, "NotFound: session abc123", err.Error())
	assert.Equal(t, NotFound, err.Kind)
}

func TestWrapIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(InvalidArchive, cause, "writing chunk")
	assert.Equal(t, "InvalidArchive: writing chunk: disk full", err.Error())
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	inner := New(ChunkTooLarge, "chunk 3 exceeds provider limit")
	outer := fmt.Errorf("chunking chapter 2: %w", inner)

	assert.True(t, Is(outer, ChunkTooLarge))
	assert.False(t, Is(outer, AssetMissing))
}

func TestKindStringUnknown(t *testing.T) {
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
