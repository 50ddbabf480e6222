package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStream(t *testing.T) {
	s := NewStream(nil, "scheduler:events", 10000)

	assert.NotNil(t, s)
	assert.Nil(t, s.client)
	assert.Equal(t, "scheduler:events", s.name)
	assert.Equal(t, int64(10000), s.maxLen)
}
