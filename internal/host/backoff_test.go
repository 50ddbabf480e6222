package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffPolicy_Calculate(t *testing.T) {
	p := &BackoffPolicy{Initial: time.Second, Max: 10 * time.Second, Factor: 2.0, Jitter: 0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // capped
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Calculate(tt.attempt))
	}
}

func TestBackoffPolicy_CalculateWithJitter(t *testing.T) {
	p := &BackoffPolicy{Initial: time.Second, Max: time.Minute, Factor: 2.0, Jitter: 0.5}

	for i := 0; i < 20; i++ {
		backoff := p.Calculate(1)
		assert.Greater(t, backoff, time.Duration(0))
		assert.LessOrEqual(t, backoff, 3*time.Second)
	}
}
