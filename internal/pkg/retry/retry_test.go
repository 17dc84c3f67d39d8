package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearStrategy_Next(t *testing.T) {
	t.Parallel()

	s := NewLinearStrategy(100*time.Millisecond, 3)
	var delays []time.Duration
	for {
		d, ok := s.Next()
		if !ok {
			break
		}
		delays = append(delays, d)
	}
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, delays)

	// 用完之后一直返回 false
	_, ok := s.Next()
	assert.False(t, ok)
}

func TestLinearStrategy_NoRetries(t *testing.T) {
	t.Parallel()

	_, ok := NewLinearStrategy(time.Second, 0).Next()
	assert.False(t, ok)
	_, ok = NewLinearStrategy(time.Second, -1).Next()
	assert.False(t, ok)
}

func TestNewRetry(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		cfg       Config
		wantErr   bool
		wantFirst time.Duration
	}{
		{
			name:      "linear",
			cfg:       NewLinearConfig(time.Second, 3),
			wantFirst: time.Second,
		},
		{
			name: "fixed",
			cfg: Config{
				Type:          TypeFixed,
				FixedInterval: &FixedIntervalConfig{MaxRetries: 2, Interval: 50 * time.Millisecond},
			},
			wantFirst: 50 * time.Millisecond,
		},
		{
			name: "exponential",
			cfg: Config{
				Type: TypeExponential,
				ExponentialBackoff: &ExponentialBackoffConfig{
					InitialInterval: 10 * time.Millisecond,
					MaxInterval:     time.Second,
					MaxRetries:      3,
				},
			},
			wantFirst: 10 * time.Millisecond,
		},
		{
			name:    "linear without config",
			cfg:     Config{Type: TypeLinear},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     Config{Type: "random"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := NewRetry(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			d, ok := s.Next()
			require.True(t, ok)
			assert.Equal(t, tc.wantFirst, d)
		})
	}
}
