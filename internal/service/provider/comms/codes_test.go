package comms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeStore(t *testing.T) {
	t.Parallel()

	s := newCodeStore()
	code, err := s.issue("+8613800000000")
	require.NoError(t, err)
	assert.Len(t, code, codeDigits)

	assert.False(t, s.verify("+8613800000000", "wrong"))
	assert.False(t, s.verify("+8613900000000", code))
	assert.True(t, s.verify("+8613800000000", code))
	// 校验成功后作废
	assert.False(t, s.verify("+8613800000000", code))

	code, err = s.issue("+8613800000000")
	require.NoError(t, err)
	s.forget("+8613800000000")
	assert.False(t, s.verify("+8613800000000", code))
}

func TestAwait(t *testing.T) {
	t.Parallel()

	v, err := await(t.Context(), func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err = await(ctx, func() (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
