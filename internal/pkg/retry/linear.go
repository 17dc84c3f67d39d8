package retry

import (
	"time"
)

var _ Strategy = (*LinearStrategy)(nil)

// LinearStrategy 线性退避：第 n 次重试等待 baseDelay * n
// 也就是 baseDelay * (maxRetries + 1 - remaining)
type LinearStrategy struct {
	baseDelay  time.Duration
	maxRetries int32
	retries    int32
}

func NewLinearStrategy(baseDelay time.Duration, maxRetries int32) *LinearStrategy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &LinearStrategy{
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

func (s *LinearStrategy) Next() (time.Duration, bool) {
	if s.retries >= s.maxRetries {
		return 0, false
	}
	s.retries++
	return s.baseDelay * time.Duration(s.retries), true
}
