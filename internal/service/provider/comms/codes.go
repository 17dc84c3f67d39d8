package comms

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	codeTTL    = 5 * time.Minute
	codeDigits = 6
)

// codeStore SDK 类短信厂商没有验证服务，验证码只能自己生成和保存。
// 同一个号码重新发送会覆盖旧的验证码，校验成功后删除
type codeStore struct {
	codes *cache.Cache
}

func newCodeStore() *codeStore {
	return &codeStore{codes: cache.New(codeTTL, 2*codeTTL)}
}

func (s *codeStore) issue(to string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%0*d", codeDigits, n.Int64())
	s.codes.SetDefault(to, code)
	return code, nil
}

func (s *codeStore) forget(to string) {
	s.codes.Delete(to)
}

func (s *codeStore) verify(to, code string) bool {
	v, ok := s.codes.Get(to)
	if !ok {
		return false
	}
	expected, _ := v.(string)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		return false
	}
	s.codes.Delete(to)
	return true
}

// await 让不支持 context 的 SDK 调用也能被取消，SDK 自身的读超时保证后台调用最终结束
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		val, err := fn()
		ch <- result{val: val, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}
