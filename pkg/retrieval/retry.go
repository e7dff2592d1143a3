package retrieval

import (
	"context"
	"math"
	"time"

	"github.com/easyops/foodrag-go/pkg/core/errors"
)

// RetryFunc 可重试的函数类型
type RetryFunc func() error

// maxBackoff 单次退避的最大时长
const maxBackoff = 30 * time.Second

// retry 执行带指数退避的重试
//
// 只有 errors.IsRetryable 判定为瞬时的错误才会重试，
// 其余错误立即返回。
func retry(ctx context.Context, maxRetries int, backoffFactor float64, fn RetryFunc) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		// 检查上下文是否取消
		select {
		case <-ctx.Done():
			return errors.ErrContextCanceled
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !errors.IsRetryable(err) {
			return err
		}

		// 如果不是最后一次重试，等待后继续
		if attempt < maxRetries {
			delay := calculateBackoff(attempt, backoffFactor)
			select {
			case <-ctx.Done():
				return errors.ErrContextCanceled
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}

// calculateBackoff 计算指数退避时间
// 使用公式: backoffFactor * 2^attempt 秒，上限 30 秒
func calculateBackoff(attempt int, backoffFactor float64) time.Duration {
	seconds := backoffFactor * math.Pow(2, float64(attempt))
	delay := time.Duration(seconds * float64(time.Second))

	if delay > maxBackoff {
		delay = maxBackoff
	}

	return delay
}
