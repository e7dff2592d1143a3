// Package errors 定义框架的通用错误类型
package errors

import (
	"errors"
	"fmt"
	"net"
)

// 通用错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingAPIKey API 密钥缺失（致命配置错误，构造时立即返回）
	ErrMissingAPIKey = errors.New("API key not found")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// 检索相关错误
var (
	// ErrRateLimited 请求被限速（HTTP 429）
	ErrRateLimited = errors.New("rate limited")
	// ErrServerUnavailable 上游服务不可用（HTTP 5xx）
	ErrServerUnavailable = errors.New("server unavailable")
	// ErrRequestFailed 请求失败（不可重试的 HTTP 状态）
	ErrRequestFailed = errors.New("request failed")
	// ErrEmptyResponse 响应为空
	ErrEmptyResponse = errors.New("empty response")
	// ErrMalformedResponse 响应格式无效
	ErrMalformedResponse = errors.New("malformed response")
)

// retryableStatuses 可重试的 HTTP 状态码
//
// 仅瞬时状态触发重试，其余 4xx 立即失败。
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// WrapError 包装错误并添加上下文信息
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsRetryableStatus 判断 HTTP 状态码是否可重试
func IsRetryableStatus(status int) bool {
	return retryableStatuses[status]
}

// IsRetryable 判断错误是否可重试
//
// 限速、上游不可用和连接级失败可重试；配置错误、普通 4xx
// 和永久性失败（证书无效、域名不存在等）不可重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerUnavailable) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// DNS 先于 OpError 判断：拨号失败的 OpError 会包住 DNSError，
	// 而域名不存在是永久性的
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	// 操作系统层的连接失败（拒绝连接、连接重置等）
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsFatal 判断错误是否为致命错误（不可恢复）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrInvalidConfig)
}
