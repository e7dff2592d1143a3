// Package otel 提供 OpenTelemetry 可观测性支持
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer 定义追踪器接口
//
// 对 OpenTelemetry Tracer 的薄封装，便于在禁用可观测性时替换为空实现。
type Tracer interface {
	// Start 开始一个新的 Span
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span)
}

// Span 定义 Span 接口
type Span interface {
	// End 结束 Span
	End()
	// SetAttributes 设置属性
	SetAttributes(attrs ...attribute.KeyValue)
	// RecordError 记录错误并标记 Span 为失败
	RecordError(err error)
}

// OTelTracer OpenTelemetry 追踪器实现
type OTelTracer struct {
	tracer trace.Tracer
}

// NewTracer 创建 OpenTelemetry 追踪器
func NewTracer(tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

// Start 开始一个新的 Span
func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	opts := []trace.SpanStartOption{}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &otelSpan{span: span}
}

// otelSpan OpenTelemetry Span 实现
type otelSpan struct {
	span trace.Span
}

// End 结束 Span
func (s *otelSpan) End() {
	s.span.End()
}

// SetAttributes 设置属性
func (s *otelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError 记录错误并标记 Span 为失败
func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err, trace.WithAttributes(
		attribute.String(AttrErrorType, fmt.Sprintf("%T", err)),
	))
	s.span.SetStatus(codes.Error, err.Error())
}

// NoopTracer 空实现追踪器（用于禁用追踪）
type NoopTracer struct {
	tracer trace.Tracer
}

// NewNoopTracer 创建空实现追踪器
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// Start 开始 Span（空实现）
func (t *NoopTracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// SpanContextFrom 从上下文获取 SpanContext（辅助函数）
func SpanContextFrom(ctx context.Context) trace.SpanContext {
	if ctx == nil {
		return trace.SpanContext{}
	}
	return trace.SpanFromContext(ctx).SpanContext()
}

// compile-time interface check
var _ Tracer = (*OTelTracer)(nil)
var _ Tracer = (*NoopTracer)(nil)
