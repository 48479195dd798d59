// Package slogobs implements the observability Provider on the standard
// library's structured logger. Spans are rendered as paired start/end log
// records carrying their duration.
package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leofalp/sheetflow/providers/observability"
)

// Provider logs all observability events through a slog.Logger.
type Provider struct {
	logger *slog.Logger
}

var _ observability.Provider = (*Provider)(nil)

// New creates a slog-backed provider. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{logger: logger}
}

// StartSpan logs the span opening at debug level and returns a span that
// logs completion with its wall-clock duration.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	p.logger.DebugContext(ctx, name+" started", slogArgs(attrs)...)
	return ctx, &span{
		ctx:     ctx,
		name:    name,
		started: time.Now(),
		logger:  p.logger,
		attrs:   append([]observability.Attribute(nil), attrs...),
	}
}

func (p *Provider) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.DebugContext(ctx, msg, slogArgs(attrs)...)
}

func (p *Provider) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.InfoContext(ctx, msg, slogArgs(attrs)...)
}

func (p *Provider) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.WarnContext(ctx, msg, slogArgs(attrs)...)
}

func (p *Provider) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.ErrorContext(ctx, msg, slogArgs(attrs)...)
}

type span struct {
	ctx     context.Context
	name    string
	started time.Time
	logger  *slog.Logger

	mu    sync.Mutex
	attrs []observability.Attribute
	err   error
}

func (s *span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := slogArgs(s.attrs)
	args = append(args, slog.Duration("duration", time.Since(s.started)))
	if s.err != nil {
		args = append(args, slog.Any("error", s.err))
		s.logger.ErrorContext(s.ctx, s.name+" failed", args...)
		return
	}
	s.logger.DebugContext(s.ctx, s.name+" completed", args...)
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *span) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func slogArgs(attrs []observability.Attribute) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, slog.Any(attr.Key, attr.Value))
	}
	return args
}
