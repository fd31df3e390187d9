package audit

import (
	"context"
	"errors"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink struct {
	sinks []ports.AuditSink
}

// NewMultiSink skips nil sinks.
func NewMultiSink(sinks ...ports.AuditSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of attached sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Emit implements ports.AuditSink. Every sink is attempted.
func (m *MultiSink) Emit(ctx context.Context, event domain.AuditEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements ports.AuditSink.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.AuditSink = (*MultiSink)(nil)
