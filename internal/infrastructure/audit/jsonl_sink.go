package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// JSONLSink appends one JSON object per line and rotates the file once it
// would grow past RotateMaxBytes.
type JSONLSink struct {
	path           string
	rotateMaxBytes int64

	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	size int64
}

// NewJSONLSink opens (or creates) path with private permissions.
func NewJSONLSink(path string, rotateMaxBytes int64) (*JSONLSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("audit jsonl path is empty")
	}
	if rotateMaxBytes <= 0 {
		rotateMaxBytes = domain.DefaultAuditRotateBytes
	}
	s := &JSONLSink{path: path, rotateMaxBytes: rotateMaxBytes}
	if err := s.openLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the active log file.
func (s *JSONLSink) Path() string {
	return s.path
}

// Emit implements ports.AuditSink.
func (s *JSONLSink) Emit(_ context.Context, event domain.AuditEvent) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfNeededLocked(int64(len(b)) + 1); err != nil {
		return err
	}
	if s.w == nil {
		return errors.New("audit sink is closed")
	}
	n, err := s.w.Write(append(b, '\n'))
	if err != nil {
		return err
	}
	s.size += int64(n)
	return s.w.Flush()
}

// Close implements ports.AuditSink.
func (s *JSONLSink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		_ = s.w.Flush()
	}
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.w = nil
	s.size = 0
	return err
}

func (s *JSONLSink) openLocked() error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, domain.PrivateDirectoryPermissions); err != nil {
			return fmt.Errorf("create audit log dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if st, err := f.Stat(); err == nil {
		s.size = st.Size()
	}
	s.f = f
	s.w = bufio.NewWriterSize(f, 64*1024)
	return nil
}

func (s *JSONLSink) rotateIfNeededLocked(addBytes int64) error {
	if s.size == 0 || s.size+addBytes <= s.rotateMaxBytes {
		return nil
	}
	if s.w != nil {
		_ = s.w.Flush()
	}
	if s.f != nil {
		_ = s.f.Close()
	}
	s.f, s.w, s.size = nil, nil, 0

	rotated := fmt.Sprintf("%s.%s", s.path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	// A failed rename keeps appending to the current file.
	_ = os.Rename(s.path, rotated)
	return s.openLocked()
}

var _ ports.AuditSink = (*JSONLSink)(nil)
