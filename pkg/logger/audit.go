package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type AuditConfig struct {
	LogPath   string        // append-only audit log file
	MaxSize   int64         // rotate when the file exceeds this many bytes
	Topic     string        // optional topic for mirrored audit events
	Publisher Publisher     // optional; nil disables publishing
	Timeout   time.Duration // publish timeout
}

// AuditEntry is one recorded validation failure.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Schema    string    `json:"schema"`
	Source    string    `json:"source"`
	Errors    []string  `json:"errors"`
	Attempt   int       `json:"attempt,omitempty"`
}

// AuditSink appends validation failures to a JSONL file, rotating the file
// to a single .bak when it grows past MaxSize. Best effort: sink failures
// never propagate to validation callers.
type AuditSink struct {
	config *AuditConfig
	mutex  sync.Mutex
}

func NewAuditSink(config *AuditConfig) *AuditSink {
	if config.MaxSize <= 0 {
		config.MaxSize = 10 * 1024 * 1024
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &AuditSink{config: config}
}

// Record writes one entry. The timestamp is set here if the caller left it
// zero.
func (s *AuditSink) Record(entry AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mutex.Lock()
	if err := s.append(entry); err != nil {
		fmt.Fprintf(os.Stderr, "audit sink: %v\n", err)
	}
	s.mutex.Unlock()

	if s.config.Publisher != nil && s.config.Topic != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
			defer cancel()
			if err := s.config.Publisher.PublishMessage(ctx, s.config.Topic, entry); err != nil {
				fmt.Fprintf(os.Stderr, "audit publish: %v\n", err)
			}
		}()
	}
}

func (s *AuditSink) append(entry AuditEntry) error {
	if s.config.LogPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.config.LogPath), 0o755); err != nil {
		return fmt.Errorf("audit dir: %w", err)
	}
	if err := s.rotateIfNeeded(); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(s.config.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// rotateIfNeeded keeps at most one .bak generation.
func (s *AuditSink) rotateIfNeeded() error {
	info, err := os.Stat(s.config.LogPath)
	if err != nil || info.Size() < s.config.MaxSize {
		return nil
	}
	bak := s.config.LogPath + ".bak"
	_ = os.Remove(bak)
	if err := os.Rename(s.config.LogPath, bak); err != nil {
		return fmt.Errorf("rotate audit log: %w", err)
	}
	return nil
}
