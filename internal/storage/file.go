package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "notifyd/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.state.json (last-sent date, rewritten atomically)
//   - <prefix>.sent.jsonl (append-only JSON Lines delivery log)
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	statePath string
	state     fileState

	sentFile *os.File
}

type fileState struct {
	LastSentDate string `json:"last_sent_date,omitempty"`
}

type sentRecord struct {
	At        string `json:"at"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	TaskCount int    `json:"task_count"`
	Error     string `json:"err,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	prefix := strings.TrimSpace(cfg.Path)
	if prefix == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{log: log, statePath: prefix + ".state.json"}

	// Missing or corrupted state degrades to "no send recorded".
	if b, err := os.ReadFile(st.statePath); err == nil {
		if err := json.Unmarshal(b, &st.state); err != nil {
			log.Warn("state file unreadable, starting fresh", logx.String("path", st.statePath), logx.Err(err))
			st.state = fileState{}
		}
	}

	f, err := os.OpenFile(prefix+".sent.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	st.sentFile = f
	return st, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sentFile != nil {
		err := s.sentFile.Close()
		s.sentFile = nil
		return err
	}
	return nil
}

func (s *fileStore) LastSentDate(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.LastSentDate == "" {
		return "", false, nil
	}
	return s.state.LastSentDate, true, nil
}

func (s *fileStore) SetLastSentDate(ctx context.Context, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastSentDate = day

	b, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	// Write-then-rename keeps the state readable across crashes.
	tmp := s.statePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.statePath)
}

func (s *fileStore) AppendSent(ctx context.Context, e SentEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	rec := sentRecord{
		At:        e.At.Format(time.RFC3339Nano),
		Recipient: e.Recipient,
		Subject:   e.Subject,
		TaskCount: e.TaskCount,
		Error:     e.Error,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sentFile == nil {
		return ErrDisabled
	}
	_, err = s.sentFile.Write(b)
	return err
}
