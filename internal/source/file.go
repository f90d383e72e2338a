package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"notifyd/internal/notify"
)

// document is the on-disk export shape. Field names follow the
// job-management system's JSON export.
type document struct {
	Tasks      []notify.Task `json:"tasks" yaml:"tasks"`
	UserEmails []string      `json:"userEmails" yaml:"userEmails"`
}

type fileSource struct {
	path string
}

func openFile(cfg Config) (Source, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("source.path is required for file driver")
	}
	return &fileSource{path: path}, nil
}

func (s *fileSource) load(ctx context.Context) (*document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var doc document
	ext := strings.ToLower(filepath.Ext(s.path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("source %s: %w", s.path, err)
		}
		return &doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("source %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *fileSource) Tasks(ctx context.Context) ([]notify.Task, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

func (s *fileSource) UserEmails(ctx context.Context) ([]string, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.UserEmails, nil
}
