// Package filestore persists preferences as a JSON document on disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/session/app"
	"github.com/fd1az/wallet-dashboard/business/session/domain"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
)

// record is the persisted session namespace. Only the chain lives here.
type record struct {
	SelectedChain chain.Chain `json:"selectedChain,omitempty"`
}

type document struct {
	Session record       `json:"wallet-storage"`
	Theme   domain.Theme `json:"theme,omitempty"`
}

// Store reads and writes a single preferences file.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ app.PreferenceStore = (*Store)(nil)

// New returns a store backed by path. The file is created on first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) LoadChain(ctx context.Context) (chain.Chain, error) {
	doc, err := s.read()
	if err != nil {
		return "", err
	}
	return doc.Session.SelectedChain, nil
}

func (s *Store) SaveChain(ctx context.Context, c chain.Chain) error {
	return s.update(func(d *document) { d.Session.SelectedChain = c })
}

func (s *Store) LoadTheme(ctx context.Context) (domain.Theme, error) {
	doc, err := s.read()
	if err != nil {
		return "", err
	}
	return doc.Theme, nil
}

func (s *Store) SaveTheme(ctx context.Context, t domain.Theme) error {
	return s.update(func(d *document) { d.Theme = t })
}

func (s *Store) read() (document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Store) readLocked() (document, error) {
	var doc document

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, apperror.New(apperror.CodePreferencesLoadFailed,
			apperror.WithCause(err), apperror.WithContext(s.path))
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, apperror.New(apperror.CodePreferencesLoadFailed,
			apperror.WithCause(err), apperror.WithContext(s.path))
	}
	return doc, nil
}

// update rewrites the file atomically: temp file then rename. A corrupt
// existing file is replaced rather than blocking saves forever.
func (s *Store) update(mutate func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		doc = document{}
	}
	mutate(&doc)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperror.New(apperror.CodePreferencesSaveFailed, apperror.WithCause(err))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperror.New(apperror.CodePreferencesSaveFailed,
			apperror.WithCause(err), apperror.WithContext(s.path))
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return apperror.New(apperror.CodePreferencesSaveFailed,
			apperror.WithCause(err), apperror.WithContext(tmpPath))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return apperror.New(apperror.CodePreferencesSaveFailed,
			apperror.WithCause(err), apperror.WithContext(s.path))
	}
	return nil
}
