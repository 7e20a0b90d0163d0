package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
)

// FileStore keeps the whole document in memory and rewrites the backing
// JSON file after every mutation.
type FileStore struct {
	mu   sync.Mutex
	path string
	doc  *Document
	log  *slog.Logger
}

var _ Store = (*FileStore)(nil)

// OpenFile loads path, or starts from an empty document when the file does
// not exist yet. A file that is not a valid document is an error.
func OpenFile(path string) (*FileStore, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	s := &FileStore{path: path, doc: doc, log: logger.OrDiscard(logger.Store)}
	s.log.Info("",
		slog.String("event", "store.open"),
		slog.String("backend", "json"),
		slog.String("path", path),
		slog.Int("welcome", len(doc.order)),
		slog.Int("groups", len(doc.groups)),
	)
	return s, nil
}

// LoadDocument reads a store document from path. A missing file yields an
// empty document.
func LoadDocument(path string) (*Document, error) {
	return readDocument(path, true)
}

// ReadDocument reads a store document that must already exist, such as an
// import source. A missing file is a store.load.read_failure.
func ReadDocument(path string) (*Document, error) {
	return readDocument(path, false)
}

func readDocument(path string, allowMissing bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if allowMissing && errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, boterr.Wrap(err, boterr.CodeStoreLoadReadFailure, "read store file", boterr.FieldPath(path))
	}
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, boterr.Wrap(err, boterr.CodeStoreLoadCorrupt, "store file is not a valid document", boterr.FieldPath(path))
	}
	return doc, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Document returns a deep copy of the current state.
func (s *FileStore) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := NewDocument()
	for _, e := range s.doc.Welcomes() {
		cp.SetWelcome(e.ChatID, e.Text)
	}
	for _, id := range s.doc.groups {
		cp.AddGroup(id)
	}
	return cp
}

// Welcome returns the chat's template, or DefaultWelcome when none is set.
func (s *FileStore) Welcome(_ context.Context, chatID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text, ok := s.doc.Welcome(chatID); ok {
		return text, nil
	}
	return DefaultWelcome, nil
}

// SetWelcome stores text for chatID and rewrites the file. On a failed
// write the previous template is restored.
func (s *FileStore) SetWelcome(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.doc.Welcome(chatID)
	s.doc.SetWelcome(chatID, text)
	if err := s.save(); err != nil {
		if had {
			s.doc.SetWelcome(chatID, prev)
		} else {
			s.doc.deleteWelcome(chatID)
		}
		return err
	}
	return nil
}

// TrackGroup records chatID and rewrites the file. It reports false
// without writing when the group is already known.
func (s *FileStore) TrackGroup(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.AddGroup(chatID) {
		return false, nil
	}
	if err := s.save(); err != nil {
		s.doc.removeGroup(chatID)
		return false, err
	}
	return true, nil
}

// Groups returns a copy of the known groups in the order they were seen.
func (s *FileStore) Groups(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Groups(), nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error { return nil }

// save writes the full document. Callers hold s.mu.
func (s *FileStore) save() error {
	data, err := encodeIndented(s.doc)
	if err != nil {
		return boterr.Wrap(err, boterr.CodeStoreSaveFailure, "encode store document", boterr.FieldPath(s.path))
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return boterr.Wrap(err, boterr.CodeStoreSaveFailure, "create store directory", boterr.FieldPath(s.path))
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return boterr.Wrap(err, boterr.CodeStoreSaveFailure, "write store file", boterr.FieldPath(s.path))
	}
	s.log.Debug("",
		slog.String("event", "store.save"),
		slog.String("path", s.path),
		slog.Int("bytes", len(data)),
	)
	return nil
}
