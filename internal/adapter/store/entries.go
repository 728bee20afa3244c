package store

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/berfenger/hassbridge/internal/core/flow"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateEntry = errors.New("config entry already exists")

type entriesFile struct {
	Version int          `yaml:"version"`
	Entries []flow.Entry `yaml:"entries"`
}

const entriesFileVersion = 1

// EntryStore keeps config entries in memory and mirrors them to a YAML file.
// With an empty path nothing is written to disk.
type EntryStore struct {
	mutex   sync.RWMutex
	path    string
	entries map[string]flow.Entry
	logger  *zap.Logger
}

func NewEntryStore(path string, logger *zap.Logger) *EntryStore {
	return &EntryStore{
		path:    path,
		entries: map[string]flow.Entry{},
		logger:  logger.With(zap.String("component", "entrystore")),
	}
}

// Load reads the entries file. A missing file is an empty store.
func (s *EntryStore) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("entrystore: no entries file yet", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read entries file: %w", err)
	}

	var file entriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode entries file: %w", err)
	}
	if file.Version != 0 && file.Version != entriesFileVersion {
		return fmt.Errorf("unsupported entries file version: %d", file.Version)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries = make(map[string]flow.Entry, len(file.Entries))
	for _, e := range file.Entries {
		if e.EntryID == "" {
			return fmt.Errorf("entries file: entry without entry_id")
		}
		s.entries[e.EntryID] = e
	}
	s.logger.Info("entrystore: loaded", zap.Int("entries", len(s.entries)))
	return nil
}

func (s *EntryStore) Entries(domain string) []flow.Entry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]flow.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if domain == "" || e.Domain == domain {
			out = append(out, copyEntry(e))
		}
	}
	sortEntries(out)
	return out
}

func (s *EntryStore) Get(entryID string) (flow.Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return flow.Entry{}, false
	}
	return copyEntry(e), true
}

func (s *EntryStore) Add(entry flow.Entry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.entries[entry.EntryID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry.EntryID)
	}
	s.entries[entry.EntryID] = copyEntry(entry)
	if err := s.persist(); err != nil {
		delete(s.entries, entry.EntryID)
		return err
	}
	return nil
}

func (s *EntryStore) Remove(entryID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	old, ok := s.entries[entryID]
	if !ok {
		return flow.ErrEntryNotFound
	}
	delete(s.entries, entryID)
	if err := s.persist(); err != nil {
		s.entries[entryID] = old
		return err
	}
	return nil
}

func (s *EntryStore) UpdateOptions(entryID string, options map[string]any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	old, ok := s.entries[entryID]
	if !ok {
		return flow.ErrEntryNotFound
	}
	updated := old
	updated.Options = maps.Clone(options)
	s.entries[entryID] = updated
	if err := s.persist(); err != nil {
		s.entries[entryID] = old
		return err
	}
	return nil
}

// persist atomically replaces the whole file. Callers hold the write lock.
func (s *EntryStore) persist() error {
	if s.path == "" {
		return nil
	}
	file := entriesFile{Version: entriesFileVersion, Entries: make([]flow.Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		file.Entries = append(file.Entries, e)
	}
	sortEntries(file.Entries)

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encode entries file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir entries dir: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write entries file: %w", err)
	}
	s.logger.Debug("entrystore: saved", zap.Int("entries", len(file.Entries)))
	return nil
}

func copyEntry(e flow.Entry) flow.Entry {
	e.Data = maps.Clone(e.Data)
	e.Options = maps.Clone(e.Options)
	return e
}

func sortEntries(entries []flow.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].EntryID < entries[j].EntryID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
