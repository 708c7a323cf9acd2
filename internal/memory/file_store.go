package memory

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	compassErrors "github.com/compass-oss/compass/internal/errors"
)

// FileStore persists each record as a JSON file under
// root/<user_id>/<tier>/<id>.json and each transcript under
// root/transcripts/<conversation_id>.json. An in-memory index built at open
// time serves all reads; files are the durable copy.
type FileStore struct {
	root string

	mu      sync.RWMutex
	records map[string]*Record // id -> record
	paths   map[string]string  // id -> file path
}

// NewFileStore opens (creating if needed) a file store rooted at dir and
// loads the existing records into the index.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to create storage directory", err)
	}

	s := &FileStore{
		root:    dir,
		records: make(map[string]*Record),
		paths:   make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(rel, "transcripts"+string(filepath.Separator)) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		s.records[rec.ID] = &rec
		s.paths[rec.ID] = path
		return nil
	})
	if err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to load memory store", err)
	}
	return nil
}

func (s *FileStore) recordPath(rec *Record) string {
	return filepath.Join(s.root, rec.UserID, string(rec.Tier), rec.ID+".json")
}

func (s *FileStore) Put(rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(rec)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to create memory directory", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to encode memory record", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to write memory record", err)
	}

	// An id re-put at a different tier or user moves the file.
	if old, ok := s.paths[rec.ID]; ok && old != path {
		os.Remove(old)
	}

	cp := *rec
	s.records[rec.ID] = &cp
	s.paths[rec.ID] = path
	return nil
}

func (s *FileStore) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, compassErrors.New(compassErrors.CodeNotFound,
			"memory not found: "+id)
	}
	cp := *rec
	return &cp, nil
}

func (s *FileStore) LatestByTier(userID string, tier Tier) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Record
	for _, rec := range s.records {
		if rec.UserID != userID || rec.Tier != tier {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) ||
			(rec.CreatedAt.Equal(latest.CreatedAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *FileStore) ByConversation(conversationID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(rec *Record) bool {
		return rec.ConversationID == conversationID
	}), nil
}

func (s *FileStore) ByUser(userID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(rec *Record) bool {
		return rec.UserID == userID
	}), nil
}

func (s *FileStore) Search(userID, query string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	out := s.filter(func(rec *Record) bool {
		return rec.UserID == userID && strings.Contains(strings.ToLower(rec.Content), q)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// filter returns copies of matching records, newest first. Callers must hold
// at least a read lock.
func (s *FileStore) filter(match func(*Record) bool) []*Record {
	var out []*Record
	for _, rec := range s.records {
		if match(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.paths[id]
	if !ok {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to delete memory record", err)
	}
	delete(s.records, id)
	delete(s.paths, id)
	return true, nil
}

func (s *FileStore) transcriptPath(conversationID string) string {
	return filepath.Join(s.root, "transcripts", conversationID+".json")
}

func (s *FileStore) PutTranscript(t *Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.transcriptPath(t.ConversationID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to create transcript directory", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to encode transcript", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to write transcript", err)
	}
	return nil
}

func (s *FileStore) GetTranscript(conversationID string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.transcriptPath(conversationID))
	if os.IsNotExist(err) {
		return nil, compassErrors.New(compassErrors.CodeNotFound,
			"transcript not found: "+conversationID)
	}
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read transcript", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to decode transcript", err)
	}
	return &t, nil
}

func (s *FileStore) Stats(userID string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{PerTier: make(map[Tier]int)}
	convs := make(map[string]struct{})
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		stats.Total++
		stats.PerTier[rec.Tier]++
		convs[rec.ConversationID] = struct{}{}
	}
	stats.Conversations = len(convs)
	return stats, nil
}

func (s *FileStore) Close() error {
	return nil
}
