package memory

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	compassErrors "github.com/compass-oss/compass/internal/errors"
)

// SQLiteStore persists records and transcripts in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writes
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, compassErrors.Wrap(compassErrors.CodeStorage,
				"failed to create storage directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to open memory database", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		content TEXT NOT NULL,
		tier TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		relevance_score REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user_tier ON memories(user_id, tier);
	CREATE INDEX IF NOT EXISTS idx_memories_conversation ON memories(conversation_id);

	CREATE TABLE IF NOT EXISTS transcripts (
		conversation_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		messages TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to initialize memory schema", err)
	}
	return nil
}

func (s *SQLiteStore) Put(rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO memories
			(id, user_id, conversation_id, content, tier, created_at, updated_at, relevance_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ConversationID, rec.Content, string(rec.Tier),
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(), rec.RelevanceScore)
	if err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to write memory record", err)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, conversation_id, content, tier, created_at, updated_at, relevance_score
		FROM memories WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, compassErrors.New(compassErrors.CodeNotFound,
			"memory not found: "+id)
	}
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read memory record", err)
	}
	return rec, nil
}

func (s *SQLiteStore) LatestByTier(userID string, tier Tier) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, conversation_id, content, tier, created_at, updated_at, relevance_score
		FROM memories WHERE user_id = ? AND tier = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, userID, string(tier))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read latest memory", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ByConversation(conversationID string) ([]*Record, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, conversation_id, content, tier, created_at, updated_at, relevance_score
		FROM memories WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC`, conversationID)
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to list conversation memories", err)
	}
	return collectRecords(rows)
}

func (s *SQLiteStore) ByUser(userID string) ([]*Record, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, conversation_id, content, tier, created_at, updated_at, relevance_score
		FROM memories WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to list user memories", err)
	}
	return collectRecords(rows)
}

// likeEscaper makes LIKE treat query text literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLiteStore) Search(userID, query string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, conversation_id, content, tier, created_at, updated_at, relevance_score
		FROM memories WHERE user_id = ? AND lower(content) LIKE '%' || lower(?) || '%' ESCAPE '\'
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, likeEscaper.Replace(query), limit)
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to search memories", err)
	}
	return collectRecords(rows)
}

func (s *SQLiteStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to delete memory record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to delete memory record", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) PutTranscript(t *Transcript) error {
	msgs, err := json.Marshal(t.Messages)
	if err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to encode transcript", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO transcripts (conversation_id, user_id, messages, created_at)
		VALUES (?, ?, ?, ?)`,
		t.ConversationID, t.UserID, string(msgs), t.CreatedAt.UTC())
	if err != nil {
		return compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to write transcript", err)
	}
	return nil
}

func (s *SQLiteStore) GetTranscript(conversationID string) (*Transcript, error) {
	var (
		t    Transcript
		msgs string
		ts   time.Time
	)
	err := s.db.QueryRow(`
		SELECT conversation_id, user_id, messages, created_at
		FROM transcripts WHERE conversation_id = ?`, conversationID).
		Scan(&t.ConversationID, &t.UserID, &msgs, &ts)
	if err == sql.ErrNoRows {
		return nil, compassErrors.New(compassErrors.CodeNotFound,
			"transcript not found: "+conversationID)
	}
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read transcript", err)
	}
	if err := json.Unmarshal([]byte(msgs), &t.Messages); err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to decode transcript", err)
	}
	t.CreatedAt = ts.UTC()
	return &t, nil
}

func (s *SQLiteStore) Stats(userID string) (*Stats, error) {
	stats := &Stats{PerTier: make(map[Tier]int)}

	rows, err := s.db.Query(`
		SELECT tier, COUNT(*) FROM memories WHERE user_id = ? GROUP BY tier`, userID)
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read memory stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tier string
			n    int
		)
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, compassErrors.Wrap(compassErrors.CodeStorage,
				"failed to read memory stats", err)
		}
		stats.PerTier[Tier(tier)] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read memory stats", err)
	}

	err = s.db.QueryRow(`
		SELECT COUNT(DISTINCT conversation_id) FROM memories WHERE user_id = ?`, userID).
		Scan(&stats.Conversations)
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read memory stats", err)
	}
	return stats, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec  Record
		tier string
		ca   time.Time
		ua   time.Time
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ConversationID, &rec.Content,
		&tier, &ca, &ua, &rec.RelevanceScore)
	if err != nil {
		return nil, err
	}
	rec.Tier = Tier(tier)
	rec.CreatedAt = ca.UTC()
	rec.UpdatedAt = ua.UTC()
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	defer rows.Close()
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, compassErrors.Wrap(compassErrors.CodeStorage,
				"failed to read memory record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to read memory record", err)
	}
	return out, nil
}
