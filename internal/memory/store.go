package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// embeddingDim is the size of the hashed bag-of-words vector. Large enough
// that collisions stay rare for situation-sized texts.
const embeddingDim = 512

// Store keeps past analysis outcomes keyed by market situation so future
// runs can recall what happened in comparable conditions.
type Store struct {
	db *sql.DB
}

// Match is a recalled memory with its similarity to the query situation.
type Match struct {
	Situation  string
	Lesson     string
	Similarity float64
	CreatedAt  time.Time
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS memories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    situation TEXT NOT NULL,
    lesson TEXT NOT NULL,
    embedding TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_memories_ticker ON memories(ticker);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init memory schema: %w", err)
	}
	return nil
}

// StoreAnalysis records a situation and the lesson learned from it.
func (s *Store) StoreAnalysis(ctx context.Context, ticker, situation, lesson string) error {
	if strings.TrimSpace(situation) == "" {
		return fmt.Errorf("situation is required")
	}

	vec := embed(situation)
	blob, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (ticker, situation, lesson, embedding) VALUES (?, ?, ?, ?)`,
		strings.ToUpper(ticker), situation, lesson, string(blob))
	if err != nil {
		return fmt.Errorf("store memory: %w", err)
	}
	return nil
}

// QuerySimilar returns up to maxResults past memories for ticker whose
// situations score at least minSimilarity against the query, best first.
func (s *Store) QuerySimilar(ctx context.Context, situation, ticker string, maxResults int, minSimilarity float64) ([]Match, error) {
	if maxResults <= 0 {
		maxResults = 3
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT situation, lesson, embedding, created_at FROM memories WHERE ticker = ?`,
		strings.ToUpper(ticker))
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	query := embed(situation)

	var matches []Match
	for rows.Next() {
		var m Match
		var blob string
		if err := rows.Scan(&m.Situation, &m.Lesson, &blob, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}

		var vec []float64
		if err := json.Unmarshal([]byte(blob), &vec); err != nil {
			continue
		}

		m.Similarity = cosine(query, vec)
		if m.Similarity >= minSimilarity {
			matches = append(matches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// embed maps text onto a fixed-dimension vector by hashing lowercase word
// tokens into buckets. Crude next to a real embedding model but it keeps
// recall fully offline and deterministic.
func embed(text string) []float64 {
	vec := make([]float64, embeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]{}\"'")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%embeddingDim]++
	}
	return vec
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
