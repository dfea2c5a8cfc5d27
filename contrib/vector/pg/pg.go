package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/company-researcher/vector"
)

// Store implements vector.Store using PostgreSQL with the pgvector extension.
// Useful when evidence indexes should survive the process (batch reruns over
// the same search corpus); the default collector path uses the in-memory
// store instead.
//
// Rows are scoped by session: Session derives a view that only sees its own
// embeddings, so concurrent research threads sharing one table cannot clear
// or pollute each other's index. The base store (empty session) is the
// exception on Clear and Count, which span the whole table.
type Store struct {
	db        *sql.DB
	dimension int
	tableName string
	session   string
}

// Config holds pgvector configuration
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int    // Embedding dimension (default: 1536 for OpenAI)
	TableName string // Table name (default: evidence_vectors)
}

// DefaultConfig returns default pgvector configuration
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "postgres",
		DBName:    "company_researcher",
		SSLMode:   "disable",
		Dimension: 1536,
		TableName: "evidence_vectors",
	}
}

// New creates a new pgvector-based vector store
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &Store{
		db:        db,
		dimension: config.Dimension,
		tableName: config.TableName,
	}

	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}

	return store, nil
}

// setup initializes pgvector and creates necessary tables
func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		session_id VARCHAR(255) NOT NULL DEFAULT '',
		id VARCHAR(255) NOT NULL,
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, id)
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Session returns a view of the store restricted to the given session ID.
// The underlying connection and table are shared; rows are not.
func (s *Store) Session(id string) *Store {
	return &Store{
		db:        s.db,
		dimension: s.dimension,
		tableName: s.tableName,
		session:   id,
	}
}

// SessionID reports the session this store is scoped to; empty means the
// whole table.
func (s *Store) SessionID() string {
	return s.session
}

// AddEmbedding adds a new embedding to the store
func (s *Store) AddEmbedding(ctx context.Context, embedding *vector.Embedding) error {
	if embedding == nil {
		return fmt.Errorf("embedding cannot be nil")
	}
	if embedding.ID == "" {
		return fmt.Errorf("embedding ID cannot be empty")
	}
	if len(embedding.Vector) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding.Vector))
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (session_id, id, text, embedding)
	VALUES ($1, $2, $3, $4::vector)
	ON CONFLICT (session_id, id) DO UPDATE SET
		text = EXCLUDED.text,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query, s.session, embedding.ID, embedding.Text, vectorToString(embedding.Vector))
	if err != nil {
		return fmt.Errorf("failed to add embedding: %w", err)
	}
	return nil
}

// Search finds embeddings similar to the query vector, best first. The
// similarity reported is 1 - cosine distance, matching the in-memory store.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]vector.Match, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", s.dimension, len(queryVector))
	}
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`
	SELECT id, text, embedding, 1 - (embedding <=> $1::vector) AS similarity
	FROM %s
	WHERE session_id = $2
	ORDER BY embedding <=> $1::vector
	LIMIT $3
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(queryVector), s.session, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	matches := make([]vector.Match, 0, topK)
	for rows.Next() {
		var id, text, vectorStr string
		var similarity float64

		if err := rows.Scan(&id, &text, &vectorStr, &similarity); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		vec, err := stringToVector(vectorStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse vector for embedding %s: %w", id, err)
		}

		matches = append(matches, vector.Match{
			Embedding:  &vector.Embedding{ID: id, Text: text, Vector: vec},
			Similarity: float32(similarity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embeddings: %w", err)
	}
	return matches, nil
}

// Clear removes this session's embeddings. The base store clears the whole
// table.
func (s *Store) Clear(ctx context.Context) error {
	if s.session == "" {
		query := fmt.Sprintf("TRUNCATE TABLE %s", s.tableName)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to clear embeddings: %w", err)
		}
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = $1", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, s.session); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	return nil
}

// Count returns the number of embeddings in this session; the base store
// counts the whole table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if s.session == "" {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)
		if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count embeddings: %w", err)
		}
		return count, nil
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE session_id = $1", s.tableName)
	if err := s.db.QueryRowContext(ctx, query, s.session).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// vectorToString converts a vector to pgvector text format: [1,2,3]
func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// stringToVector parses pgvector text format back into a vector.
func stringToVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
